package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type ReviewModel struct {
	Id            int               `json:"id" gorm:"primaryKey;autoIncrement"`
	BookId        int               `json:"bookId" gorm:"column:book_id;not null;index"`
	Book          *BookModel        `json:"-" gorm:"foreignKey:BookId;references:Id;constraint:OnDelete:CASCADE"`
	UserId        *int              `json:"userId" gorm:"column:user_id;index"`
	User          *UserModel        `json:"-" gorm:"foreignKey:UserId;references:Id;constraint:OnDelete:SET NULL"`
	TransactionId *int              `json:"transactionId" gorm:"column:transaction_id;uniqueIndex"`
	Transaction   *TransactionModel `json:"-" gorm:"foreignKey:TransactionId;references:Id;constraint:OnDelete:SET NULL"`
	Rating        int               `json:"rating" gorm:"not null"`
	Comment       string            `json:"comment" gorm:"type:text"`
	Date          time.Time         `json:"date" gorm:"not null"`
	EditedAt      *time.Time        `json:"editedAt" gorm:"column:edited_at"`
	IsApproved    bool              `json:"isApproved" gorm:"column:is_approved;not null;default:true"`
}
