package models

import "time"

type BookCondition string

const (
	ConditionNew  BookCondition = "New"
	ConditionGood BookCondition = "Good"
	ConditionFair BookCondition = "Fair"
	ConditionWorn BookCondition = "Worn"
)

// Valid reports whether c is one of the known conditions
func (c BookCondition) Valid() bool {
	switch c {
	case ConditionNew, ConditionGood, ConditionFair, ConditionWorn:
		return true
	}
	return false
}

// BookStatus is the derived availability shown on listings
type BookStatus string

const (
	BookAvailable   BookStatus = "Available"
	BookUnavailable BookStatus = "Unavailable"
)

// Detail pages use a different wording for the unavailable case
const (
	DetailAvailable    = "Available"
	DetailNotAvailable = "Not Available"
)

type BookModel struct {
	Id          int           `json:"id" gorm:"primaryKey;autoIncrement"`
	Title       string        `json:"title" gorm:"type:varchar(255);not null"`
	Author      string        `json:"author" gorm:"type:varchar(255)"`
	Genre       string        `json:"genre" gorm:"type:varchar(100)"`
	Description string        `json:"description" gorm:"type:text"`
	Condition   BookCondition `json:"condition" gorm:"column:book_condition;type:varchar(10);not null;default:'Good'"`
	Cover       *string       `json:"cover" gorm:"type:varchar(255)"`
	UniqueCode  string        `json:"uniqueCode" gorm:"column:unique_code;type:varchar(32);uniqueIndex;not null"`
	OwnerId     *int          `json:"ownerId" gorm:"column:owner_id;index"`
	Owner       *UserModel    `json:"owner,omitempty" gorm:"foreignKey:OwnerId;references:Id;constraint:OnDelete:SET NULL"`
	ClubId      *int          `json:"clubId" gorm:"column:club_id;index"`
	Club        *ClubModel    `json:"club,omitempty" gorm:"foreignKey:ClubId;references:Id;constraint:OnDelete:SET NULL"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// BookCodeSequenceModel keeps the last sequence number handed out per day
type BookCodeSequenceModel struct {
	Day     string `gorm:"primaryKey;type:varchar(8)"`
	Counter int    `gorm:"not null;default:0"`
}
