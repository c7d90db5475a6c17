package models

import "time"

type NotificationModel struct {
	Id        int        `json:"id" gorm:"primaryKey;autoIncrement"`
	Token     string     `json:"token" gorm:"type:varchar(50);uniqueIndex;not null"`
	UserId    int        `json:"userId" gorm:"column:user_id;not null;index"`
	User      *UserModel `json:"-" gorm:"foreignKey:UserId;references:Id;constraint:OnDelete:CASCADE"`
	Message   string     `json:"message" gorm:"type:text;not null"`
	IsRead    bool       `json:"isRead" gorm:"column:is_read;not null;default:false"`
	CreatedAt time.Time  `json:"createdAt" gorm:"column:created_at;not null"`
}
