package models

type ClubModel struct {
	Id              int     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name            string  `json:"name" gorm:"type:varchar(100);not null"`
	Location        *string `json:"location" gorm:"type:varchar(255)"`
	CentralLocation *string `json:"centralLocation" gorm:"column:central_location;type:varchar(255)"`
	ContactEmail    *string `json:"contactEmail" gorm:"column:contact_email;type:varchar(255)"`
	IsActive        bool    `json:"isActive" gorm:"column:is_active;not null;default:true"`
}
