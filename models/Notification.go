package models

import "gorm.io/gorm"

type Notification struct {
	gorm.Model
	UserID  uint   `json:"userID" gorm:"index;not null"`
	Title   string `json:"title"`
	Message string `json:"message" gorm:"type:text"`
	Type    string `json:"type"` // reservation_created, reservation_cancelled, ...
	RefID   uint   `json:"refID"`
	RefType string `json:"refType"` // reservation, listing, post
	IsRead  bool   `json:"isRead" gorm:"default:false;index"`
}
