package models

import (
	"time"

	"gorm.io/gorm"
)

// Reservation occupies a half-open date range [StartDate, EndDate) on a
// listing. It is either a guest booking or an owner-placed block; blocks
// carry no user. The price breakdown is snapshotted at booking time so
// later price changes never affect historical reservations.
type Reservation struct {
	gorm.Model
	ListingID  uint      `json:"listingID" gorm:"not null;index"`
	UserID     *uint     `json:"userID" gorm:"index"` // nil only when IsBlocked
	StartDate  time.Time `json:"startDate" gorm:"not null"`
	EndDate    time.Time `json:"endDate" gorm:"not null"` // exclusive checkout day
	GuestCount int       `json:"guestCount"`
	ClientType string    `json:"clientType" gorm:"type:varchar(20)"` // family, group, one
	Details    string    `json:"details" gorm:"type:text"`
	Subtotal   float64   `json:"subtotal"`
	ServiceFee float64   `json:"serviceFee"`
	Total      float64   `json:"total"`
	IsBlocked  bool      `json:"isBlocked" gorm:"default:false"`
	Status     string    `json:"status" gorm:"type:varchar(20);default:'confirmed';index"` // confirmed, cancelled

	Listing *Listing `json:"listing,omitempty" gorm:"foreignKey:ListingID"`
	User    *User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

const (
	ReservationStatusConfirmed = "confirmed"
	ReservationStatusCancelled = "cancelled"
)

const (
	ClientTypeFamily = "family"
	ClientTypeGroup  = "group"
	ClientTypeOne    = "one"
)
