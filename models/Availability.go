package models

import "time"

// AvailabilityEntry overrides bookability and price for one (listing, date)
// pair. Dates with no entry are implicitly available at the listing's base
// price. Entries are hard-deleted so a removed override can be re-created
// for the same date without tripping the unique index.
type AvailabilityEntry struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ListingID   uint      `json:"listingID" gorm:"not null;uniqueIndex:idx_listing_date"`
	Date        time.Time `json:"date" gorm:"not null;uniqueIndex:idx_listing_date"`
	IsAvailable bool      `json:"isAvailable" gorm:"default:true"`
	CustomPrice *float64  `json:"customPrice"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Listing *Listing `json:"listing,omitempty" gorm:"foreignKey:ListingID"`
}
