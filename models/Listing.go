package models

import (
	"encoding/json"

	"gorm.io/gorm"
)

type Listing struct {
	gorm.Model
	HostID       uint    `json:"hostID"`
	Title        string  `json:"title"`
	Description  string  `json:"description" gorm:"type:text"`
	AddressLine1 string  `json:"addressLine1"`
	AddressLine2 string  `json:"addressLine2"`
	Zip          string  `json:"zip"`
	Country      string  `json:"country"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	MaxGuests    int     `json:"maxGuests"`
	Bedrooms     int     `json:"bedrooms"`
	Beds         int     `json:"beds"`
	Bathrooms    float32 `json:"bathrooms"`
	NightlyPrice float64 `json:"nightlyPrice"`
	Currency     string  `json:"currency" gorm:"type:varchar(10);default:'USD'"`
	Images       string  `json:"images"` // JSON array of URLs
	IsActive     *bool   `json:"isActive" gorm:"default:true"`

	CityID     *uint     `json:"cityID" gorm:"index"`
	CategoryID *uint     `json:"categoryID" gorm:"index"`
	City       *City     `json:"city,omitempty" gorm:"foreignKey:CityID"`
	Category   *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`

	Reservations []Reservation `json:"reservations,omitempty"`
	Host         User          `json:"host" gorm:"foreignKey:HostID;references:ID"`
}

// Custom JSON marshaling to convert the Images string into an array
// and to avoid circular host references.
func (l *Listing) MarshalJSON() ([]byte, error) {
	type Alias Listing
	aux := &struct {
		Images []string `json:"images"`
		Host   *User    `json:"host,omitempty"`
		*Alias
	}{
		Images: []string{},
		Host:   nil,
		Alias:  (*Alias)(l),
	}

	if l.Images != "" {
		var images []string
		if err := json.Unmarshal([]byte(l.Images), &images); err == nil {
			aux.Images = images
		}
	}

	if l.Host.ID > 0 {
		hostCopy := l.Host
		hostCopy.Listings = nil // prevent circular reference
		aux.Host = &hostCopy
	}

	return json.Marshal(aux)
}
