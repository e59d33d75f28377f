package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
)

// LocalizedName represents a multilingual display name.
type LocalizedName struct {
	En string `json:"en"`
	Fr string `json:"fr"`
	Ar string `json:"ar"`
}

// Value implements the driver.Valuer interface for database storage
func (ln LocalizedName) Value() (driver.Value, error) {
	return json.Marshal(ln)
}

// Scan implements the sql.Scanner interface for database retrieval
func (ln *LocalizedName) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(bytes, ln)
}

// City is a bookable location listings attach to.
type City struct {
	gorm.Model
	Name      LocalizedName `json:"name" gorm:"type:jsonb"`
	Country   string        `json:"country"`
	ImageURL  string        `json:"imageURL"`
	IsActive  bool          `json:"isActive" gorm:"default:true"`
	SortOrder int           `json:"sortOrder" gorm:"default:0"`
}

// Category is a listing category (villa, apartment, cabin, ...).
type Category struct {
	gorm.Model
	Name      LocalizedName `json:"name" gorm:"type:jsonb"`
	Icon      string        `json:"icon"` // Phosphor icon name
	IsActive  bool          `json:"isActive" gorm:"default:true"`
	SortOrder int           `json:"sortOrder" gorm:"default:0"`
}

// Facility is an amenity a listing can offer (wifi, pool, parking, ...).
type Facility struct {
	gorm.Model
	Name      LocalizedName `json:"name" gorm:"type:jsonb"`
	Icon      string        `json:"icon"`
	LogoURL   string        `json:"logoURL"`
	IsActive  bool          `json:"isActive" gorm:"default:true"`
	SortOrder int           `json:"sortOrder" gorm:"default:0"`
}
