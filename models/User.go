package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	FirstName           string         `json:"firstName"`
	LastName            string         `json:"lastName"`
	Email               string         `json:"email" gorm:"uniqueIndex"`
	Password            string         `json:"-"`
	AvatarURL           string         `json:"avatarURL"`
	Bio                 string         `json:"bio"`
	SavedListings       datatypes.JSON `json:"savedListings"`
	AllowsNotifications *bool          `json:"allowsNotifications"`
	Role                string         `json:"role" gorm:"type:varchar(20);default:user;index"` // user, admin, super_admin

	Listings []Listing `json:"listings" gorm:"foreignKey:HostID;references:ID"`
}

// Custom JSON marshaling so the SavedListings JSON column renders as an
// array instead of raw bytes.
func (u *User) MarshalJSON() ([]byte, error) {
	type Alias User
	aux := &struct {
		SavedListings []int `json:"savedListings"`
		*Alias
	}{
		SavedListings: []int{},
		Alias:         (*Alias)(u),
	}

	if u.SavedListings != nil {
		var saved []int
		if err := json.Unmarshal(u.SavedListings, &saved); err == nil {
			aux.SavedListings = saved
		}
	}

	return json.Marshal(aux)
}
