package entities

import (
	"time"
)

// Location is a coordinate pair in decimal degrees
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is a point of interest owned by exactly one user
type Place struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Address     string    `json:"address" db:"address"`
	Location    Location  `json:"location"`
	Image       string    `json:"image" db:"image"`
	CreatorID   string    `json:"creator" db:"creator_id"`
	CreatedAt   time.Time `json:"-" db:"created_at"`
	UpdatedAt   time.Time `json:"-" db:"updated_at"`
}

// IsOwnedBy reports whether userID created the place.
func (p *Place) IsOwnedBy(userID string) bool {
	return userID != "" && p.CreatorID == userID
}
