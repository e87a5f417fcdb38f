package entities

import (
	"time"
)

// User represents a registered user. Places lists the ids of the places the
// user created, in creation order.
type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	Image     string    `json:"image" db:"image"`
	Places    []string  `json:"places" db:"place_ids"`
	CreatedAt time.Time `json:"-" db:"created_at"`
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}

// OwnsPlace reports whether placeID is in the user's place list.
func (u *User) OwnsPlace(placeID string) bool {
	for _, id := range u.Places {
		if id == placeID {
			return true
		}
	}
	return false
}
