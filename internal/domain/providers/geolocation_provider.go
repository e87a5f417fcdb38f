package providers

import (
	"context"
)

// GeolocationProvider resolves free-text addresses to coordinates
type GeolocationProvider interface {
	// Geocode returns the best match for address. An address with no match
	// yields a geocoding error; transport failures yield an external error.
	Geocode(ctx context.Context, address string) (*Coordinates, error)
}

// Coordinates represents geographical coordinates
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}
