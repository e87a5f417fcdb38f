package geolocation

import (
	"context"
	"strings"

	"github.com/codershubham350/discover-places-backend/internal/domain/providers"
	apperrors "github.com/codershubham350/discover-places-backend/pkg/errors"
)

// MockGeolocationProvider resolves a fixed set of well known addresses for
// local development without network access.
type MockGeolocationProvider struct{}

// NewMockGeolocationProvider creates a new mock geolocation provider
func NewMockGeolocationProvider() *MockGeolocationProvider {
	return &MockGeolocationProvider{}
}

var mockCoordinates = []struct {
	match  string
	coords providers.Coordinates
}{
	{"1600 amphitheatre parkway", providers.Coordinates{Latitude: 37.4223878, Longitude: -122.0841877}},
	{"20 w 34th st", providers.Coordinates{Latitude: 40.7484405, Longitude: -73.9878584}},
	{"new york", providers.Coordinates{Latitude: 40.7128, Longitude: -74.0060}},
	{"london", providers.Coordinates{Latitude: 51.5072, Longitude: -0.1276}},
	{"lagos", providers.Coordinates{Latitude: 6.5244, Longitude: 3.3792}},
	{"delhi", providers.Coordinates{Latitude: 28.6139, Longitude: 77.2090}},
}

// Geocode matches address case-insensitively against the known set.
// Anything else is reported as not geocodable.
func (m *MockGeolocationProvider) Geocode(ctx context.Context, address string) (*providers.Coordinates, error) {
	lower := strings.ToLower(address)
	for _, entry := range mockCoordinates {
		if strings.Contains(lower, entry.match) {
			coords := entry.coords
			return &coords, nil
		}
	}
	return nil, apperrors.NewGeocodingError(noCoordinatesMessage)
}
