package geolocation

import (
	"fmt"
	"strings"

	"github.com/codershubham350/discover-places-backend/internal/domain/providers"
	"github.com/codershubham350/discover-places-backend/pkg/config"
)

// NewProvider builds the geocoder named by cfg.Provider. cache may be nil.
func NewProvider(cfg config.GeolocationConfig, cache providers.CacheProvider) (providers.GeolocationProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "nominatim":
		return NewNominatimProvider(NominatimOptions{
			BaseURL:   cfg.BaseURL,
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout,
		}, cache), nil
	case "google":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("GEOLOCATION_API_KEY is required for the google provider")
		}
		return NewGoogleGeolocationProviderWithOptions(cfg.APIKey, cache, cfg.BaseURL, cfg.Timeout, nil), nil
	case "mock":
		return NewMockGeolocationProvider(), nil
	default:
		return nil, fmt.Errorf("unknown geolocation provider %q", cfg.Provider)
	}
}
