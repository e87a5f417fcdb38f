package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codershubham350/discover-places-backend/internal/domain/providers"
	apperrors "github.com/codershubham350/discover-places-backend/pkg/errors"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleGeolocationProvider implements the GeolocationProvider using the Google Geocoding API.
type GoogleGeolocationProvider struct {
	apiKey     string
	httpClient *http.Client
	cache      providers.CacheProvider
	baseURL    string
	timeout    time.Duration
}

// NewGoogleGeolocationProvider creates a new Google geolocation provider.
func NewGoogleGeolocationProvider(apiKey string, cache providers.CacheProvider) *GoogleGeolocationProvider {
	return NewGoogleGeolocationProviderWithOptions(apiKey, cache, googleGeocodeURL, defaultHTTPTimeout, nil)
}

// NewGoogleGeolocationProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewGoogleGeolocationProviderWithOptions(apiKey string, cache providers.CacheProvider, baseURL string, timeout time.Duration, httpClient *http.Client) *GoogleGeolocationProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = googleGeocodeURL
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &GoogleGeolocationProvider{
		apiKey:     apiKey,
		httpClient: httpClient,
		cache:      cache,
		baseURL:    baseURL,
		timeout:    timeout,
	}
}

// Geocode converts an address to the coordinates of the first result.
func (g *GoogleGeolocationProvider) Geocode(ctx context.Context, address string) (*providers.Coordinates, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return nil, apperrors.NewGeocodingError(noCoordinatesMessage)
	}

	if coords, ok := cachedCoordinates(ctx, g.cache, trimmed); ok {
		return coords, nil
	}

	resp, err := g.doGeocodeRequest(ctx, url.Values{"address": []string{trimmed}})
	if err != nil {
		return nil, err
	}

	if resp.Status == "ZERO_RESULTS" || len(resp.Results) == 0 {
		return nil, apperrors.NewGeocodingError(noCoordinatesMessage)
	}

	location := resp.Results[0].Geometry.Location
	coords := &providers.Coordinates{Latitude: location.Lat, Longitude: location.Lng}

	storeCoordinates(ctx, g.cache, trimmed, coords)
	return coords, nil
}

func (g *GoogleGeolocationProvider) doGeocodeRequest(ctx context.Context, params url.Values) (*googleGeocodeResponse, error) {
	if g.apiKey == "" {
		return nil, apperrors.NewInternalError("google maps api key is required", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params.Set("key", g.apiKey)
	reqURL := fmt.Sprintf("%s?%s", g.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build geocode request", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError("geocode request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewExternalError("geocode request failed",
			fmt.Errorf("geocode request returned status %d", resp.StatusCode))
	}

	var payload googleGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewExternalError("failed to decode geocode response", err)
	}

	if payload.Status != "OK" && payload.Status != "ZERO_RESULTS" {
		if payload.ErrorMessage != "" {
			return nil, apperrors.NewExternalError("geocode request failed",
				fmt.Errorf("%s - %s", payload.Status, payload.ErrorMessage))
		}
		return nil, apperrors.NewExternalError("geocode request failed", fmt.Errorf("status %s", payload.Status))
	}

	return &payload, nil
}

type googleGeocodeResponse struct {
	Status       string                `json:"status"`
	ErrorMessage string                `json:"error_message,omitempty"`
	Results      []googleGeocodeResult `json:"results"`
}

type googleGeocodeResult struct {
	FormattedAddress string         `json:"formatted_address"`
	Geometry         googleGeometry `json:"geometry"`
}

type googleGeometry struct {
	Location googleLocation `json:"location"`
}

type googleLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
