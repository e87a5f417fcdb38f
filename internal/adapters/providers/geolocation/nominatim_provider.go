package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codershubham350/discover-places-backend/internal/domain/providers"
	apperrors "github.com/codershubham350/discover-places-backend/pkg/errors"
)

const (
	nominatimBaseURL   = "https://nominatim.openstreetmap.org"
	defaultHTTPTimeout = 8 * time.Second
	defaultUserAgent   = "discover-places-backend/1.0"
)

const noCoordinatesMessage = "Could not get coordinates for provided location"

// NominatimProvider implements GeolocationProvider against an OpenStreetMap
// Nominatim search endpoint.
type NominatimProvider struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	cache      providers.CacheProvider
}

// NominatimOptions overrides endpoint and client settings. Zero values fall
// back to defaults.
type NominatimOptions struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewNominatimProvider creates a new Nominatim geocoder. cache may be nil.
func NewNominatimProvider(opts NominatimOptions, cache providers.CacheProvider) *NominatimProvider {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = nominatimBaseURL
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &NominatimProvider{
		baseURL:    baseURL,
		userAgent:  userAgent,
		timeout:    timeout,
		httpClient: httpClient,
		cache:      cache,
	}
}

// Geocode resolves address to the first search result.
func (n *NominatimProvider) Geocode(ctx context.Context, address string) (*providers.Coordinates, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return nil, apperrors.NewGeocodingError(noCoordinatesMessage)
	}

	if coords, ok := cachedCoordinates(ctx, n.cache, trimmed); ok {
		return coords, nil
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", trimmed)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("addressdetails", "1")

	reqURL := fmt.Sprintf("%s/search?%s", n.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build geocode request", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError("geocode request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewExternalError("geocode request failed",
			fmt.Errorf("geocode request returned status %d", resp.StatusCode))
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, apperrors.NewExternalError("failed to decode geocode response", err)
	}
	if len(results) == 0 {
		return nil, apperrors.NewGeocodingError(noCoordinatesMessage)
	}

	coords, err := results[0].coordinates()
	if err != nil {
		return nil, apperrors.NewExternalError("geocode response carried invalid coordinates", err)
	}

	log.Debug().Str("address", trimmed).Float64("lat", coords.Latitude).Float64("lng", coords.Longitude).Msg("geocoded address")
	storeCoordinates(ctx, n.cache, trimmed, coords)
	return coords, nil
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (r nominatimResult) coordinates() (*providers.Coordinates, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lat %q: %w", r.Lat, err)
	}
	lng, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lon %q: %w", r.Lon, err)
	}
	return &providers.Coordinates{Latitude: lat, Longitude: lng}, nil
}
