package geolocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/codershubham350/discover-places-backend/internal/domain/providers"
)

// 30 days
const defaultGeocodeCacheTTL = 60 * 60 * 24 * 30

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func geocodeCacheKey(address string) string {
	return "geo:v1:geocode:" + hashKey(strings.ToLower(address))
}

// cachedCoordinates returns a previously resolved address. Any cache error
// counts as a miss.
func cachedCoordinates(ctx context.Context, cache providers.CacheProvider, address string) (*providers.Coordinates, bool) {
	if cache == nil {
		return nil, false
	}
	cached, err := cache.Get(ctx, geocodeCacheKey(address))
	if err != nil || len(cached) == 0 {
		return nil, false
	}
	var coords providers.Coordinates
	if err := json.Unmarshal(cached, &coords); err != nil {
		return nil, false
	}
	if coords.Latitude == 0 && coords.Longitude == 0 {
		return nil, false
	}
	return &coords, true
}

func storeCoordinates(ctx context.Context, cache providers.CacheProvider, address string, coords *providers.Coordinates) {
	if cache == nil {
		return
	}
	if payload, err := json.Marshal(coords); err == nil {
		_ = cache.Set(ctx, geocodeCacheKey(address), payload, defaultGeocodeCacheTTL)
	}
}
