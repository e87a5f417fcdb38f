package geolocation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codershubham350/discover-places-backend/internal/domain/providers"
	apperrors "github.com/codershubham350/discover-places-backend/pkg/errors"
)

type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := c.entries[key]
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func TestNominatimProvider_Geocode(t *testing.T) {
	var gotQuery, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		gotAgent = r.Header.Get("User-Agent")
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"37.4223878","lon":"-122.0841877","display_name":"Google Building 40"}]`))
	}))
	defer server.Close()

	provider := NewNominatimProvider(NominatimOptions{BaseURL: server.URL, UserAgent: "places-test"}, nil)

	coords, err := provider.Geocode(context.Background(), "1600 Amphitheatre Parkway")

	require.NoError(t, err)
	assert.Equal(t, 37.4223878, coords.Latitude)
	assert.Equal(t, -122.0841877, coords.Longitude)
	assert.Equal(t, "1600 Amphitheatre Parkway", gotQuery)
	assert.Equal(t, "places-test", gotAgent)
}

func TestNominatimProvider_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	provider := NewNominatimProvider(NominatimOptions{BaseURL: server.URL}, nil)

	_, err := provider.Geocode(context.Background(), "nowhere at all")

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeGeocoding, appErr.Type)
	assert.Equal(t, "Could not get coordinates for provided location", appErr.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus())
}

func TestNominatimProvider_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := NewNominatimProvider(NominatimOptions{BaseURL: server.URL}, nil)

	_, err := provider.Geocode(context.Background(), "1600 Amphitheatre Parkway")

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestNominatimProvider_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	provider := NewNominatimProvider(NominatimOptions{BaseURL: server.URL, Timeout: 50 * time.Millisecond}, nil)

	_, err := provider.Geocode(context.Background(), "1600 Amphitheatre Parkway")

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestNominatimProvider_UsesCache(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`[{"lat":"51.5072","lon":"-0.1276"}]`))
	}))
	defer server.Close()

	provider := NewNominatimProvider(NominatimOptions{BaseURL: server.URL}, newMemoryCache())

	first, err := provider.Geocode(context.Background(), "London")
	require.NoError(t, err)
	second, err := provider.Geocode(context.Background(), "london")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
