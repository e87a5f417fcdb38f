package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/codershubham350/discover-places-backend/internal/infrastructure/observability"
)

func requestRoutes(t *testing.T, paths ...string) []string {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	metrics, err := observability.NewMetrics(provider)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/places/{pid}", func(w http.ResponseWriter, r *http.Request) {})
	handler := ObservabilityMiddleware(metrics)(mux)

	for _, p := range paths {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var routes []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http.server.request.count" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				v, _ := dp.Attributes.Value(attribute.Key("http.route"))
				routes = append(routes, v.AsString())
			}
		}
	}
	return routes
}

func TestObservabilityMiddleware_LabelsByPattern(t *testing.T) {
	routes := requestRoutes(t, "/api/places/p1", "/api/places/p2")
	assert.Equal(t, []string{"GET /api/places/{pid}"}, routes)
}

func TestObservabilityMiddleware_UnmatchedPath(t *testing.T) {
	routes := requestRoutes(t, "/nope")
	assert.Equal(t, []string{"unmatched"}, routes)
}
