package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/codershubham350/discover-places-backend/internal/infrastructure/observability"
)

// Pinger is a backing service the readiness check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health reports liveness
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Ready pings every dependency and answers 503 if any of them is down.
func Ready(checks map[string]Pinger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(names))
		for _, name := range names {
			if err := checks[name].Ping(ctx); err != nil {
				observability.LoggerFromContext(ctx).Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
				results[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "up"
		}

		respondWithJSON(w, status, map[string]interface{}{"checks": results})
	}
}
