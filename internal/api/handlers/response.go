package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/codershubham350/discover-places-backend/internal/infrastructure/observability"
	apperrors "github.com/codershubham350/discover-places-backend/pkg/errors"
)

const unknownErrorMessage = "An unknown error occurred!"

// HandlerFunc is an HTTP handler that reports failure by returning an error.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handle adapts h to http.Handler and is the single place errors become
// responses. On failure it discards uploads staged by the request, and
// writes {"message": ...} with the error's status unless a response was
// already started.
func Handle(h HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, staged := withStagedUploads(r.Context())
		tw := &trackingWriter{ResponseWriter: w}

		err := h(tw, r.WithContext(ctx))
		if err == nil {
			return
		}

		staged.discard(ctx)

		logger := observability.LoggerFromContext(ctx)
		if tw.wroteHeader {
			logger.Error().Err(err).Str("path", r.URL.Path).Msg("error after response started")
			return
		}

		status, message := http.StatusInternalServerError, unknownErrorMessage
		if appErr, ok := apperrors.As(err); ok {
			status = appErr.HTTPStatus()
			if appErr.Message != "" {
				message = appErr.Message
			}
		}

		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		} else {
			logger.Debug().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Int("status", status).Msg("request rejected")
		}
		respondWithError(w, status, message)
	})
}

// NotFound answers requests no route matched
func NotFound(w http.ResponseWriter, r *http.Request) error {
	return apperrors.NewNotFoundError("Could not find this route.")
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"message": message,
	})
}

// trackingWriter records whether the response has been started.
type trackingWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (tw *trackingWriter) WriteHeader(statusCode int) {
	tw.wroteHeader = true
	tw.ResponseWriter.WriteHeader(statusCode)
}

func (tw *trackingWriter) Write(b []byte) (int, error) {
	tw.wroteHeader = true
	return tw.ResponseWriter.Write(b)
}

func (tw *trackingWriter) Unwrap() http.ResponseWriter {
	return tw.ResponseWriter
}
