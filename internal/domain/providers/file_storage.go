package providers

import (
	"context"
	"io"
)

// FileStorage persists uploaded images
type FileStorage interface {
	// Save stores the content and returns the path clients use to fetch it
	Save(ctx context.Context, originalName, contentType string, r io.Reader) (string, error)

	// Remove deletes a previously saved file by the path Save returned
	Remove(ctx context.Context, path string) error
}
