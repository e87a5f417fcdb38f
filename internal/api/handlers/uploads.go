package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/codershubham350/discover-places-backend/internal/domain/providers"
	"github.com/codershubham350/discover-places-backend/internal/infrastructure/observability"
	apperrors "github.com/codershubham350/discover-places-backend/pkg/errors"
)

type stagedUploadsKey struct{}

type stagedFile struct {
	storage providers.FileStorage
	path    string
}

// stagedUploads tracks files written while serving one request.
type stagedUploads struct {
	mu    sync.Mutex
	files []stagedFile
}

func withStagedUploads(ctx context.Context) (context.Context, *stagedUploads) {
	staged := &stagedUploads{}
	return context.WithValue(ctx, stagedUploadsKey{}, staged), staged
}

func stagedFromContext(ctx context.Context) *stagedUploads {
	staged, _ := ctx.Value(stagedUploadsKey{}).(*stagedUploads)
	return staged
}

func (s *stagedUploads) add(storage providers.FileStorage, path string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, stagedFile{storage: storage, path: path})
}

// discard removes every staged file. Failures are logged only.
func (s *stagedUploads) discard(ctx context.Context) {
	if s == nil {
		return
	}
	s.mu.Lock()
	files := s.files
	s.files = nil
	s.mu.Unlock()

	for _, f := range files {
		if err := f.storage.Remove(context.WithoutCancel(ctx), f.path); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("file", f.path).Msg("failed to discard staged upload")
		}
	}
}

// ImageUploader reads an image from a multipart form and stores it for the
// current request.
type ImageUploader struct {
	storage  providers.FileStorage
	maxBytes int64
}

// NewImageUploader creates an uploader bounded by maxBytes per request body
func NewImageUploader(storage providers.FileStorage, maxBytes int64) *ImageUploader {
	return &ImageUploader{storage: storage, maxBytes: maxBytes}
}

// ParseForm bounds and parses a multipart body.
func (u *ImageUploader) ParseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, u.maxBytes)
	if err := r.ParseMultipartForm(u.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.NewValidationError("Uploaded file is too large.")
		}
		return apperrors.NewValidationError(invalidInputMessage)
	}
	return nil
}

// Save stores the file in field and stages it so a failed request removes
// it again. ParseForm must have been called.
func (u *ImageUploader) Save(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", apperrors.NewValidationError(invalidInputMessage)
	}
	defer file.Close()

	path, err := u.storage.Save(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		return "", err
	}
	stagedFromContext(r.Context()).add(u.storage, path)
	return path, nil
}
