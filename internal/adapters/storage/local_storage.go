package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codershubham350/discover-places-backend/internal/domain/providers"
	apperrors "github.com/codershubham350/discover-places-backend/pkg/errors"
)

var mimeExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
	"image/jpg":  "jpg",
}

// sniffLen is how much of an upload http.DetectContentType looks at.
const sniffLen = 512

// Extension returns the file extension stored for an accepted image type.
func Extension(contentType string) (string, bool) {
	ext, ok := mimeExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	return ext, ok
}

// LocalStorage keeps uploaded images on local disk under dir. Saved files are
// addressed by the slash separated path "<dir>/<uuid>.<ext>".
type LocalStorage struct {
	dir string
}

var _ providers.FileStorage = (*LocalStorage)(nil)

// NewLocalStorage creates dir if needed
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &LocalStorage{dir: filepath.Clean(dir)}, nil
}

// Save writes r to a new uniquely named file. The declared content type and
// the type sniffed from the first bytes must both be accepted image types; the
// stored extension follows the sniffed type.
func (s *LocalStorage) Save(ctx context.Context, originalName, contentType string, r io.Reader) (string, error) {
	if _, ok := Extension(contentType); !ok {
		return "", apperrors.NewValidationError("Invalid mime type!")
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", apperrors.NewInternalError("failed to read upload", err)
	}
	head = head[:n]

	sniffed := http.DetectContentType(head)
	ext, ok := Extension(sniffed)
	if !ok {
		log.Debug().Str("declared", contentType).Str("sniffed", sniffed).Str("original_name", originalName).Msg("rejected upload content")
		return "", apperrors.NewValidationError("Invalid mime type!")
	}

	name := uuid.New().String() + "." + ext
	dst := filepath.Join(s.dir, name)

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", apperrors.NewInternalError("failed to store upload", err)
	}

	if _, err := io.Copy(f, &contextReader{ctx: ctx, r: io.MultiReader(bytes.NewReader(head), r)}); err != nil {
		f.Close()
		_ = os.Remove(dst)
		return "", apperrors.NewInternalError("failed to store upload", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return "", apperrors.NewInternalError("failed to store upload", err)
	}

	stored := path.Join(filepath.ToSlash(s.dir), name)
	log.Debug().Str("file", stored).Str("original_name", originalName).Msg("stored upload")
	return stored, nil
}

// Remove deletes a file previously returned by Save. Missing files are not an
// error and paths outside the upload dir are refused.
func (s *LocalStorage) Remove(ctx context.Context, stored string) error {
	if stored == "" {
		return nil
	}
	full := filepath.Clean(filepath.FromSlash(stored))
	if filepath.Dir(full) != s.dir {
		return fmt.Errorf("refusing to remove %q outside %s", stored, s.dir)
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove upload %s: %w", stored, err)
	}
	return nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
