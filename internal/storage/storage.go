// Package storage uploads and deletes project images on an image host.
package storage

import (
	"context"
	"errors"
	"io"
	"path"

	"github.com/google/uuid"
)

// ErrNotConfigured is returned by Disabled for every operation.
var ErrNotConfigured = errors.New("storage: image host not configured")

// Asset is a stored image. PublicID is the handle Delete expects.
type Asset struct {
	URL      string
	PublicID string
}

// Storage abstracts the image host (Cloudinary in production, the local
// filesystem in development).
type Storage interface {
	// Upload stores data under key (e.g. "projects/<uuid>.jpg").
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (Asset, error)

	// Delete removes the asset. Deleting a missing asset is not an error.
	Delete(ctx context.Context, publicID string) error
}

// AllowedContentTypes maps accepted image MIME types to file extensions.
var AllowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// NewKey returns a fresh, collision-free key under dir for contentType.
func NewKey(dir, contentType string) (string, bool) {
	ext, ok := AllowedContentTypes[contentType]
	if !ok {
		return "", false
	}
	return path.Join(dir, uuid.NewString()+ext), true
}

// Disabled is used when the image host is missing or partially configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, io.Reader, string) (Asset, error) {
	return Asset{}, ErrNotConfigured
}

func (Disabled) Delete(context.Context, string) error {
	return ErrNotConfigured
}
