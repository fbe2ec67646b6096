// Package storage uploads finished clips and resolves their public URLs.
package storage

import (
	"context"
	"fmt"
	"io"

	"clippa/internal/config"
)

// ContentTypeMP4 is the content type recorded for every uploaded clip.
const ContentTypeMP4 = "video/mp4"

// ObjectStore receives finished clips. Upload replaces any existing object
// under the same key.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PublicURL(key string) string
}

// Checker is implemented by stores that can verify they are reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// Open returns the object store selected by cfg.Storage.Backend.
func Open(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	switch cfg.Storage.Backend {
	case config.StorageLocal:
		return NewLocal(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
	case config.StorageS3, "":
		return NewS3(ctx, S3Options{
			Bucket:        cfg.Storage.Bucket,
			Region:        cfg.Storage.Region,
			Endpoint:      cfg.Storage.Endpoint,
			Profile:       cfg.Storage.Profile,
			UsePathStyle:  cfg.Storage.UsePathStyle,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}
