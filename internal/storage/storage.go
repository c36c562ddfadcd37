// Package storage uploads binary objects and returns their public URL.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/esgaming/catalogops/internal/config"
)

// Uploader stores data at path and returns a publicly resolvable URL.
type Uploader interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// New builds the uploader selected by the storage config.
func New(ctx context.Context, cfg config.StorageConfig) (Uploader, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "local":
		return NewLocalUploader(LocalConfig{
			Dir:     cfg.Local.Dir,
			BaseURL: cfg.Local.BaseURL,
		}), nil
	case "s3":
		return NewS3Uploader(ctx, S3Config{
			Bucket:        cfg.S3.Bucket,
			Region:        cfg.S3.Region,
			Endpoint:      cfg.S3.Endpoint,
			Prefix:        cfg.S3.Prefix,
			PublicBaseURL: cfg.S3.PublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
