package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalConfig holds configuration for LocalUploader
type LocalConfig struct {
	Dir     string
	BaseURL string // Optional; file:// URLs are returned when empty
}

// LocalUploader writes objects below a directory, for offline imports
type LocalUploader struct {
	dir     string
	baseURL string
}

// NewLocalUploader creates a new local uploader
func NewLocalUploader(cfg LocalConfig) *LocalUploader {
	dir := cfg.Dir
	if dir == "" {
		dir = "output/images"
	}
	return &LocalUploader{dir: dir, baseURL: cfg.BaseURL}
}

// Upload writes data to <dir>/<path>
func (u *LocalUploader) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean := filepath.Clean("/" + path)
	if clean == "/" {
		return "", fmt.Errorf("invalid object path: %q", path)
	}
	destPath := filepath.Join(u.dir, filepath.FromSlash(clean))

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(destPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", destPath, err)
	}

	if u.baseURL != "" {
		return joinURL(u.baseURL, filepath.ToSlash(clean)), nil
	}

	abs, err := filepath.Abs(destPath)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// FormatSize renders a byte count for console output
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
