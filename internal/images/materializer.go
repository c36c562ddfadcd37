// Package images turns embedded base64 images into stored files.
package images

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/esgaming/catalogops/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config configures the materializer
type Config struct {
	MaxPx int // Longest side after downsizing; 0 keeps the original size
}

// Materializer uploads embedded images and hands back their public URL
type Materializer struct {
	uploader storage.Uploader
	maxPx    int
	logger   *zap.Logger
}

// NewMaterializer creates a new materializer. A nil logger is replaced with a no-op one.
func NewMaterializer(uploader storage.Uploader, cfg Config, logger *zap.Logger) *Materializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Materializer{uploader: uploader, maxPx: cfg.MaxPx, logger: logger}
}

// Resolve returns the URL to store for ref. Plain references are returned
// unchanged with uploaded=false; base64 images are decoded, downsized when
// larger than MaxPx and uploaded to <entryID>/<uuid>.<ext>.
func (m *Materializer) Resolve(ctx context.Context, entryID uuid.UUID, ref string) (url string, uploaded bool, err error) {
	if ref == "" || !IsDataURI(ref) {
		return ref, false, nil
	}

	img, err := DecodeDataURI(ref)
	if err != nil {
		return "", false, err
	}

	data := m.shrink(img)
	path := fmt.Sprintf("%s/%s.%s", entryID, uuid.New(), img.Ext())

	url, err = m.uploader.Upload(ctx, path, data, img.ContentType())
	if err != nil {
		return "", false, fmt.Errorf("failed to upload image: %w", err)
	}

	m.logger.Debug("image uploaded",
		zap.String("entry_id", entryID.String()),
		zap.String("path", path),
		zap.String("size", storage.FormatSize(int64(len(data)))),
	)
	return url, true, nil
}

// shrink downsizes images imaging can decode. Anything else is stored as sent.
func (m *Materializer) shrink(img *DataURI) []byte {
	if m.maxPx <= 0 {
		return img.Data
	}

	format, err := imaging.FormatFromExtension(img.Ext())
	if err != nil {
		return img.Data
	}

	src, err := imaging.Decode(bytes.NewReader(img.Data))
	if err != nil {
		m.logger.Warn("image not decodable, storing as sent", zap.String("type", img.Subtype), zap.Error(err))
		return img.Data
	}

	bounds := src.Bounds()
	if bounds.Dx() <= m.maxPx && bounds.Dy() <= m.maxPx {
		return img.Data
	}

	resized := imaging.Fit(src, m.maxPx, m.maxPx, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format); err != nil {
		m.logger.Warn("failed to re-encode image, storing as sent", zap.Error(err))
		return img.Data
	}
	return buf.Bytes()
}
