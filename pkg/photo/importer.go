package photo

import (
	"bytes"
	"context"
	"fmt"
	"image"
	// Registered for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// Handle identifies an item picked by the user. Its meaning is up to the
// Importer; the file importer reads it as a path.
type Handle string

// Importer loads a picked item. It returns nil data, or an error wrapping
// ErrUnreadable, when the item is not a decodable image. Implementations
// should stop when ctx is done.
type Importer interface {
	ImportOne(ctx context.Context, h Handle) ([]byte, error)
}

// ImporterFunc adapts a function to Importer.
type ImporterFunc func(ctx context.Context, h Handle) ([]byte, error)

func (f ImporterFunc) ImportOne(ctx context.Context, h Handle) ([]byte, error) {
	return f(ctx, h)
}

// FileImporter reads images from the local filesystem.
type FileImporter struct{}

func (FileImporter) ImportOne(ctx context.Context, h Handle) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(string(h))
	if err != nil {
		return nil, fmt.Errorf("photo: read %s: %w", h, err)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, h, err)
	}
	return data, nil
}
