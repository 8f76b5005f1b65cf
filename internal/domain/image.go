package domain

import (
	"context"
	"io"
)

// ImageStore is the port for recipe image blobs, addressed by object name.
// Open and Delete return ErrNotFound for unknown names.
type ImageStore interface {
	Save(ctx context.Context, name, contentType string, r io.Reader, size int64) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}
