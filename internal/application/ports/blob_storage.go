package ports

import (
	"context"
	"io"
)

// BlobStorage holds resource file bytes under opaque keys.
type BlobStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Delete succeeds when the key is already gone.
	Delete(ctx context.Context, key string) error
}
