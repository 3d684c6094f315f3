package domain

import (
	"context"
	"io"
)

// BlobWriter uploads a finished report artifact to object storage.
type BlobWriter interface {
	Put(ctx context.Context, key string, data io.Reader, contentType string) error
}
