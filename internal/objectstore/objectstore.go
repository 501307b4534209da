package objectstore

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("object not found")

// ObjectStore is a remote bucket addressed by slash-separated keys.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) error
	// Get returns ErrNotFound when key does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// URL is the canonical public address of key.
	URL(key string) string
}
