package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Open when the key does not exist.
var ErrNotFound = errors.New("snapshot not found")

// Object describes one stored snapshot.
type Object struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// Store keeps exported question snapshots.
type Store interface {
	Put(ctx context.Context, key string, contentType string, data []byte) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]Object, error)
	Delete(ctx context.Context, key string) error
}
