package storage

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned by Get when the key has no object.
// The export synchronizer treats it as "first event of the day".
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage defines common object operations across backends.
// Artifacts are small workbooks, so objects move as whole byte slices;
// Put fully replaces any previous object at the key.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Storage wraps an ObjectStorage backend with a stable API.
type Storage struct {
	backend ObjectStorage
}

// NewStorage constructs a Storage wrapper for the provided backend.
func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put uploads an object, replacing any previous version.
func (s *Storage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return s.backend.Put(ctx, key, data, contentType)
}

// Get reads an object in full, or ErrObjectNotFound.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	return s.backend.Get(ctx, key)
}

// Delete removes an object from the configured bucket.
func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}
