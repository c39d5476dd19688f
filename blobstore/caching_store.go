package blobstore

import (
	"context"

	"github.com/hupe1980/qbucket/internal/cache"
)

// CachingStore wraps a BlobStore and keeps whole blobs in an LRU cache.
// Writes and deletes through the CachingStore invalidate the cached copy.
// Intended for remote stores serving repeated loads of the same index.
type CachingStore struct {
	inner BlobStore
	blobs *cache.LRU[string, []byte]
}

// NewCachingStore creates a new CachingStore holding at most capacity blobs.
func NewCachingStore(inner BlobStore, capacity int) *CachingStore {
	return &CachingStore{
		inner: inner,
		blobs: cache.NewLRU[string, []byte](capacity),
	}
}

// Open serves a blob from the cache, reading it fully from the inner store on a
// miss. The Current pointer is never cached.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	if name == Current {
		return s.inner.Open(ctx, name)
	}
	data, err := s.blobs.GetOrCompute(name, func() ([]byte, error) {
		return ReadAll(ctx, s.inner, name)
	})
	if err != nil {
		return nil, err
	}
	return &memoryBlob{data: data}, nil
}

// Put writes through and invalidates the cached copy.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.blobs.Remove(name)
	return s.inner.Put(ctx, name, data)
}

// Delete deletes through and invalidates the cached copy.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.blobs.Remove(name)
	return s.inner.Delete(ctx, name)
}

// List is passed through uncached.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Stats returns cache hit/miss counters.
func (s *CachingStore) Stats() (hits, misses int64) {
	return s.blobs.Stats()
}
