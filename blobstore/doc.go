// Package blobstore provides the storage abstraction for persisted indexes.
//
// A BlobStore holds immutable named blobs (index documents, manifests) plus the
// small mutable CURRENT pointer written by the catalog. Implementations must be
// safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem with mmap reads and atomic writes
//   - MemoryStore: in-memory, for tests
//   - CachingStore: whole-blob LRU cache in front of a slow store
//   - minio.Store: MinIO and other S3-compatible storage
//   - s3.Store: Amazon S3 with range reads and managed uploads
//   - s3.CommitStore: S3 with a DynamoDB-backed CURRENT pointer
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
