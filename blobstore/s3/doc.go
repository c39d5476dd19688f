// Package s3 provides an Amazon S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("qbucket/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
// For several writers sharing one catalog, wrap the store in a CommitStore so
// the CURRENT pointer is advanced with a DynamoDB conditional write.
//
// # Features
//
//   - Range reads for partial fetches
//   - Managed (multipart) uploads for large index blobs
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
