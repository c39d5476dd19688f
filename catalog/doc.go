// Package catalog persists quantile-bucket indexes in a blobstore.BlobStore.
//
// # Layout
//
//	indexes/IDX-000001.qbi   encoded (and optionally compressed) index document
//	MANIFEST-000001.json     manifest describing version 1
//	CURRENT                  name of the live manifest
//
// # Atomic Protocol
//
// Save follows a two-phase protocol:
//
//  1. Write the index blob and then MANIFEST-NNNNNN.json
//  2. Atomically update CURRENT to reference the new manifest
//
// Readers that see the old CURRENT keep loading the previous version, so a
// crash between the steps leaves the catalog consistent. On S3, wrap the store
// in s3.CommitStore to guard CURRENT against concurrent writers.
//
// # Versions
//
// Every Save allocates the next version ID. ListVersions and LoadVersion give
// access to older builds until DeleteVersion removes them.
package catalog
