// Package qbucket answers "what value separates bucket b from bucket b+1"
// for a numeric attribute, optionally narrowed by categorical filters.
//
// An index is trained once from a data source. For every numeric attribute
// and every combination of up to MaxDepth categorical (attribute, value)
// filters, it stores the values at evenly spaced percentiles. Queries are then
// answered from the stored lists without touching the source again.
//
// # Quick Start
//
//	ctx := context.Background()
//	ix, _ := qbucket.TrainFromRecords(ctx, records,
//	    []string{"company", "category"}, []string{"listPrice"})
//
//	// Lower boundary of the cheapest quarter of shoes.
//	v, _ := ix.Get(ctx, "listPrice", 1, qbucket.Above,
//	    qbucket.WithFilters(filter.New(filter.Pair{Key: "category", Value: "Shoes"})))
//
// # Buckets
//
// Buckets are percentages summing to 100; the default is four quartiles.
// Operator '<' returns the upper boundary of bucket b, '>' the lower one.
// When no list was stored for the exact filter set, filters are dropped one
// at a time until a stored combination is found.
//
// # Sources
//
//   - source/memory: in-memory records (JSON array or NDJSON files)
//   - source/sqlsource: DuckDB, SQLite and PostgreSQL tables
//
// # Persistence
//
// Save and Open keep versioned indexes in any blobstore.BlobStore (local
// directory, MinIO, S3):
//
//	manifest, _ := ix.Save(ctx, blobstore.NewLocalStore("./catalog"), catalog.Meta{})
//	ix, _ = qbucket.Open(ctx, blobstore.NewLocalStore("./catalog"))
package qbucket
