package qbucket

import (
	"context"
	"time"

	"github.com/hupe1980/qbucket/blobstore"
	"github.com/hupe1980/qbucket/catalog"
	"github.com/hupe1980/qbucket/filter"
	"github.com/hupe1980/qbucket/index"
	"github.com/hupe1980/qbucket/indexer"
	"github.com/hupe1980/qbucket/source"
	"github.com/hupe1980/qbucket/source/memory"
)

// Operator selects the upper ('<') or lower ('>') boundary of a bucket.
type Operator = index.Operator

const (
	// Below returns the upper boundary of a bucket.
	Below = index.Below

	// Above returns the lower boundary of a bucket.
	Above = index.Above
)

// Result is a resolved boundary with the stored list it was read from.
type Result = index.Result

// QueryOption configures a single query.
type QueryOption = index.QueryOption

// WithFilters narrows a query to records matching every filter.
func WithFilters(filters filter.Set) QueryOption { return index.WithFilters(filters) }

// WithBuckets sets the bucket percentages. They must sum to 100.
func WithBuckets(buckets ...int) QueryOption { return index.WithBuckets(buckets...) }

// WithDebug logs how a query was resolved at debug level.
func WithDebug() QueryOption { return index.WithDebug() }

// Index is a trained quantile-bucket index. It is immutable and safe for
// concurrent queries.
type Index struct {
	x       *index.Index
	stats   indexer.BuildStats
	version uint64
	opts    options
}

// TrainFromRecords indexes in-memory records. Every key in categorical names a
// filterable attribute, every key in numeric an attribute to bucket.
func TrainFromRecords(ctx context.Context, records []memory.Record, categorical, numeric []string, optFns ...Option) (*Index, error) {
	opts := applyOptions(optFns)

	var memOpts []func(*memory.Options)
	if opts.predicate != "" {
		memOpts = append(memOpts, memory.WithPredicate(opts.predicate))
	}
	src, err := memory.New(records, categorical, numeric, memOpts...)
	if err != nil {
		return nil, translateError(err)
	}
	opts.logger.WithCount(src.Len()).DebugContext(ctx, "records loaded")

	return build(ctx, src, src, opts)
}

// Build indexes an arbitrary source. disc reports which attributes exist;
// most sources implement both interfaces.
func Build(ctx context.Context, src source.Source, disc source.Discovery, optFns ...Option) (*Index, error) {
	return build(ctx, src, disc, applyOptions(optFns))
}

func build(ctx context.Context, src source.Source, disc source.Discovery, opts options) (*Index, error) {
	start := time.Now()

	src = source.Throttle(src, opts.throttleLimit, opts.throttleBurst)
	ixr, err := indexer.New(src, disc,
		indexer.WithQuantileGap(opts.quantileGap),
		indexer.WithMaxDepth(opts.maxDepth),
		indexer.WithWorkers(opts.workers),
		indexer.WithLogger(opts.logger.Logger),
	)
	if err != nil {
		err = translateError(err)
		opts.metricsCollector.RecordBuild(0, time.Since(start), err)
		return nil, err
	}

	x, err := ixr.Index(ctx)
	duration := time.Since(start)
	opts.metricsCollector.RecordBuild(ixr.Stats().Entries, duration, err)
	opts.logger.WithDepth(opts.maxDepth).LogBuild(ctx, ixr.Stats().Entries, duration, err)
	if err != nil {
		return nil, translateError(err)
	}

	return &Index{x: x, stats: ixr.Stats(), opts: opts}, nil
}

// Wrap adapts an index.Index, e.g. one decoded from a document.
func Wrap(x *index.Index, optFns ...Option) *Index {
	return &Index{x: x, opts: applyOptions(optFns)}
}

// Open loads the current index from a catalog in store.
func Open(ctx context.Context, store blobstore.BlobStore, optFns ...Option) (*Index, error) {
	return OpenVersion(ctx, store, 0, optFns...)
}

// OpenVersion loads a specific catalog version. 0 means current.
func OpenVersion(ctx context.Context, store blobstore.BlobStore, version uint64, optFns ...Option) (*Index, error) {
	opts := applyOptions(optFns)
	start := time.Now()

	x, m, err := catalog.New(store, opts.catalogOptions()...).LoadVersion(ctx, version)
	opts.metricsCollector.RecordLoad(time.Since(start), err)
	if err != nil {
		opts.logger.LogLoad(ctx, version, 0, err)
		return nil, translateError(err)
	}
	opts.logger.LogLoad(ctx, m.ID, x.Len(), nil)

	return &Index{x: x, version: m.ID, opts: opts}, nil
}

// Save writes the index as a new catalog version in store and makes it current.
func (ix *Index) Save(ctx context.Context, store blobstore.BlobStore, meta catalog.Meta) (*catalog.Manifest, error) {
	start := time.Now()

	m, err := catalog.New(store, ix.opts.catalogOptions()...).Save(ctx, ix.x, meta)
	if err != nil {
		ix.opts.metricsCollector.RecordSave(0, time.Since(start), err)
		ix.opts.logger.LogSave(ctx, 0, "", err)
		return nil, translateError(err)
	}
	ix.opts.metricsCollector.RecordSave(m.IndexSize, time.Since(start), nil)
	ix.opts.logger.LogSave(ctx, m.ID, m.IndexPath, nil)

	ix.version = m.ID
	return m, nil
}

func (o options) catalogOptions() []func(*catalog.Options) {
	return []func(*catalog.Options){
		catalog.WithCodec(o.codec),
		catalog.WithCompression(o.compression),
		catalog.WithLogger(o.logger.Logger),
	}
}

// Get returns the boundary of bucket (1-based) for attribute.
// op Below returns its upper boundary, Above its lower boundary.
func (ix *Index) Get(ctx context.Context, attribute string, bucket int, op Operator, opts ...QueryOption) (float64, error) {
	r, err := ix.Lookup(ctx, attribute, bucket, op, opts...)
	if err != nil {
		return 0, err
	}
	return r.Value, nil
}

// Lookup is Get returning the resolved key and list as well.
func (ix *Index) Lookup(ctx context.Context, attribute string, bucket int, op Operator, opts ...QueryOption) (Result, error) {
	start := time.Now()

	r, err := ix.x.Lookup(attribute, bucket, op, opts...)
	ix.opts.metricsCollector.RecordQuery(attribute, time.Since(start), err)
	ix.opts.logger.LogQuery(ctx, attribute, bucket, r.Key, err)
	if err != nil {
		return Result{}, translateError(err)
	}
	return r, nil
}

// Resolve returns the stored list a query with filters would read.
func (ix *Index) Resolve(attribute string, filters filter.Set) (string, index.QuantileList, bool) {
	return ix.x.Resolve(attribute, filters)
}

// QuantileGap returns the percentile spacing of stored lists.
func (ix *Index) QuantileGap() int { return ix.x.QuantileGap() }

// MaxDepth returns the maximum filter depth used at build time.
func (ix *Index) MaxDepth() int { return ix.x.MaxDepth() }

// Len returns the number of stored lists.
func (ix *Index) Len() int { return ix.x.Len() }

// CategoricalAttributes returns the filterable attribute names.
func (ix *Index) CategoricalAttributes() []string { return ix.x.CategoricalAttributes() }

// NumericAttributes returns the bucketed attribute names.
func (ix *Index) NumericAttributes() []string { return ix.x.NumericAttributes() }

// Stats returns build statistics. It is zero for loaded indexes.
func (ix *Index) Stats() indexer.BuildStats { return ix.stats }

// Version returns the catalog version the index was loaded from or saved as.
func (ix *Index) Version() uint64 { return ix.version }

// Document returns the persisted form of the index.
func (ix *Index) Document() index.Document { return ix.x.Document() }

// Unwrap returns the underlying index.
func (ix *Index) Unwrap() *index.Index { return ix.x }
