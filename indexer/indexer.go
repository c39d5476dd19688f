// Package indexer builds quantile-bucket indexes from a source.
//
// For every numeric attribute and every depth in [0, MaxDepth), the indexer
// enumerates filter sets formed from distinct categorical attributes (one value
// each) and stores the quantile list of each populated combination under its
// canonical key. Tasks for distinct (attribute, depth) pairs run in parallel.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/qbucket/filter"
	"github.com/hupe1980/qbucket/index"
	"github.com/hupe1980/qbucket/source"
)

const (
	// DefaultQuantileGap is the default percentage step between boundaries.
	DefaultQuantileGap = 10

	// DefaultMaxDepth is the default enumeration depth (filter sets of size 0 and 1).
	DefaultMaxDepth = 2
)

// ErrInvalidMaxDepth is returned when MaxDepth is less than 1.
var ErrInvalidMaxDepth = index.ErrInvalidMaxDepth

// Options configures an Indexer.
type Options struct {
	// QuantileGap is the percentage step between boundaries. Must divide 100.
	QuantileGap int

	// MaxDepth bounds the enumeration. Filter sets have at most MaxDepth-1 pairs.
	MaxDepth int

	// Workers limits the number of concurrent build tasks.
	// Defaults to runtime.GOMAXPROCS(0).
	Workers int

	// Logger receives build progress. Nil discards.
	Logger *slog.Logger
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		QuantileGap: DefaultQuantileGap,
		MaxDepth:    DefaultMaxDepth,
		Workers:     runtime.GOMAXPROCS(0),
	}
}

// WithQuantileGap sets the quantile gap.
func WithQuantileGap(gap int) func(*Options) {
	return func(o *Options) {
		o.QuantileGap = gap
	}
}

// WithMaxDepth sets the enumeration depth.
func WithMaxDepth(depth int) func(*Options) {
	return func(o *Options) {
		o.MaxDepth = depth
	}
}

// WithWorkers sets the number of concurrent build tasks.
func WithWorkers(n int) func(*Options) {
	return func(o *Options) {
		o.Workers = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) func(*Options) {
	return func(o *Options) {
		o.Logger = l
	}
}

// BuildStats summarizes a build.
type BuildStats struct {
	// Entries is the number of stored quantile lists.
	Entries int
	// Skipped counts combinations with an empty partition.
	Skipped int
	// Revisited counts enumeration leaves whose key was already claimed.
	Revisited int
	// Queries counts Count and ValueAt calls issued to the source.
	Queries int
	// Duration is the wall time of the build.
	Duration time.Duration
}

// Indexer builds indexes from a source. An Indexer may run several builds;
// each build discovers attributes afresh.
type Indexer struct {
	src    source.Source
	disc   source.Discovery
	opts   Options
	logger *slog.Logger

	mu    sync.Mutex
	stats BuildStats
}

// New creates an indexer over src, using disc to discover attributes.
func New(src source.Source, disc source.Discovery, optFns ...func(*Options)) (*Indexer, error) {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := index.ValidateGap(opts.QuantileGap); err != nil {
		return nil, err
	}
	if opts.MaxDepth < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxDepth, opts.MaxDepth)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Indexer{
		src:    src,
		disc:   disc,
		opts:   opts,
		logger: logger,
	}, nil
}

// Options returns the effective options.
func (ix *Indexer) Options() Options { return ix.opts }

// Stats returns the statistics of the last successful build.
func (ix *Indexer) Stats() BuildStats {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.stats
}

// Build enumerates all combinations and returns the resulting map. The build
// either completes or fails as a whole; the first error cancels the remaining tasks.
func (ix *Indexer) Build(ctx context.Context) (index.Map, error) {
	r, err := ix.build(ctx)
	if err != nil {
		return nil, err
	}
	return r.entries, nil
}

// Index builds and returns a query-ready index.
func (ix *Indexer) Index(ctx context.Context, optFns ...func(*index.Options)) (*index.Index, error) {
	r, err := ix.build(ctx)
	if err != nil {
		return nil, err
	}
	optFns = append([]func(*index.Options){index.WithLogger(ix.logger)}, optFns...)
	return index.New(ix.opts.QuantileGap, ix.opts.MaxDepth, r.entries, r.categorical, r.numeric, optFns...)
}

type result struct {
	entries     index.Map
	categorical []string
	numeric     []string
}

func (ix *Indexer) build(ctx context.Context) (result, error) {
	start := time.Now()

	values, err := ix.disc.CategoricalAttributes(ctx)
	if err != nil {
		return result{}, fmt.Errorf("discover categorical attributes: %w", err)
	}
	numeric, err := ix.disc.NumericAttributes(ctx)
	if err != nil {
		return result{}, fmt.Errorf("discover numeric attributes: %w", err)
	}

	b := &builder{
		src:         ix.src,
		gap:         ix.opts.QuantileGap,
		categorical: slices.Sorted(maps.Keys(values)),
		values:      values,
		entries:     make(index.Map),
		claimed:     make(map[string]struct{}),
	}

	ix.logger.InfoContext(ctx, "build started",
		"numeric", numeric,
		"categorical", b.categorical,
		"quantile_gap", ix.opts.QuantileGap,
		"max_depth", ix.opts.MaxDepth,
		"workers", ix.opts.Workers,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.Workers)

	for _, attr := range numeric {
		for depth := range ix.opts.MaxDepth {
			g.Go(func() error {
				ix.logger.DebugContext(gctx, "task started", "attribute", attr, "depth", depth)
				return b.expand(gctx, attr, depth, filter.Set{})
			})
		}
	}

	if err := g.Wait(); err != nil {
		ix.logger.ErrorContext(ctx, "build failed", "error", err)
		return result{}, err
	}

	stats := BuildStats{
		Entries:   len(b.entries),
		Skipped:   b.skipped,
		Revisited: b.revisited,
		Queries:   b.queries,
		Duration:  time.Since(start),
	}

	ix.mu.Lock()
	ix.stats = stats
	ix.mu.Unlock()

	ix.logger.InfoContext(ctx, "build completed",
		"entries", stats.Entries,
		"skipped", stats.Skipped,
		"revisited", stats.Revisited,
		"queries", stats.Queries,
		"duration", stats.Duration,
	)

	return result{
		entries:     b.entries,
		categorical: b.categorical,
		numeric:     slices.Clone(numeric),
	}, nil
}
