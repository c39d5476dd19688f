package qbucket

import (
	"log/slog"

	"github.com/hupe1980/qbucket/codec"
	"github.com/hupe1980/qbucket/indexer"
)

type options struct {
	quantileGap      int
	maxDepth         int
	workers          int
	throttleLimit    float64
	throttleBurst    int
	predicate        string
	codec            codec.Codec
	compression      codec.Compression
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures training, persistence and query behavior.
type Option func(*options)

// WithQuantileGap sets the percentile spacing of stored lists. It must divide 100.
// Default 10.
func WithQuantileGap(gap int) Option {
	return func(o *options) {
		o.quantileGap = gap
	}
}

// WithMaxDepth sets the maximum number of filters combined in one stored list.
// Default 2.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// WithWorkers bounds the number of concurrent build tasks.
// Zero uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithThrottle limits the calls a build makes against its source to limit per
// second with the given burst. Useful for shared databases.
func WithThrottle(limit float64, burst int) Option {
	return func(o *options) {
		o.throttleLimit = limit
		o.throttleBurst = burst
	}
}

// WithRecordPredicate admits only records matching an expr-lang expression
// (TrainFromRecords only), e.g. `listPrice > 0 && company != "ACME"`.
func WithRecordPredicate(expression string) Option {
	return func(o *options) {
		o.predicate = expression
	}
}

// WithCodec configures the codec used for persisted indexes.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression configures the compression of persisted indexes. Default zstd.
func WithCompression(c codec.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &qbucket.BasicMetricsCollector{}
//	ix, _ := qbucket.TrainFromRecords(ctx, records, cat, num, qbucket.WithMetricsCollector(metrics))
//	// ... query ix ...
//	stats := metrics.GetStats()
//	fmt.Printf("Queries: %d, Avg latency: %dns\n", stats.QueryCount, stats.QueryAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := qbucket.NewJSONLogger(slog.LevelInfo)
//	ix, _ := qbucket.Build(ctx, src, src, qbucket.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		quantileGap:      indexer.DefaultQuantileGap,
		maxDepth:         indexer.DefaultMaxDepth,
		codec:            codec.Default,
		compression:      codec.CompressionZSTD,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
