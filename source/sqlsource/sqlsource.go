// Package sqlsource implements source.Catalog over a table reachable through
// database/sql.
//
// Count issues a COUNT(*) over the filtered partition and ValueAt an ordered
// LIMIT 1 OFFSET rank query. Categorical values are compared as text, so
// filters use the textual form the database renders for a value.
//
// Driver-specific constructors live in the duckdb, sqlite and postgres
// subpackages.
package sqlsource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/hupe1980/qbucket/filter"
	"github.com/hupe1980/qbucket/internal/cache"
	"github.com/hupe1980/qbucket/source"
)

// DefaultCacheSize is the default number of cached partition counts.
const DefaultCacheSize = 4096

// ErrInvalidIdentifier is returned for table or column names that are not plain identifiers.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// Options configures a Source.
type Options struct {
	// CacheSize bounds the number of cached counts.
	CacheSize int

	// Logger receives query-level debug logs. Nil disables logging.
	Logger *slog.Logger
}

// WithCacheSize sets the number of cached counts.
func WithCacheSize(n int) func(*Options) {
	return func(o *Options) {
		o.CacheSize = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) func(*Options) {
	return func(o *Options) {
		o.Logger = l
	}
}

// Source is a SQL-backed source.Catalog. Safe for concurrent use.
type Source struct {
	db          *sql.DB
	dialect     Dialect
	table       string
	categorical []string
	numeric     []string
	owned       bool
	logger      *slog.Logger

	counts *cache.LRU[string, int]

	mu     sync.Mutex
	values map[string][]string
}

var _ source.Catalog = (*Source)(nil)

// New creates a source over table. The categorical and numeric attribute lists
// name the columns the source exposes; every name must be a plain identifier.
// The caller keeps ownership of db.
func New(db *sql.DB, dialect Dialect, table string, categorical, numeric []string, optFns ...func(*Options)) (*Source, error) {
	opts := Options{CacheSize: DefaultCacheSize}
	for _, fn := range optFns {
		fn(&opts)
	}

	for _, ident := range append([]string{table}, append(slices.Clone(categorical), numeric...)...) {
		if !validIdent(ident) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, ident)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Source{
		db:          db,
		dialect:     dialect,
		table:       dialect.Quote(table),
		categorical: slices.Clone(categorical),
		numeric:     slices.Clone(numeric),
		logger:      logger,
		counts:      cache.NewLRU[string, int](opts.CacheSize),
	}, nil
}

// Own makes Close also close the underlying database handle.
func (s *Source) Own() *Source {
	s.owned = true
	return s
}

// DB returns the underlying database handle.
func (s *Source) DB() *sql.DB { return s.db }

// Close releases the database handle if the source owns it.
func (s *Source) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}

// Count implements source.Source.
func (s *Source) Count(ctx context.Context, attribute string, filters filter.Set) (int, error) {
	if err := s.check(attribute, filters); err != nil {
		return 0, err
	}

	return s.counts.GetOrCompute(filter.CanonicalKey(attribute, filters), func() (int, error) {
		q, args := s.countQuery(attribute, filters)
		s.logger.DebugContext(ctx, "count", "dialect", s.dialect.Name, "query", q)

		var n int
		if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
			return 0, &source.Error{Op: "count", Attribute: attribute, Err: err}
		}
		return n, nil
	})
}

// ValueAt implements source.Source.
func (s *Source) ValueAt(ctx context.Context, attribute string, rank int, filters filter.Set) (float64, error) {
	if err := s.check(attribute, filters); err != nil {
		return 0, err
	}
	if rank < 0 {
		return 0, fmt.Errorf("%w: rank %d", source.ErrRankOutOfRange, rank)
	}

	q, args := s.valueQuery(attribute, rank, filters)
	s.logger.DebugContext(ctx, "value at", "dialect", s.dialect.Name, "query", q)

	var v sql.NullFloat64
	err := s.db.QueryRowContext(ctx, q, args...).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: rank %d for %s", source.ErrRankOutOfRange, rank, filter.CanonicalKey(attribute, filters))
	}
	if err != nil {
		return 0, &source.Error{Op: "value_at", Attribute: attribute, Err: err}
	}
	return v.Float64, nil
}

// CategoricalAttributes implements source.Discovery. Distinct values are
// queried once and then served from memory.
func (s *Source) CategoricalAttributes(ctx context.Context) (map[string][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.values == nil {
		values := make(map[string][]string, len(s.categorical))
		for _, attr := range s.categorical {
			vs, err := s.distinct(ctx, attr)
			if err != nil {
				return nil, err
			}
			values[attr] = vs
		}
		s.values = values
	}

	out := make(map[string][]string, len(s.values))
	for k, v := range s.values {
		out[k] = slices.Clone(v)
	}
	return out, nil
}

// NumericAttributes implements source.Discovery.
func (s *Source) NumericAttributes(context.Context) ([]string, error) {
	return slices.Clone(s.numeric), nil
}

func (s *Source) distinct(ctx context.Context, attribute string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.distinctQuery(attribute))
	if err != nil {
		return nil, &source.Error{Op: "discover", Attribute: attribute, Err: err}
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, &source.Error{Op: "discover", Attribute: attribute, Err: err}
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, &source.Error{Op: "discover", Attribute: attribute, Err: err}
	}
	slices.Sort(values)
	return values, nil
}

func (s *Source) check(attribute string, filters filter.Set) error {
	if !slices.Contains(s.numeric, attribute) {
		return fmt.Errorf("%w: numeric attribute %q", source.ErrUnknownAttribute, attribute)
	}
	for _, k := range filters.Keys() {
		if !slices.Contains(s.categorical, k) {
			return fmt.Errorf("%w: categorical attribute %q", source.ErrUnknownAttribute, k)
		}
	}
	return nil
}
