package indexer

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/qbucket/filter"
	"github.com/hupe1980/qbucket/index"
	"github.com/hupe1980/qbucket/source"
)

// builder holds the state shared by the tasks of one build.
type builder struct {
	src         source.Source
	gap         int
	categorical []string
	values      map[string][]string

	mu        sync.Mutex
	entries   index.Map
	claimed   map[string]struct{}
	skipped   int
	revisited int
	queries   int
}

// expand stores the list for filters once depth is exhausted or every
// categorical attribute is bound, and otherwise branches on each unbound
// attribute and value.
func (b *builder) expand(ctx context.Context, attribute string, depth int, filters filter.Set) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth <= 0 || filters.Len() == len(b.categorical) {
		return b.store(ctx, attribute, filters)
	}

	for _, c := range b.categorical {
		if filters.Has(c) {
			continue
		}
		for _, v := range b.values[c] {
			if err := b.expand(ctx, attribute, depth-1, filters.With(c, v)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) store(ctx context.Context, attribute string, filters filter.Set) error {
	key := filter.CanonicalKey(attribute, filters)

	b.mu.Lock()
	if _, ok := b.claimed[key]; ok {
		b.revisited++
		b.mu.Unlock()
		return nil
	}
	b.claimed[key] = struct{}{}
	b.mu.Unlock()

	list, queries, err := quantiles(ctx, b.src, b.gap, attribute, filters)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.queries += queries
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if list == nil {
		b.skipped++
		return nil
	}
	b.entries[key] = list
	return nil
}

// quantiles computes the boundary list of (attribute, filters). It returns a
// nil list for an empty partition.
func quantiles(ctx context.Context, src source.Source, gap int, attribute string, filters filter.Set) (index.QuantileList, int, error) {
	total, err := src.Count(ctx, attribute, filters)
	queries := 1
	if err != nil {
		return nil, queries, err
	}
	if total <= 0 {
		return nil, queries, nil
	}

	list := make(index.QuantileList, index.ListLen(gap))
	for i := range list {
		percentile := i * gap
		rank := min(percentile*total/100, total-1)

		v, err := src.ValueAt(ctx, attribute, rank, filters)
		queries++
		if err != nil {
			return nil, queries, err
		}
		list[i] = v
	}
	return list, queries, nil
}
