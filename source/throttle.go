package source

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/hupe1980/qbucket/filter"
)

// Throttled wraps a Source and limits the rate of calls reaching it.
// Useful for remote backends with request quotas.
type Throttled struct {
	src     Source
	limiter *rate.Limiter
}

// Throttle returns src wrapped in a limiter allowing limit calls per second with
// the given burst. A non-positive limit disables throttling and returns src.
func Throttle(src Source, limit float64, burst int) Source {
	if limit <= 0 {
		return src
	}
	if burst <= 0 {
		burst = 1
	}
	return &Throttled{
		src:     src,
		limiter: rate.NewLimiter(rate.Limit(limit), burst),
	}
}

// Count implements Source.
func (t *Throttled) Count(ctx context.Context, attribute string, filters filter.Set) (int, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	return t.src.Count(ctx, attribute, filters)
}

// ValueAt implements Source.
func (t *Throttled) ValueAt(ctx context.Context, attribute string, rank int, filters filter.Set) (float64, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	return t.src.ValueAt(ctx, attribute, rank, filters)
}
