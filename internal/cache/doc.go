// Package cache provides the bounded LRU cache owned by data sources.
//
// Sources cache filtered partition views and counts keyed by canonical filter
// key. A cache lives exactly as long as the source that owns it; source data is
// immutable, so entries never need invalidation.
package cache
