// Package testutil provides testing utilities for qbucket.
//
// This package is intended for use in tests and benchmarks only.
// It provides fixture datasets, a seeded record generator, and a brute-force
// boundary oracle used as ground truth for index results.
//
// # Random Records
//
//	rng := testutil.NewRNG(seed)
//	records := rng.Records(500, testutil.DefaultSchema())
//
// # Ground Truth
//
//	want := testutil.ExactBoundary(records, "price", filters, 50)
package testutil
