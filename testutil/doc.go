// Package testutil provides helpers for celldb tests and benchmarks.
//
//	rng := testutil.NewRNG(4711)
//	samples := rng.SparseSamples(100, 50, 0.2, 0.1) // 20% measured, 10% of those exactly 0
//
// ScenarioSamples returns the small three-sample dataset used as a
// cross-package reference case.
package testutil
