// Package testutil provides testing utilities for the postcode index.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random postcodes and points and a
// brute-force oracle to check index lookups against.
//
// # Random Data Generation
//
//	rng := testutil.NewRNG(seed)
//	p := rng.Point()                   // uniform over the valid lon/lat range
//	outward, inward := rng.Postcode()  // e.g. "kt19", "8ab"
//
// # Oracle
//
//	o := testutil.NewOracle()
//	o.Add([]string{"aa11", "0"}, 0)
//	ids := o.Match(tokens, lastIsPrefix)
package testutil
