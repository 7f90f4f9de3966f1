// Package model defines core types shared by the postcode index packages.
//
// # Identity Types
//
//   - PointID: dense, 0-based index into a section's point table (uint32)
//
// # Data Types
//
//   - Point: decoded geographic coordinate (longitude, latitude in degrees)
//   - TokenSlice: normalized query tokens plus the "last token is a prefix" flag
//
// Build a slice for a fully typed postcode:
//
//	ts := model.NewTokenSlice([]string{"aa11", "0"}, false)
//
// or for incremental (autocomplete) input:
//
//	ts := model.NewTokenSlice([]string{"aa1"}, true)
package model
