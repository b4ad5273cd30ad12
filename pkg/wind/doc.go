// Package wind holds the data model shared by the modeling packages:
// point observations, terrain descriptions and the error taxonomy.
//
// Every component in this module either returns a complete result or one of
// the sentinel errors in errs.go wrapped with context, so callers can branch
// with errors.Is:
//
//	ErrDomain           : input outside the law's domain (h <= z0, v < 0)
//	ErrInvalidParameter : non-physical configuration (v̄ <= 0, dt <= 0)
//	ErrInsufficientData : fit with < 2 samples or zero variance
//	ErrUnknownModel     : name outside a closed set of variants
//	ErrEmptySeries      : aggregation over zero samples
//
// Terrain classes are exposed as an immutable table (see DefaultTerrains)
// that is passed to the components which need it.
package wind
