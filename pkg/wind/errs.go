package wind

import "errors"

var (
	// ErrDomain indicates an input outside the mathematical domain of a law,
	// e.g. a height at or below the roughness length or a negative wind speed.
	ErrDomain = errors.New("wind: value outside domain")

	// ErrInvalidParameter indicates a non-physical configuration value such as
	// a non-positive mean speed, height or sampling interval.
	ErrInvalidParameter = errors.New("wind: invalid parameter")

	// ErrInsufficientData indicates a statistical fit without enough spread
	// (fewer than two samples or zero variance).
	ErrInsufficientData = errors.New("wind: insufficient data")

	// ErrUnknownModel indicates a model, variant or terrain name that is not
	// part of the closed set.
	ErrUnknownModel = errors.New("wind: unknown model")

	// ErrEmptySeries indicates an aggregation over an empty series.
	ErrEmptySeries = errors.New("wind: empty series")
)
