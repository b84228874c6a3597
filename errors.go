package bo

import "errors"

//////
// Errors returned by constructors and the optimization loop. Programmer
// errors on hot paths (dimension mismatches inside Emplace or Predict, log of
// a non-positive value) panic instead.
//////

var (
	// ErrInvalidBandwidth is returned when a kernel bandwidth is not strictly
	// positive.
	ErrInvalidBandwidth = errors.New("kernel bandwidth must be positive")

	// ErrDimensionMismatch is returned when inputs, kernel, domain or start
	// point disagree on the number of dimensions.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidRange is returned when a parameter range has Min >= Max or a
	// non-finite bound.
	ErrInvalidRange = errors.New("invalid parameter range")

	// ErrInvalidConfig is returned when a configuration value is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNonFiniteObjective is returned when the objective evaluates to NaN
	// or an infinity. The offending point is not inserted into the model.
	ErrNonFiniteObjective = errors.New("objective returned a non-finite value")
)
