package engine

import "errors"

var (
	// ErrNoCorrelation is the terminal empty outcome: the pool was too small,
	// the provider failed, or no pair cleared the acceptance thresholds.
	// Callers should treat it as "try again later", not as a fault.
	ErrNoCorrelation = errors.New("no correlation found")

	// ErrInsufficientData marks a pair that cannot be analyzed: fewer than two
	// aligned points, or a zero-variance series. Always recovered as a skip.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrUnknownMethod reports an unsupported correlation method. Unlike the
	// other two this is a configuration mistake and is surfaced to the caller.
	ErrUnknownMethod = errors.New("unknown correlation method")
)
