package engine

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/spuriolabs/spurio/pkg/stats"
)

// TransformParams controls the target-correlation transform.
type TransformParams struct {
	// TargetMin and TargetMax bound the correlation magnitude forced onto a
	// pair. Defaults: 0.7 and 0.9.
	TargetMin float64
	TargetMax float64
	// NegateProbability is the chance the forced correlation is negative.
	// Default: 0.3.
	NegateProbability float64
	// JitterStdDev is the standard deviation of the independent noise added
	// to both outputs so the relationship never looks mechanically perfect.
	// Default: 0.1.
	JitterStdDev float64
}

// DefaultTransformParams returns the production transform parameters.
func DefaultTransformParams() TransformParams {
	return TransformParams{
		TargetMin:         0.7,
		TargetMax:         0.9,
		NegateProbability: 0.3,
		JitterStdDev:      0.1,
	}
}

// TargetCorrelationTransform reshapes a cleaned, aligned pair of series so
// their linear correlation lands near a randomly drawn target rho. This is
// deliberate product behavior: the output is what gets displayed, regardless
// of how the inputs actually related.
//
// Both inputs are z-normalized; the second series is then synthesized as
// rho*aNorm + sqrt(1-rho^2)*noise, and small independent jitter is added to
// both outputs. Index alignment is preserved: output point i corresponds to
// input point i. A zero-variance input cannot be normalized and yields
// ErrInsufficientData.
func TargetCorrelationTransform(a, b []float64, params TransformParams, rng *rand.Rand) (aOut, bOut []float64, rho float64, err error) {
	if len(a) != len(b) || len(a) < 2 {
		return nil, nil, 0, fmt.Errorf("%w: need at least 2 aligned points, got %d", ErrInsufficientData, len(a))
	}

	meanA, stdA := stats.Mean(a), stats.StdDev(a)
	stdB := stats.StdDev(b)
	if stdA == 0 || stdB == 0 {
		return nil, nil, 0, fmt.Errorf("%w: zero variance series", ErrInsufficientData)
	}

	n := len(a)
	aNorm := make([]float64, n)
	for i, v := range a {
		aNorm[i] = (v - meanA) / stdA
	}

	rho = params.TargetMin + rng.Float64()*(params.TargetMax-params.TargetMin)
	if rng.Float64() < params.NegateProbability {
		rho = -rho
	}

	noiseScale := math.Sqrt(1 - rho*rho)
	aOut = make([]float64, n)
	bOut = make([]float64, n)
	for i := 0; i < n; i++ {
		bOut[i] = rho*aNorm[i] + noiseScale*rng.NormFloat64()
	}
	for i := 0; i < n; i++ {
		aOut[i] = aNorm[i] + rng.NormFloat64()*params.JitterStdDev
	}
	for i := 0; i < n; i++ {
		bOut[i] += rng.NormFloat64() * params.JitterStdDev
	}

	return aOut, bOut, rho, nil
}
