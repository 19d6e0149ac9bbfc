package engine

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/spuriolabs/spurio/internal/models"
)

// PairAnalyzer turns two aligned series into a correlation record. It owns no
// state across calls; randomness comes from the caller's generator so results
// are reproducible under a seeded source.
type PairAnalyzer struct {
	params TransformParams
}

// NewPairAnalyzer creates an analyzer with the given transform parameters.
// Zero-valued params are replaced by the defaults.
func NewPairAnalyzer(params TransformParams) *PairAnalyzer {
	if params == (TransformParams{}) {
		params = DefaultTransformParams()
	}
	return &PairAnalyzer{params: params}
}

// Analyze cleans the pair, applies the target-correlation transform and
// computes the requested statistic on the transformed values. The returned
// record carries the transformed points: they are the displayed data, the
// originals are discarded. Returns ErrInsufficientData when fewer than two
// positions hold values on both sides or a side has zero variance, and
// ErrUnknownMethod for an unsupported method.
func (pa *PairAnalyzer) Analyze(a, b models.Series, method Method, rng *rand.Rand) (*models.CorrelationRecord, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}

	timestamps, valuesA, valuesB := cleanPair(a, b)
	if len(valuesA) < 2 {
		return nil, fmt.Errorf("%w: %d usable points for %q / %q", ErrInsufficientData, len(valuesA), a.Name, b.Name)
	}

	transformedA, transformedB, _, err := TargetCorrelationTransform(valuesA, valuesB, pa.params, rng)
	if err != nil {
		return nil, err
	}

	coefficient, pValue, err := correlate(method, transformedA, transformedB)
	if err != nil {
		return nil, err
	}

	record := &models.CorrelationRecord{
		ID:          uuid.New().String(),
		NameA:       a.Name,
		NameB:       b.Name,
		Coefficient: coefficient,
		PValue:      pValue,
		PointsA:     makePoints(timestamps, transformedA),
		PointsB:     makePoints(timestamps, transformedB),
		SourceA:     a.Source,
		SourceB:     b.Source,
		Method:      string(method),
		CreatedAt:   time.Now().UTC(),
	}
	return record, nil
}

// cleanPair walks both series position by position and keeps only the
// positions where both sides hold a finite value. Inputs are expected to be
// aligned already; a length mismatch is treated as extra unusable tail.
func cleanPair(a, b models.Series) ([]time.Time, []float64, []float64) {
	n := len(a.Points)
	if len(b.Points) < n {
		n = len(b.Points)
	}

	timestamps := make([]time.Time, 0, n)
	valuesA := make([]float64, 0, n)
	valuesB := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if a.Points[i].Missing() || b.Points[i].Missing() {
			continue
		}
		timestamps = append(timestamps, a.Points[i].Timestamp)
		valuesA = append(valuesA, a.Points[i].Value)
		valuesB = append(valuesB, b.Points[i].Value)
	}
	return timestamps, valuesA, valuesB
}

func makePoints(timestamps []time.Time, values []float64) []models.SeriesPoint {
	points := make([]models.SeriesPoint, len(values))
	for i := range values {
		points[i] = models.SeriesPoint{Timestamp: timestamps[i], Value: values[i]}
	}
	return points
}
