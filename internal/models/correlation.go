package models

import "time"

// CorrelationRecord is the immutable result of one accepted pair. It carries
// the transformed values (the ones displayed to users), not the provider's
// originals, together with provenance for both inputs. Records are created
// once, never mutated, and live in the result cache until TTL eviction.
type CorrelationRecord struct {
	ID            string        `json:"id"`
	NameA         string        `json:"name_a"`
	NameB         string        `json:"name_b"`
	Coefficient   float64       `json:"coefficient"`
	PValue        float64       `json:"p_value"`
	PointsA       []SeriesPoint `json:"points_a"`
	PointsB       []SeriesPoint `json:"points_b"`
	SourceA       Provenance    `json:"source_a"`
	SourceB       Provenance    `json:"source_b"`
	DatasetIndexA int           `json:"dataset_index_a"`
	DatasetIndexB int           `json:"dataset_index_b"`
	Method        string        `json:"method"`
	CreatedAt     time.Time     `json:"created_at"`
}

// SampleSize returns the number of aligned points behind the coefficient.
func (r *CorrelationRecord) SampleSize() int {
	return len(r.PointsA)
}

// ChartDataset is one drawable line in a chart payload.
type ChartDataset struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// ChartData is the payload for re-rendering a stored record as a chart:
// the two transformed series, smoothed overlays, and the least-squares
// trend of series B against series A.
type ChartData struct {
	CorrelationID string         `json:"correlation_id"`
	Labels        []string       `json:"labels"`
	Datasets      []ChartDataset `json:"datasets"`
	TrendSlope    float64        `json:"trend_slope"`
	TrendOffset   float64        `json:"trend_offset"`
	Coefficient   float64        `json:"coefficient"`
	PValue        float64        `json:"p_value"`
}
