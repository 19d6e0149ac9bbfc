package models

import (
	"math"
	"time"
)

// SeriesPoint is a single observation in a time series. A NaN value marks a
// missing observation; providers keep the point so that alignment by timestamp
// stays possible.
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Missing reports whether the point carries no usable value.
func (p SeriesPoint) Missing() bool {
	return math.IsNaN(p.Value) || math.IsInf(p.Value, 0)
}

// Provenance identifies where a series came from.
type Provenance struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

// Series is a named, timestamp-ordered sequence of numeric samples.
// Timestamps are strictly increasing; values may be missing (NaN).
type Series struct {
	Name   string        `json:"name"`
	Points []SeriesPoint `json:"points"`
	Source Provenance    `json:"source"`
}

// Len returns the number of points, missing ones included.
func (s Series) Len() int {
	return len(s.Points)
}

// Values returns the raw values in timestamp order.
func (s Series) Values() []float64 {
	values := make([]float64, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Value
	}
	return values
}

// Pool is an ordered snapshot of the series available to the engine at one
// point in time. Names are unique within a snapshot; the position of a series
// in the pool is the dataset index reported on correlation records.
type Pool []Series

// Names returns the series names in pool order.
func (p Pool) Names() []string {
	names := make([]string, len(p))
	for i, s := range p {
		names[i] = s.Name
	}
	return names
}

// ByName returns the series with the given name, or false when absent.
func (p Pool) ByName(name string) (Series, bool) {
	for _, s := range p {
		if s.Name == name {
			return s, true
		}
	}
	return Series{}, false
}
