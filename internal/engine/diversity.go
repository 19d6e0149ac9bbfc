package engine

import "github.com/spuriolabs/spurio/internal/models"

const (
	// freshTarget is the fresh-series count above which overused series are
	// dropped from the pool entirely.
	freshTarget = 5
	// minFresh is the fresh-series count below which the cool-down expires:
	// overused counters reset and the whole pool is returned.
	minFresh = 2
)

// pairKey is an unordered series pair in canonical order.
type pairKey struct {
	a, b string
}

func newPairKey(x, y string) pairKey {
	if y < x {
		x, y = y, x
	}
	return pairKey{a: x, b: y}
}

// DiversityTracker remembers which pairs and series were recently shown so
// the same correlation is not surfaced over and over. It keeps a bounded FIFO
// window of the last unordered pairs plus a usage counter per series name.
//
// The tracker is not safe for concurrent use on its own; the engine
// serializes access to it.
type DiversityTracker struct {
	windowSize int
	maxReuse   int
	window     []pairKey
	usage      map[string]int
}

// NewDiversityTracker creates a tracker with the given FIFO window size and
// per-series reuse cap. Non-positive arguments fall back to 100 and 2.
func NewDiversityTracker(windowSize, maxReuse int) *DiversityTracker {
	if windowSize <= 0 {
		windowSize = 100
	}
	if maxReuse <= 0 {
		maxReuse = 2
	}
	return &DiversityTracker{
		windowSize: windowSize,
		maxReuse:   maxReuse,
		usage:      make(map[string]int),
	}
}

// Filter returns a sub-pool favoring series used fewer than maxReuse times.
// With enough fresh series only those are kept; when almost everything is
// overused the cool-down expires (counters reset) and the pool passes through
// unchanged; in between, fresh series sort ahead of overused ones.
func (dt *DiversityTracker) Filter(pool models.Pool) models.Pool {
	fresh := make(models.Pool, 0, len(pool))
	overused := make(models.Pool, 0, len(pool))
	for _, s := range pool {
		if dt.usage[s.Name] < dt.maxReuse {
			fresh = append(fresh, s)
		} else {
			overused = append(overused, s)
		}
	}

	if len(fresh) >= freshTarget {
		return fresh
	}
	if len(fresh) < minFresh {
		for _, s := range overused {
			dt.usage[s.Name] = 0
		}
		return pool
	}
	return append(fresh, overused...)
}

// IsRecent reports whether the unordered pair sits in the FIFO window.
func (dt *DiversityTracker) IsRecent(nameA, nameB string) bool {
	key := newPairKey(nameA, nameB)
	for _, k := range dt.window {
		if k == key {
			return true
		}
	}
	return false
}

// Record pushes the unordered pair into the window, evicting the oldest entry
// past capacity, and bumps both series' usage counters.
func (dt *DiversityTracker) Record(nameA, nameB string) {
	dt.window = append(dt.window, newPairKey(nameA, nameB))
	if len(dt.window) > dt.windowSize {
		dt.window = dt.window[1:]
	}
	dt.usage[nameA]++
	dt.usage[nameB]++
}

// WindowLen returns the number of pairs currently remembered.
func (dt *DiversityTracker) WindowLen() int {
	return len(dt.window)
}

// UsageCount returns how many accepted results the series appeared in since
// its last cool-down reset.
func (dt *DiversityTracker) UsageCount(name string) int {
	return dt.usage[name]
}

// TrackedSeries returns the number of series with a usage counter.
func (dt *DiversityTracker) TrackedSeries() int {
	return len(dt.usage)
}
