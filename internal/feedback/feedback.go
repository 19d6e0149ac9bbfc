// Package feedback accumulates audience ratings of displayed correlations
// and turns them into priority scores for the engine. Scores reorder dataset
// pools, they never filter them, so a broken store degrades to neutral
// scoring instead of blocking generation.
package feedback

import (
	"errors"

	"github.com/spuriolabs/spurio/internal/models"
)

// ErrUnknownRating is returned when a rating value is not one of the
// accepted verdicts.
var ErrUnknownRating = errors.New("unknown feedback rating")

// DefaultPriorityThreshold separates prioritized datasets from the rest when
// no threshold is configured.
const DefaultPriorityThreshold = 0.5

// Input carries one rating application. Series names come from the stored
// correlation record, not from the client.
type Input struct {
	CorrelationID string
	Rating        models.FeedbackRating
	SeriesA       string
	SeriesB       string
}

// canonicalPair orders two series names so that (a, b) and (b, a) share one
// pair score row.
func canonicalPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}
