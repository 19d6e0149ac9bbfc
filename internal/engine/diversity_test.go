package engine

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spuriolabs/spurio/internal/models"
)

func namedPool(names ...string) models.Pool {
	pool := make(models.Pool, len(names))
	for i, name := range names {
		pool[i] = models.Series{Name: name}
	}
	return pool
}

func TestNewDiversityTracker_Defaults(t *testing.T) {
	tracker := NewDiversityTracker(0, -1)
	assert.Equal(t, 100, tracker.windowSize)
	assert.Equal(t, 2, tracker.maxReuse)
}

func TestDiversityTracker_RecordAndIsRecent(t *testing.T) {
	tracker := NewDiversityTracker(10, 2)

	assert.False(t, tracker.IsRecent("alpha", "beta"))

	tracker.Record("alpha", "beta")

	// Pair identity ignores argument order.
	assert.True(t, tracker.IsRecent("alpha", "beta"))
	assert.True(t, tracker.IsRecent("beta", "alpha"))
	assert.False(t, tracker.IsRecent("alpha", "gamma"))

	assert.Equal(t, 1, tracker.WindowLen())
	assert.Equal(t, 1, tracker.UsageCount("alpha"))
	assert.Equal(t, 1, tracker.UsageCount("beta"))
	assert.Equal(t, 0, tracker.UsageCount("gamma"))
}

func TestDiversityTracker_WindowEviction(t *testing.T) {
	tracker := NewDiversityTracker(3, 10)

	tracker.Record("a", "b")
	tracker.Record("c", "d")
	tracker.Record("e", "f")
	assert.True(t, tracker.IsRecent("a", "b"))

	// A fourth pair pushes the oldest out.
	tracker.Record("g", "h")
	assert.False(t, tracker.IsRecent("a", "b"))
	assert.True(t, tracker.IsRecent("c", "d"))
	assert.Equal(t, 3, tracker.WindowLen())
}

func TestDiversityTracker_Filter_AllFresh(t *testing.T) {
	tracker := NewDiversityTracker(10, 2)
	pool := namedPool("a", "b", "c")

	filtered := tracker.Filter(pool)
	assert.Equal(t, pool, filtered)
}

func TestDiversityTracker_Filter_DropsOverusedWhenEnoughFresh(t *testing.T) {
	tracker := NewDiversityTracker(100, 2)

	// Burn out two series, leave six fresh.
	tracker.Record("worn1", "worn2")
	tracker.Record("worn1", "worn2")

	pool := namedPool("worn1", "f1", "f2", "worn2", "f3", "f4", "f5", "f6")
	filtered := tracker.Filter(pool)

	assert.Equal(t, namedPool("f1", "f2", "f3", "f4", "f5", "f6"), filtered)
}

func TestDiversityTracker_Filter_FreshSortAheadWhenFewFresh(t *testing.T) {
	tracker := NewDiversityTracker(100, 2)

	tracker.Record("worn1", "worn2")
	tracker.Record("worn1", "worn2")

	// Three fresh series: below the drop threshold, above starvation.
	pool := namedPool("worn1", "f1", "worn2", "f2", "f3")
	filtered := tracker.Filter(pool)

	assert.Len(t, filtered, 5)
	assert.Equal(t, namedPool("f1", "f2", "f3", "worn1", "worn2"), filtered)
}

func TestDiversityTracker_Filter_ResetsWhenStarved(t *testing.T) {
	tracker := NewDiversityTracker(100, 2)

	for _, pair := range [][2]string{{"a", "b"}, {"a", "c"}, {"b", "c"}, {"d", "a"}, {"d", "b"}} {
		tracker.Record(pair[0], pair[1])
	}
	assert.GreaterOrEqual(t, tracker.UsageCount("a"), 2)

	// Only one fresh series left: the cool-down expires instead of starving
	// the search, and the pool passes through untouched.
	pool := namedPool("a", "b", "c", "d", "e")
	filtered := tracker.Filter(pool)

	assert.Equal(t, pool, filtered)
	assert.Equal(t, 0, tracker.UsageCount("a"))
	assert.Equal(t, 0, tracker.UsageCount("b"))
	assert.Equal(t, 0, tracker.UsageCount("c"))
	assert.Equal(t, 0, tracker.UsageCount("d"))
}

func TestDiversityTracker_Filter_NeverStarvesThePool(t *testing.T) {
	// Whatever the usage history, a pool with at least two series filters to
	// a pool with at least two series.
	rng := rand.New(rand.NewSource(99))
	tracker := NewDiversityTracker(50, 2)

	names := make([]string, 8)
	for i := range names {
		names[i] = fmt.Sprintf("s%d", i)
	}
	pool := namedPool(names...)

	for round := 0; round < 200; round++ {
		i, j := rng.Intn(len(names)), rng.Intn(len(names))
		if i == j {
			continue
		}
		tracker.Record(names[i], names[j])

		filtered := tracker.Filter(pool)
		assert.GreaterOrEqual(t, len(filtered), 2, "round %d", round)
	}
}
