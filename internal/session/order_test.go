package session

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrenhollow/recall-api/internal/domain"
)

func TestOrderControllerSequential(t *testing.T) {
	t.Parallel()
	c := NewOrderController(3)

	assert.False(t, c.Shuffled())

	// Sequential traversal wraps around.
	want := []int{0, 1, 2, 0, 1}
	for _, expected := range want {
		idx, err := c.Next()
		require.NoError(t, err)
		assert.Equal(t, expected, idx)
		c.Advance()
	}
}

func TestOrderControllerEmpty(t *testing.T) {
	t.Parallel()
	c := NewOrderController(0)

	_, err := c.Next()
	assert.ErrorIs(t, err, ErrEmptyDueSet)

	err = c.Shuffle()
	assert.ErrorIs(t, err, ErrEmptyDueSet)
	assert.False(t, c.Shuffled())

	// Advancing an empty controller is a no-op, not a panic.
	c.Advance()
}

func TestOrderControllerShufflePermutation(t *testing.T) {
	t.Parallel()
	const size = 10
	c := NewOrderController(size)
	c.intN = rand.New(rand.NewSource(7)).Intn

	require.NoError(t, c.Shuffle())
	assert.True(t, c.Shuffled())

	// One pass visits every index exactly once.
	seen := make(map[int]bool, size)
	for i := 0; i < size; i++ {
		idx, err := c.Next()
		require.NoError(t, err)
		assert.False(t, seen[idx], "index %d shown twice in one pass", idx)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, size)
		seen[idx] = true
		c.Advance()
	}
	assert.Len(t, seen, size)
}

func TestOrderControllerShuffleExhaustionReturnsToSequential(t *testing.T) {
	t.Parallel()
	c := NewOrderController(4)
	c.intN = rand.New(rand.NewSource(1)).Intn

	require.NoError(t, c.Shuffle())
	for i := 0; i < 4; i++ {
		_, err := c.Next()
		require.NoError(t, err)
		c.Advance()
	}

	// The pass is exhausted: back to Sequential from the start.
	assert.False(t, c.Shuffled())
	idx, err := c.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestOrderControllerReshuffleRestartsPass(t *testing.T) {
	t.Parallel()
	c := NewOrderController(5)
	c.intN = rand.New(rand.NewSource(3)).Intn

	require.NoError(t, c.Shuffle())
	c.Advance()
	c.Advance()

	// Reshuffling mid-pass resets the cursor to a fresh full pass.
	require.NoError(t, c.Shuffle())
	seen := make(map[int]bool, 5)
	for i := 0; i < 5; i++ {
		idx, err := c.Next()
		require.NoError(t, err)
		seen[idx] = true
		c.Advance()
	}
	assert.Len(t, seen, 5)
}

func TestOrderControllerShuffleUniformity(t *testing.T) {
	t.Parallel()

	// With a fixed seed, every one of the 6 permutations of 3 elements
	// should appear with roughly equal frequency.
	src := rand.New(rand.NewSource(42))
	counts := make(map[[3]int]int)
	const trials = 6000

	for i := 0; i < trials; i++ {
		c := NewOrderController(3)
		c.intN = src.Intn
		require.NoError(t, c.Shuffle())

		var p [3]int
		for j := 0; j < 3; j++ {
			idx, err := c.Next()
			require.NoError(t, err)
			p[j] = idx
			c.Advance()
		}
		counts[p]++
	}

	require.Len(t, counts, 6, "all permutations should occur")
	for p, n := range counts {
		// Expected 1000 per permutation; allow a wide statistical margin.
		assert.InDelta(t, trials/6, n, 200, "permutation %v is over- or under-represented", p)
	}
}

func TestSnapshotTraversal(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()

	a := newItem(t)
	b := scheduledItem(t, now.Add(time.Hour)) // not due
	c := newItem(t)

	snap := NewSnapshot([]*domain.StudyItem{a, b, c}, now)
	require.Equal(t, 2, snap.Size())
	assert.Equal(t, now, snap.TakenAt())
	assert.False(t, snap.Shuffled())

	current, err := snap.Current()
	require.NoError(t, err)
	assert.Same(t, a, current)

	snap.Advance()
	current, err = snap.Current()
	require.NoError(t, err)
	assert.Same(t, c, current)
}

func TestSnapshotEmpty(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	snap := NewSnapshot([]*domain.StudyItem{scheduledItem(t, now.Add(time.Hour))}, now)

	assert.Zero(t, snap.Size())
	_, err := snap.Current()
	assert.ErrorIs(t, err, ErrEmptyDueSet)
	assert.ErrorIs(t, snap.Shuffle(), ErrEmptyDueSet)
}

func TestSnapshotShuffledPassVisitsEveryDueItem(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()

	items := make([]*domain.StudyItem, 6)
	for i := range items {
		items[i] = newItem(t)
	}

	snap := NewSnapshot(items, now)
	require.NoError(t, snap.Shuffle())
	assert.True(t, snap.Shuffled())

	seen := make(map[*domain.StudyItem]bool, len(items))
	for i := 0; i < len(items); i++ {
		current, err := snap.Current()
		require.NoError(t, err)
		seen[current] = true
		snap.Advance()
	}
	assert.Len(t, seen, len(items))

	// Exhausting the pass drops back to sequential order.
	assert.False(t, snap.Shuffled())
}
