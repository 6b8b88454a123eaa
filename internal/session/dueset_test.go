package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrenhollow/recall-api/internal/domain"
)

func newItem(t *testing.T) *domain.StudyItem {
	t.Helper()
	item, err := domain.NewStudyItem(uuid.New(), "front", "back")
	require.NoError(t, err, "Failed to create study item")
	return item
}

func scheduledItem(t *testing.T, next time.Time) *domain.StudyItem {
	t.Helper()
	item := newItem(t)
	last := next.Add(-24 * time.Hour)
	item.LastReview = &last
	item.NextReview = &next
	return item
}

func TestDueItems(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()

	t.Run("new items are always due", func(t *testing.T) {
		t.Parallel()
		items := []*domain.StudyItem{newItem(t), newItem(t)}
		assert.Len(t, DueItems(items, now), 2)
	})

	t.Run("future items are excluded", func(t *testing.T) {
		t.Parallel()
		overdue := scheduledItem(t, now.Add(-time.Hour))
		exactlyDue := scheduledItem(t, now)
		future := scheduledItem(t, now.Add(time.Hour))

		due := DueItems([]*domain.StudyItem{overdue, future, exactlyDue}, now)
		require.Len(t, due, 2)
		assert.Same(t, overdue, due[0])
		assert.Same(t, exactlyDue, due[1])
	})

	t.Run("preserves source order", func(t *testing.T) {
		t.Parallel()
		a := newItem(t)
		b := scheduledItem(t, now.Add(-2*time.Hour))
		c := newItem(t)

		due := DueItems([]*domain.StudyItem{a, b, c}, now)
		require.Len(t, due, 3)
		assert.Same(t, a, due[0])
		assert.Same(t, b, due[1])
		assert.Same(t, c, due[2])
	})

	t.Run("empty collection yields empty due set", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, DueItems(nil, now))
	})
}

func TestCollectStats(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()

	fresh := newItem(t)

	learning := scheduledItem(t, now.Add(48*time.Hour))
	learning.Box = 3

	mastered := scheduledItem(t, now.Add(72*time.Hour))
	mastered.Box = domain.BoxCount

	lapsedDue := scheduledItem(t, now.Add(-time.Hour))
	lapsedDue.Box = 2

	stats := CollectStats([]*domain.StudyItem{fresh, learning, mastered, lapsedDue}, now)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Due) // fresh + lapsedDue
	assert.Equal(t, 1, stats.Mastered)
	assert.Equal(t, 2, stats.Learning) // learning + lapsedDue
}

func TestCollectStatsEmpty(t *testing.T) {
	t.Parallel()
	stats := CollectStats(nil, time.Now().UTC())
	assert.Equal(t, Stats{}, stats)
}
