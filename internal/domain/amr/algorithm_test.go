package amr

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrenhollow/recall-api/internal/domain"
)

func newTestItem(t *testing.T) *domain.StudyItem {
	t.Helper()
	item, err := domain.NewStudyItem(uuid.New(), "front", "back")
	require.NoError(t, err, "Failed to create study item")
	return item
}

func TestGradeFreshItem(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	now := time.Now().UTC()

	testCases := []struct {
		name           string
		quality        int
		expectStrength float64
		expectBox      int
	}{
		{
			name:           "blackout collapses strength and resets box",
			quality:        QualityBlackout,
			expectStrength: 0.45,
			expectBox:      1,
		},
		{
			name:           "wrong answer shrinks strength",
			quality:        QualityWrong,
			expectStrength: 0.60,
			expectBox:      1,
		},
		{
			name:           "almost correct still counts as a lapse",
			quality:        QualityAlmost,
			expectStrength: 0.85,
			expectBox:      1,
		},
		{
			name:           "hesitant recall grows strength but holds box",
			quality:        QualityHesitant,
			expectStrength: 1.05,
			expectBox:      1,
		},
		{
			name:           "confident recall grows strength and climbs box",
			quality:        QualityConfident,
			expectStrength: 1.15,
			expectBox:      2,
		},
		{
			name:           "perfect recall earns the additive bonus",
			quality:        QualityPerfect,
			expectStrength: 1.30 + 0.2,
			expectBox:      2,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			item := newTestItem(t)

			updated, err := service.Grade(item, tc.quality, now)
			require.NoError(t, err)

			assert.InDelta(t, tc.expectStrength, updated.Strength, 1e-9)
			assert.Equal(t, tc.expectBox, updated.Box)
			require.NotNil(t, updated.LastReview)
			require.NotNil(t, updated.NextReview)
			assert.True(t, updated.NextReview.After(now))
		})
	}
}

func TestGradeFloorsShortIntervals(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	now := time.Now().UTC()
	item := newTestItem(t)

	// A confident grade on a fresh item yields strength 1.15 and a raw
	// interval of -1.15*ln(0.85) ~= 0.187 days, below the half-day floor.
	updated, err := service.Grade(item, QualityConfident, now)
	require.NoError(t, err)

	gap := updated.NextReview.Sub(now).Hours() / 24
	assert.InDelta(t, 0.5, gap, 1e-9, "interval should be floored at half a day")
}

func TestGradeIntervalAboveFloor(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	now := time.Now().UTC()

	item := newTestItem(t)
	item.Strength = 10.0

	updated, err := service.Grade(item, QualityConfident, now)
	require.NoError(t, err)

	// strength 11.5, interval = -11.5*ln(0.85) ~= 1.869 days
	wantDays := -11.5 * math.Log(0.85)
	gap := updated.NextReview.Sub(now).Hours() / 24
	assert.InDelta(t, wantDays, gap, 1e-9)
}

func TestGradeBoxLadder(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	now := time.Now().UTC()

	testCases := []struct {
		name      string
		box       int
		quality   int
		expectBox int
	}{
		{"confident climbs one tier", 2, QualityConfident, 3},
		{"perfect climbs one tier", 3, QualityPerfect, 4},
		{"top box is capped", domain.BoxCount, QualityPerfect, domain.BoxCount},
		{"lapse resets from the top", domain.BoxCount, QualityBlackout, 1},
		{"lapse resets from the middle", 3, QualityAlmost, 1},
		{"hesitant holds position", 4, QualityHesitant, 4},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			item := newTestItem(t)
			item.Box = tc.box

			updated, err := service.Grade(item, tc.quality, now)
			require.NoError(t, err)
			assert.Equal(t, tc.expectBox, updated.Box)
		})
	}
}

func TestGradeStrengthFloor(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	now := time.Now().UTC()

	item := newTestItem(t)
	item.Strength = 0.15

	// 0.15 * 0.45 = 0.0675, below the floor of 0.1.
	updated, err := service.Grade(item, QualityBlackout, now)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, updated.Strength, 1e-9)
}

func TestGradeAppendsExactlyOneEvent(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	now := time.Now().UTC()
	item := newTestItem(t)

	first, err := service.Grade(item, QualityConfident, now)
	require.NoError(t, err)
	require.Len(t, first.History, 1)

	second, err := service.Grade(first, QualityWrong, now.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, second.History, 2)

	event := second.History[1]
	assert.Equal(t, QualityWrong, event.Quality)
	assert.InDelta(t, first.Strength, event.StrengthBefore, 1e-9)
	assert.InDelta(t, second.Strength, event.StrengthAfter, 1e-9)
	assert.Equal(t, first.Box, event.BoxBefore)
	assert.Equal(t, second.Box, event.BoxAfter)
	assert.Equal(t, *second.NextReview, event.NextReview)
}

func TestGradeDoesNotMutateInput(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	now := time.Now().UTC()

	item := newTestItem(t)
	graded, err := service.Grade(item, QualityConfident, now)
	require.NoError(t, err)

	// The original must be untouched.
	assert.InDelta(t, domain.DefaultStrength, item.Strength, 1e-9)
	assert.Equal(t, 1, item.Box)
	assert.Nil(t, item.LastReview)
	assert.Empty(t, item.History)

	// Appending to the graded item's history must not leak back.
	graded.History[0].Quality = QualityBlackout
	assert.Empty(t, item.History)

	// Identity and content carry over unchanged.
	assert.Equal(t, item.ID, graded.ID)
	assert.Equal(t, item.UserID, graded.UserID)
	assert.Equal(t, item.Front, graded.Front)
	assert.Equal(t, item.Back, graded.Back)
	assert.Equal(t, item.CreatedAt, graded.CreatedAt)
}

func TestGradeRejectsInvalidQuality(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	now := time.Now().UTC()

	for _, quality := range []int{-1, 6, 42} {
		_, err := service.Grade(newTestItem(t), quality, now)
		assert.ErrorIs(t, err, ErrInvalidQuality, "quality %d should be rejected", quality)
	}
}

func TestGradeRejectsCorruptedStrength(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	now := time.Now().UTC()

	for _, strength := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		item := newTestItem(t)
		item.Strength = strength

		_, err := service.Grade(item, QualityConfident, now)
		assert.ErrorIs(t, err, ErrInvalidStrength)
	}
}

func TestGradeNilItem(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()

	_, err := service.Grade(nil, QualityConfident, time.Now().UTC())
	assert.ErrorIs(t, err, ErrNilItem)
}

func TestRetention(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	now := time.Now().UTC()

	t.Run("never-reviewed item has zero retention", func(t *testing.T) {
		t.Parallel()
		r, err := service.Retention(newTestItem(t), now)
		require.NoError(t, err)
		assert.Zero(t, r)
	})

	t.Run("retention is one immediately after review", func(t *testing.T) {
		t.Parallel()
		item := newTestItem(t)
		item.LastReview = &now

		r, err := service.Retention(item, now)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, r, 1e-9)
	})

	t.Run("retention decays monotonically", func(t *testing.T) {
		t.Parallel()
		item := newTestItem(t)
		item.LastReview = &now

		prev := 1.0
		for days := 1; days <= 10; days++ {
			r, err := service.Retention(item, now.Add(time.Duration(days)*24*time.Hour))
			require.NoError(t, err)
			assert.Less(t, r, prev)
			assert.Greater(t, r, 0.0)
			prev = r
		}
	})

	t.Run("matches the forgetting curve", func(t *testing.T) {
		t.Parallel()
		item := newTestItem(t)
		item.Strength = 2.0
		item.LastReview = &now

		r, err := service.Retention(item, now.Add(3*24*time.Hour))
		require.NoError(t, err)
		assert.InDelta(t, math.Exp(-3.0/2.0), r, 1e-9)
	})

	t.Run("future last review clamps to full retention", func(t *testing.T) {
		t.Parallel()
		future := now.Add(time.Hour)
		item := newTestItem(t)
		item.LastReview = &future

		r, err := service.Retention(item, now)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, r, 1e-9)
	})

	t.Run("stronger items retain longer", func(t *testing.T) {
		t.Parallel()
		weak := newTestItem(t)
		weak.Strength = 0.5
		weak.LastReview = &now

		strong := newTestItem(t)
		strong.Strength = 5.0
		strong.LastReview = &now

		later := now.Add(2 * 24 * time.Hour)
		weakR, err := service.Retention(weak, later)
		require.NoError(t, err)
		strongR, err := service.Retention(strong, later)
		require.NoError(t, err)

		assert.Greater(t, strongR, weakR)
	})
}

func TestNextIntervalDays(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()

	t.Run("small strength hits the floor", func(t *testing.T) {
		t.Parallel()
		days, err := service.NextIntervalDays(1.0)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, days, 1e-9)
	})

	t.Run("large strength inverts the curve", func(t *testing.T) {
		t.Parallel()
		days, err := service.NextIntervalDays(20.0)
		require.NoError(t, err)
		assert.InDelta(t, -20.0*math.Log(0.85), days, 1e-9)
	})

	t.Run("rejects non-positive strength", func(t *testing.T) {
		t.Parallel()
		for _, strength := range []float64{0, -2, math.NaN(), math.Inf(-1)} {
			_, err := service.NextIntervalDays(strength)
			assert.ErrorIs(t, err, ErrInvalidStrength)
		}
	})
}
