package amr

import (
	"math"
	"time"

	"github.com/wrenhollow/recall-api/internal/domain"
)

// Quality grades are integer self-assessments supplied at review time.
// 0 is a total blackout, 5 is perfect recall; 3 is the neutral grade that
// leaves the mastery box unchanged.
const (
	QualityBlackout  = 0
	QualityWrong     = 1
	QualityAlmost    = 2
	QualityHesitant  = 3
	QualityConfident = 4
	QualityPerfect   = 5
)

// epsilon guards the retention division against a zero strength. Stored
// strength can never legitimately reach zero, but the model must not be the
// place that turns corrupted state into NaN.
const epsilon = 1e-6

// hoursPerDay converts fractional day intervals into time.Duration.
const hoursPerDay = 24.0

// retention computes the predicted recall probability for an item at the
// given instant using an exponential forgetting curve.
//
// An item that has never been reviewed has retention 0 by definition.
// Otherwise retention is exp(-Δt / max(ε, strength)) where Δt is the elapsed
// time in days since the last review. Retention decays monotonically with
// elapsed time and decays slower for larger strength. Negative elapsed time
// (clock skew, imported history with future timestamps) is clamped to zero
// so retention never exceeds 1.
func retention(item *domain.StudyItem, now time.Time, params *Params) float64 {
	if item.LastReview == nil {
		return 0
	}

	elapsedDays := now.Sub(*item.LastReview).Hours() / hoursPerDay
	if elapsedDays < 0 {
		elapsedDays = 0
	}

	return math.Exp(-elapsedDays / math.Max(epsilon, item.Strength))
}

// nextIntervalDays computes the elapsed time, in days, at which predicted
// retention falls to the configured target probability. It inverts the
// exponential forgetting curve: interval = -strength * ln(target), floored
// at MinIntervalDays to prevent same-day repeats when strength is small.
//
// The caller guarantees strength > 0; the AMR transition floors strength on
// every update, so this function never sees a non-positive value.
func nextIntervalDays(strength float64, params *Params) float64 {
	interval := -strength * math.Log(params.RetentionTarget)
	return math.Max(interval, params.MinIntervalDays)
}

// nextStrength applies the quality multiplier to the current strength,
// adds the perfect-recall bonus when earned, and floors the result.
func nextStrength(current float64, quality int, params *Params) float64 {
	strength := math.Max(params.StrengthFloor, current*params.QualityMultiplier[quality])
	if quality == QualityPerfect {
		strength += params.PerfectRecallBonus
	}
	return strength
}

// nextBox computes the new mastery tier for a grade. Confident recall
// (quality >= 4) climbs one box, capped at BoxCount; failure or low
// confidence (quality <= 2) resets to box 1; quality 3 holds position.
// The box ladder is a coarse progress signal independent of the continuous
// strength value.
func nextBox(current, quality int) int {
	switch {
	case quality >= QualityConfident:
		if current >= domain.BoxCount {
			return domain.BoxCount
		}
		return current + 1
	case quality <= QualityAlmost:
		return 1
	default:
		return current
	}
}

// gradeItem applies one quality grade to an item, producing a new item with
// updated strength, box, schedule, and exactly one appended history event.
//
// The update is immutable: the input item is never modified. The returned
// item shares no mutable state with the input (the history slice is copied
// before appending). Front, back, ID, user ID, and creation time carry over
// untouched.
func gradeItem(item *domain.StudyItem, quality int, now time.Time, params *Params) *domain.StudyItem {
	newStrength := nextStrength(item.Strength, quality, params)
	newBox := nextBox(item.Box, quality)

	interval := nextIntervalDays(newStrength, params)
	reviewedAt := now
	nextReview := now.Add(time.Duration(interval * hoursPerDay * float64(time.Hour)))

	event := domain.ReviewEvent{
		Timestamp:      now,
		Quality:        quality,
		StrengthBefore: item.Strength,
		StrengthAfter:  newStrength,
		BoxBefore:      item.Box,
		BoxAfter:       newBox,
		NextReview:     nextReview,
	}

	history := make([]domain.ReviewEvent, len(item.History), len(item.History)+1)
	copy(history, item.History)
	history = append(history, event)

	return &domain.StudyItem{
		ID:         item.ID,
		UserID:     item.UserID,
		Front:      item.Front,
		Back:       item.Back,
		Strength:   newStrength,
		Box:        newBox,
		LastReview: &reviewedAt,
		NextReview: &nextReview,
		History:    history,
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  now,
	}
}
