package amr

import (
	"errors"
	"math"
	"time"

	"github.com/wrenhollow/recall-api/internal/domain"
)

// Common errors
var (
	ErrNilItem         = errors.New("study item cannot be nil")
	ErrInvalidQuality  = errors.New("quality grade must be between 0 and 5")
	ErrInvalidStrength = errors.New("strength must be a positive finite number")
)

// Service defines the interface for AMR scheduling operations.
type Service interface {
	// Grade applies a quality grade to an item at the given instant and
	// returns the updated item. The input item is not modified. Exactly one
	// history event is appended per call. Returns ErrInvalidQuality for
	// grades outside [0, 5] and ErrInvalidStrength if the stored strength
	// violates the positivity invariant.
	Grade(item *domain.StudyItem, quality int, now time.Time) (*domain.StudyItem, error)

	// Retention computes the predicted recall probability in [0, 1] for an
	// item at the given instant. Never-reviewed items have retention 0.
	Retention(item *domain.StudyItem, now time.Time) (float64, error)

	// NextIntervalDays computes the review interval in days that brings the
	// predicted retention down to the configured target, for a standalone
	// strength value. Used for schedule previews.
	NextIntervalDays(strength float64) (float64, error)
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new AMR service with default parameters.
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new AMR service with custom parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// Grade implements the Service interface for applying a quality grade.
func (s *defaultService) Grade(
	item *domain.StudyItem,
	quality int,
	now time.Time,
) (*domain.StudyItem, error) {
	if item == nil {
		return nil, ErrNilItem
	}

	// An out-of-range grade indexes the multiplier table, so it is rejected
	// outright rather than clamped.
	if quality < QualityBlackout || quality > QualityPerfect {
		return nil, ErrInvalidQuality
	}

	if err := checkStrength(item.Strength); err != nil {
		return nil, err
	}

	return gradeItem(item, quality, now, s.params), nil
}

// Retention implements the Service interface for recall prediction.
func (s *defaultService) Retention(item *domain.StudyItem, now time.Time) (float64, error) {
	if item == nil {
		return 0, ErrNilItem
	}

	if err := checkStrength(item.Strength); err != nil {
		return 0, err
	}

	return retention(item, now, s.params), nil
}

// NextIntervalDays implements the Service interface for schedule previews.
func (s *defaultService) NextIntervalDays(strength float64) (float64, error) {
	if err := checkStrength(strength); err != nil {
		return 0, err
	}

	return nextIntervalDays(strength, s.params), nil
}

// checkStrength enforces the strength invariant at the model boundary.
// A violation is an internal state corruption, not a recoverable condition,
// so it surfaces as an error instead of producing NaN or Infinity.
func checkStrength(strength float64) error {
	if strength <= 0 || math.IsNaN(strength) || math.IsInf(strength, 0) {
		return ErrInvalidStrength
	}
	return nil
}
