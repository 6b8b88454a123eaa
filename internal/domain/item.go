package domain

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StudyItem-specific validation errors
var (
	// ErrItemIDEmpty is returned when an item ID is empty or nil.
	ErrItemIDEmpty = errors.New("study item ID cannot be empty")

	// ErrItemUserIDEmpty is returned when an item's user ID is empty or nil.
	ErrItemUserIDEmpty = errors.New("study item user ID cannot be empty")

	// ErrItemFrontEmpty is returned when an item's front text is empty.
	ErrItemFrontEmpty = errors.New("study item front text cannot be empty")

	// ErrItemBackEmpty is returned when an item's back text is empty.
	ErrItemBackEmpty = errors.New("study item back text cannot be empty")

	// ErrItemInvalidStrength is returned when an item's strength is not a
	// positive finite number. Strength is a decay time-constant in days and
	// must stay above zero for the retention model to be defined.
	ErrItemInvalidStrength = errors.New("study item strength must be a positive finite number")

	// ErrItemInvalidBox is returned when an item's box tier is outside [1, BoxCount].
	ErrItemInvalidBox = errors.New("study item box must be between 1 and the box count")
)

// DefaultStrength is the decay time-constant (in days) assigned to every
// newly created item regardless of origin (manual add or import).
const DefaultStrength = 1.0

// BoxCount is the number of discrete mastery tiers. Box 1 is "new/lapsed",
// box BoxCount is "mastered".
const BoxCount = 5

// StudyItem is one question/answer study unit together with its retention
// state. Front, back, and ID are immutable after creation; the scheduling
// fields (strength, box, lastReview, nextReview, history) change only
// through the AMR grading transition.
type StudyItem struct {
	ID         uuid.UUID     `json:"id"`
	UserID     uuid.UUID     `json:"user_id"`
	Front      string        `json:"front"`
	Back       string        `json:"back"`
	Strength   float64       `json:"strength"`
	Box        int           `json:"box"`
	LastReview *time.Time    `json:"last_review,omitempty"` // nil until first graded
	NextReview *time.Time    `json:"next_review,omitempty"` // nil means always due
	History    []ReviewEvent `json:"history"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// ReviewEvent is one immutable audit record appended to an item's history on
// every grading call. Events are write-once and never reordered or removed.
type ReviewEvent struct {
	Timestamp      time.Time `json:"time"`
	Quality        int       `json:"quality"`
	StrengthBefore float64   `json:"old_strength"`
	StrengthAfter  float64   `json:"new_strength"`
	BoxBefore      int       `json:"old_box"`
	BoxAfter       int       `json:"new_box"`
	NextReview     time.Time `json:"next_review"`
}

// NewStudyItem creates a new StudyItem with the given owner and front/back
// text. New items start with the default strength, box 1, no review
// timestamps, and an empty history, so they are immediately due.
// Returns an error if validation fails.
func NewStudyItem(userID uuid.UUID, front, back string) (*StudyItem, error) {
	now := time.Now().UTC()
	item := &StudyItem{
		ID:        uuid.New(),
		UserID:    userID,
		Front:     front,
		Back:      back,
		Strength:  DefaultStrength,
		Box:       1,
		History:   []ReviewEvent{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// Validate checks if the StudyItem has valid data.
// Returns an error if any field fails validation.
func (i *StudyItem) Validate() error {
	if i.ID == uuid.Nil {
		return ErrItemIDEmpty
	}

	if i.UserID == uuid.Nil {
		return ErrItemUserIDEmpty
	}

	if strings.TrimSpace(i.Front) == "" {
		return ErrItemFrontEmpty
	}

	if strings.TrimSpace(i.Back) == "" {
		return ErrItemBackEmpty
	}

	// Strength must never be zero, negative, NaN, or Inf. The grading
	// transition floors it on every update; a violation here means state
	// was corrupted outside the public transition function.
	if i.Strength <= 0 || math.IsNaN(i.Strength) || math.IsInf(i.Strength, 0) {
		return ErrItemInvalidStrength
	}

	if i.Box < 1 || i.Box > BoxCount {
		return ErrItemInvalidBox
	}

	return nil
}

// Reviewed reports whether the item has been graded at least once.
func (i *StudyItem) Reviewed() bool {
	return i.LastReview != nil
}
