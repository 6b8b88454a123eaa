package session

import (
	"time"

	"github.com/wrenhollow/recall-api/internal/domain"
)

// Snapshot freezes a due set together with the order controller traversing
// it. The two are computed atomically: the controller's indices always refer
// to this snapshot's items, never to a due set recomputed behind its back.
// Callers regenerate the snapshot, rather than mutating it, whenever the
// underlying collection changes (an item is graded, added, or removed) or
// the user requests a fresh pass.
type Snapshot struct {
	items   []*domain.StudyItem
	takenAt time.Time
	order   *OrderController
}

// NewSnapshot selects the due subsequence of items at the given instant and
// pairs it with a fresh Sequential-state order controller.
func NewSnapshot(items []*domain.StudyItem, now time.Time) *Snapshot {
	due := DueItems(items, now)
	return &Snapshot{
		items:   due,
		takenAt: now,
		order:   NewOrderController(len(due)),
	}
}

// Size returns the number of due items in the snapshot.
func (s *Snapshot) Size() int {
	return len(s.items)
}

// TakenAt returns the instant the due set was computed.
func (s *Snapshot) TakenAt() time.Time {
	return s.takenAt
}

// Current returns the item the order controller has selected for display,
// without advancing. Returns ErrEmptyDueSet when the snapshot is empty.
func (s *Snapshot) Current() (*domain.StudyItem, error) {
	idx, err := s.order.Next()
	if err != nil {
		return nil, err
	}
	return s.items[idx], nil
}

// Advance moves the traversal to the next position.
func (s *Snapshot) Advance() {
	s.order.Advance()
}

// Shuffle starts a randomized pass over the snapshot's due set.
// Returns ErrEmptyDueSet when there is nothing to shuffle.
func (s *Snapshot) Shuffle() error {
	return s.order.Shuffle()
}

// Shuffled reports whether a randomized pass is in progress.
func (s *Snapshot) Shuffled() bool {
	return s.order.Shuffled()
}
