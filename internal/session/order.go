package session

import (
	"errors"
	"math/rand"
)

// Order controller errors
var (
	// ErrEmptyDueSet is returned when a traversal operation is attempted on
	// a due set with no items. This is an expected steady state for callers
	// to report, not a failure.
	ErrEmptyDueSet = errors.New("no items due for review")
)

// OrderController decides which due-set index is shown next. It is a small
// state machine with two explicit states:
//
//   - Sequential: no active permutation; traversal is cursor mod size.
//   - Shuffled: an active uniform permutation of [0, size) plus a cursor.
//
// Exhausting a shuffled pass transitions back to Sequential automatically:
// one full shuffled pass is a single bounded session, not an infinite cycle.
//
// The controller is ephemeral per-session state. It is never persisted and
// is discarded whenever the due-set snapshot it indexes into is regenerated.
type OrderController struct {
	size   int
	perm   []int // nil in Sequential state
	cursor int
	intN   func(n int) int // injectable randomness for tests
}

// NewOrderController creates a controller in Sequential state over a due set
// of the given size.
func NewOrderController(size int) *OrderController {
	return &OrderController{
		size: size,
		intN: rand.Intn,
	}
}

// Shuffled reports whether an unexhausted permutation is active.
func (c *OrderController) Shuffled() bool {
	return c.perm != nil
}

// Shuffle generates a uniform random permutation of [0, size) and resets the
// cursor to the start of the pass. Returns ErrEmptyDueSet when the due set
// is empty; the controller stays in Sequential state in that case.
//
// The permutation is produced with a Fisher–Yates shuffle, which draws every
// permutation with equal probability.
func (c *OrderController) Shuffle() error {
	if c.size == 0 {
		return ErrEmptyDueSet
	}

	perm := make([]int, c.size)
	for i := range perm {
		perm[i] = i
	}
	for i := c.size - 1; i > 0; i-- {
		j := c.intN(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}

	c.perm = perm
	c.cursor = 0
	return nil
}

// Next returns the due-set index to display without advancing the cursor.
// Returns ErrEmptyDueSet when the due set is empty.
func (c *OrderController) Next() (int, error) {
	if c.size == 0 {
		return 0, ErrEmptyDueSet
	}

	if c.perm != nil {
		return c.perm[c.cursor], nil
	}
	return c.cursor % c.size, nil
}

// Advance moves the cursor forward by one position. When a shuffled pass
// reaches the end of its permutation, the permutation is cleared and the
// controller returns to Sequential state with the cursor reset.
func (c *OrderController) Advance() {
	if c.size == 0 {
		return
	}

	c.cursor++
	if c.perm != nil && c.cursor >= len(c.perm) {
		c.perm = nil
		c.cursor = 0
	}
}
