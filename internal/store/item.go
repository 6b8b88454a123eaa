package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/wrenhollow/recall-api/internal/domain"
)

// ItemStore defines the interface for study-item persistence.
//
// The scheduler core never touches this interface directly; the service
// layer loads the owner's full collection, runs the pure AMR functions over
// it, and writes the replacement records back through these methods.
type ItemStore interface {
	// Create saves a single new study item.
	// Returns ErrInvalidEntity (wrapping the domain error) if the item fails
	// validation.
	Create(ctx context.Context, item *domain.StudyItem) error

	// CreateMultiple saves a batch of items, the import path. The batch is
	// atomic: run it within a transaction via WithTx so either every item is
	// inserted or none.
	CreateMultiple(ctx context.Context, items []*domain.StudyItem) error

	// GetByID retrieves an item by its unique ID, history included.
	// Returns ErrItemNotFound if the item does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.StudyItem, error)

	// ListByUser retrieves a user's full collection in stable creation
	// order. Due-set indices derived from this sequence remain valid until
	// an item is added, removed, or graded.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.StudyItem, error)

	// Update replaces an item's scheduling state (strength, box, review
	// timestamps, history) in one atomic write: a grading call either lands
	// completely or not at all. Front, back, and ownership are not updated.
	// Returns ErrItemNotFound if the item does not exist.
	Update(ctx context.Context, item *domain.StudyItem) error

	// Delete removes an item by ID.
	// Returns ErrItemNotFound if the item does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns an ItemStore bound to the given transaction. The
	// transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) ItemStore
}
