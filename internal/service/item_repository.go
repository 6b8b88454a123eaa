package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/wrenhollow/recall-api/internal/domain"
	"github.com/wrenhollow/recall-api/internal/store"
)

// ItemRepository is the persistence surface the study service depends on.
// Defining it at the consumer keeps the service testable with in-memory
// fakes and keeps transaction plumbing out of the service logic.
type ItemRepository interface {
	// Create saves one new study item.
	Create(ctx context.Context, item *domain.StudyItem) error

	// CreateMultiple saves a batch of study items atomically: either every
	// item is persisted or none.
	CreateMultiple(ctx context.Context, items []*domain.StudyItem) error

	// GetByID retrieves an item by ID. Returns store.ErrItemNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.StudyItem, error)

	// ListByUser retrieves a user's collection in stable creation order.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.StudyItem, error)

	// Update atomically replaces an item's scheduling state and history.
	Update(ctx context.Context, item *domain.StudyItem) error

	// Delete removes an item by ID.
	Delete(ctx context.Context, id uuid.UUID) error
}

// NewItemRepositoryAdapter adapts a store.ItemStore to the ItemRepository
// interface, wrapping batch creation in a database transaction.
func NewItemRepositoryAdapter(itemStore store.ItemStore, db *sql.DB) ItemRepository {
	return &itemRepositoryAdapter{
		itemStore: itemStore,
		db:        db,
	}
}

type itemRepositoryAdapter struct {
	itemStore store.ItemStore
	db        *sql.DB
}

// Create implements ItemRepository.Create.
func (a *itemRepositoryAdapter) Create(ctx context.Context, item *domain.StudyItem) error {
	return a.itemStore.Create(ctx, item)
}

// CreateMultiple implements ItemRepository.CreateMultiple. The batch runs in
// one transaction so a failed import leaves nothing behind.
func (a *itemRepositoryAdapter) CreateMultiple(ctx context.Context, items []*domain.StudyItem) error {
	return store.RunInTransaction(ctx, a.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := a.itemStore.WithTx(tx).CreateMultiple(ctx, items); err != nil {
			return fmt.Errorf("failed to create items in transaction: %w", err)
		}
		return nil
	})
}

// GetByID implements ItemRepository.GetByID.
func (a *itemRepositoryAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.StudyItem, error) {
	return a.itemStore.GetByID(ctx, id)
}

// ListByUser implements ItemRepository.ListByUser.
func (a *itemRepositoryAdapter) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.StudyItem, error) {
	return a.itemStore.ListByUser(ctx, userID)
}

// Update implements ItemRepository.Update.
func (a *itemRepositoryAdapter) Update(ctx context.Context, item *domain.StudyItem) error {
	return a.itemStore.Update(ctx, item)
}

// Delete implements ItemRepository.Delete.
func (a *itemRepositoryAdapter) Delete(ctx context.Context, id uuid.UUID) error {
	return a.itemStore.Delete(ctx, id)
}
