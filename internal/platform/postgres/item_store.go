package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/wrenhollow/recall-api/internal/domain"
	"github.com/wrenhollow/recall-api/internal/platform/logger"
	"github.com/wrenhollow/recall-api/internal/store"
)

// ItemStore implements the store.ItemStore interface using a PostgreSQL
// database as the storage backend. Review history is stored as a JSONB
// column so one grading call updates the item row and appends its audit
// event in a single atomic write.
type ItemStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewItemStore creates a new PostgreSQL implementation of the ItemStore
// interface. The database handle is initialized and managed by the caller.
func NewItemStore(db store.DBTX, log *slog.Logger) *ItemStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &ItemStore{
		db:     db,
		logger: log.With(slog.String("component", "item_store")),
	}
}

// Ensure ItemStore implements store.ItemStore
var _ store.ItemStore = (*ItemStore)(nil)

// WithTx implements store.ItemStore.WithTx.
func (s *ItemStore) WithTx(tx *sql.Tx) store.ItemStore {
	return &ItemStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.ItemStore.Create.
func (s *ItemStore) Create(ctx context.Context, item *domain.StudyItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	history, err := json.Marshal(item.History)
	if err != nil {
		return fmt.Errorf("failed to marshal item history: %w", err)
	}

	query := `
		INSERT INTO study_items
			(id, user_id, front, back, strength, box, last_review, next_review, history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = s.db.ExecContext(ctx, query,
		item.ID,
		item.UserID,
		item.Front,
		item.Back,
		item.Strength,
		item.Box,
		item.LastReview,
		item.NextReview,
		history,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create study item",
			slog.String("item_id", item.ID.String()),
			slog.String("error", err.Error()))
		return mapError(err)
	}

	return nil
}

// CreateMultiple implements store.ItemStore.CreateMultiple. Run it inside a
// transaction (via WithTx and store.RunInTransaction) for atomicity.
func (s *ItemStore) CreateMultiple(ctx context.Context, items []*domain.StudyItem) error {
	for _, item := range items {
		if err := s.Create(ctx, item); err != nil {
			return fmt.Errorf("failed to create item %s: %w", item.ID, err)
		}
	}
	return nil
}

// GetByID implements store.ItemStore.GetByID.
func (s *ItemStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.StudyItem, error) {
	query := `
		SELECT id, user_id, front, back, strength, box, last_review, next_review, history, created_at, updated_at
		FROM study_items
		WHERE id = $1
	`

	item, err := scanItem(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrItemNotFound
		}
		return nil, mapError(err)
	}

	return item, nil
}

// ListByUser implements store.ItemStore.ListByUser. Items come back in
// creation order, which is the stable collection order the due-set selector
// preserves.
func (s *ItemStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.StudyItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, front, back, strength, box, last_review, next_review, history, created_at, updated_at
		FROM study_items
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list study items",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, mapError(err)
	}
	defer func() { _ = rows.Close() }()

	items := []*domain.StudyItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan study item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating study item rows: %w", err)
	}

	return items, nil
}

// Update implements store.ItemStore.Update. Only the scheduling state
// changes; front, back, and ownership are immutable after creation.
func (s *ItemStore) Update(ctx context.Context, item *domain.StudyItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	history, err := json.Marshal(item.History)
	if err != nil {
		return fmt.Errorf("failed to marshal item history: %w", err)
	}

	query := `
		UPDATE study_items
		SET strength = $1, box = $2, last_review = $3, next_review = $4, history = $5, updated_at = $6
		WHERE id = $7
	`

	result, err := s.db.ExecContext(ctx, query,
		item.Strength,
		item.Box,
		item.LastReview,
		item.NextReview,
		history,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		log.Error("failed to update study item",
			slog.String("item_id", item.ID.String()),
			slog.String("error", err.Error()))
		return mapError(err)
	}

	return checkRowsAffected(result, store.ErrItemNotFound)
}

// Delete implements store.ItemStore.Delete.
func (s *ItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM study_items WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}

	return checkRowsAffected(result, store.ErrItemNotFound)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanItem reads one study_items row, decoding nullable review timestamps
// and the JSONB history column.
func scanItem(row rowScanner) (*domain.StudyItem, error) {
	var (
		item       domain.StudyItem
		lastReview sql.NullTime
		nextReview sql.NullTime
		history    []byte
	)

	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.Front,
		&item.Back,
		&item.Strength,
		&item.Box,
		&lastReview,
		&nextReview,
		&history,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastReview.Valid {
		t := lastReview.Time.UTC()
		item.LastReview = &t
	}
	if nextReview.Valid {
		t := nextReview.Time.UTC()
		item.NextReview = &t
	}

	item.History = []domain.ReviewEvent{}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &item.History); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item history: %w", err)
		}
	}

	return &item, nil
}
