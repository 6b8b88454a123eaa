package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wrenhollow/recall-api/internal/domain"
	"github.com/wrenhollow/recall-api/internal/domain/amr"
	"github.com/wrenhollow/recall-api/internal/platform/logger"
	"github.com/wrenhollow/recall-api/internal/session"
	"github.com/wrenhollow/recall-api/internal/store"
)

// ItemContent is one normalized front/back pair handed to the import path.
// Format sniffing and parsing happen outside this service; by the time a
// pair arrives here it is plain non-empty text.
type ItemContent struct {
	Front string
	Back  string
}

// NextItemView is the rendering-ready selection returned to the
// presentation layer: the item to show, its predicted retention at
// selection time, and session context.
type NextItemView struct {
	Item      *domain.StudyItem
	Retention float64
	DueCount  int
	Shuffled  bool
}

// StudyService orchestrates the AMR scheduler over a user's collection: item
// creation and import, due-set/session traversal, grading, and derived
// statistics. Each user owns exactly one active session at a time.
type StudyService interface {
	// CreateItem adds a single new item to the user's collection.
	CreateItem(ctx context.Context, userID uuid.UUID, front, back string) (*domain.StudyItem, error)

	// ImportItems adds a batch of already-normalized front/back pairs
	// atomically. Returns ErrEmptyImport for an empty batch.
	ImportItems(ctx context.Context, userID uuid.UUID, contents []ItemContent) ([]*domain.StudyItem, error)

	// ListItems returns the user's full collection in stable order.
	ListItems(ctx context.Context, userID uuid.UUID) ([]*domain.StudyItem, error)

	// DeleteItem removes an item the user owns.
	DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error

	// NextItem returns the item the session selects for display, computing a
	// fresh due-set snapshot if no session is active. Returns ErrNoItemsDue
	// when nothing is due.
	NextItem(ctx context.Context, userID uuid.UUID, now time.Time) (*NextItemView, error)

	// AdvanceSession skips past the current item without grading it and
	// returns the next selection.
	AdvanceSession(ctx context.Context, userID uuid.UUID, now time.Time) (*NextItemView, error)

	// ShuffleSession regenerates the user's session over a fresh due-set
	// snapshot with a uniform random traversal order. Returns the due count,
	// or ErrNoItemsDue when the due set is empty (a no-op, not a failure).
	ShuffleSession(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)

	// SubmitReview applies a quality grade to an item the user owns,
	// persisting the updated scheduling state and appending one history
	// event atomically. Returns ErrInvalidQuality for grades outside [0, 5],
	// ErrItemNotFound, or ErrItemNotOwned.
	SubmitReview(ctx context.Context, userID, itemID uuid.UUID, quality int, now time.Time) (*domain.StudyItem, error)

	// ItemRetention computes the predicted recall probability for one item.
	ItemRetention(ctx context.Context, userID, itemID uuid.UUID, now time.Time) (float64, error)

	// PreviewInterval computes the review interval in days the scheduler
	// would assign for a standalone strength value.
	PreviewInterval(strength float64) (float64, error)

	// Stats returns the derived progress counters for the user's collection.
	Stats(ctx context.Context, userID uuid.UUID, now time.Time) (session.Stats, error)
}

// Verify interface compliance at compile time
var _ StudyService = (*studyServiceImpl)(nil)

type studyServiceImpl struct {
	repo   ItemRepository
	amr    amr.Service
	logger *slog.Logger

	// sessions is the per-user session registry: one due-set snapshot plus
	// order controller per user, guarded by mu. This is the explicitly owned
	// session context the scheduler needs instead of hidden global state;
	// it is ephemeral process state and is never persisted.
	mu       sync.Mutex
	sessions map[uuid.UUID]*session.Snapshot
}

// NewStudyService creates a new StudyService implementation.
func NewStudyService(repo ItemRepository, amrService amr.Service, log *slog.Logger) StudyService {
	if repo == nil {
		panic("repo cannot be nil")
	}
	if amrService == nil {
		panic("amrService cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &studyServiceImpl{
		repo:     repo,
		amr:      amrService,
		logger:   log.With(slog.String("component", "study_service")),
		sessions: make(map[uuid.UUID]*session.Snapshot),
	}
}

// CreateItem implements StudyService.CreateItem.
func (s *studyServiceImpl) CreateItem(
	ctx context.Context,
	userID uuid.UUID,
	front, back string,
) (*domain.StudyItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	item, err := domain.NewStudyItem(userID, front, back)
	if err != nil {
		return nil, fmt.Errorf("invalid study item: %w", err)
	}

	if err := s.repo.Create(ctx, item); err != nil {
		log.Error("failed to create study item",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, &ServiceError{Operation: "create_item", Message: "failed to save item", Err: err}
	}

	s.invalidateIdleSession(userID)

	log.Debug("study item created",
		slog.String("user_id", userID.String()),
		slog.String("item_id", item.ID.String()))
	return item, nil
}

// ImportItems implements StudyService.ImportItems.
func (s *studyServiceImpl) ImportItems(
	ctx context.Context,
	userID uuid.UUID,
	contents []ItemContent,
) ([]*domain.StudyItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(contents) == 0 {
		return nil, ErrEmptyImport
	}

	items := make([]*domain.StudyItem, 0, len(contents))
	for i, content := range contents {
		item, err := domain.NewStudyItem(userID, content.Front, content.Back)
		if err != nil {
			// Reject the whole batch before any write; imports are atomic.
			return nil, fmt.Errorf("invalid item at position %d: %w", i, err)
		}
		items = append(items, item)
	}

	if err := s.repo.CreateMultiple(ctx, items); err != nil {
		log.Error("failed to import study items",
			slog.String("user_id", userID.String()),
			slog.Int("count", len(items)),
			slog.String("error", err.Error()))
		return nil, &ServiceError{Operation: "import_items", Message: "failed to save batch", Err: err}
	}

	s.invalidateIdleSession(userID)

	log.Info("study items imported",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(items)))
	return items, nil
}

// ListItems implements StudyService.ListItems.
func (s *studyServiceImpl) ListItems(ctx context.Context, userID uuid.UUID) ([]*domain.StudyItem, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, &ServiceError{Operation: "list_items", Message: "failed to load collection", Err: err}
	}
	return items, nil
}

// DeleteItem implements StudyService.DeleteItem.
func (s *studyServiceImpl) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrItemNotFound
		}
		return &ServiceError{Operation: "delete_item", Message: "failed to delete item", Err: err}
	}

	// A removed item may be referenced by the active snapshot; drop the
	// session unconditionally so stale indices cannot be served.
	s.invalidateSession(userID)
	return nil
}

// NextItem implements StudyService.NextItem.
func (s *studyServiceImpl) NextItem(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
) (*NextItemView, error) {
	snap, err := s.currentSession(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	return s.viewOf(snap, now)
}

// AdvanceSession implements StudyService.AdvanceSession.
func (s *studyServiceImpl) AdvanceSession(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
) (*NextItemView, error) {
	snap, err := s.currentSession(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	wasShuffled := snap.Shuffled()
	snap.Advance()
	if wasShuffled && !snap.Shuffled() {
		delete(s.sessions, userID)
	}
	s.mu.Unlock()

	// Skipping past the end of a shuffled pass falls back to a fresh
	// sequential due set.
	if wasShuffled && !snap.Shuffled() {
		snap, err = s.currentSession(ctx, userID, now)
		if err != nil {
			return nil, err
		}
	}

	return s.viewOf(snap, now)
}

// ShuffleSession implements StudyService.ShuffleSession. The due set and the
// permutation over it are computed together and frozen as one snapshot, so
// traversal indices cannot drift from the set they index into.
func (s *studyServiceImpl) ShuffleSession(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return 0, &ServiceError{Operation: "shuffle_session", Message: "failed to load collection", Err: err}
	}

	snap := session.NewSnapshot(items, now)
	if err := snap.Shuffle(); err != nil {
		log.Debug("shuffle requested with empty due set",
			slog.String("user_id", userID.String()))
		return 0, ErrNoItemsDue
	}

	s.mu.Lock()
	s.sessions[userID] = snap
	s.mu.Unlock()

	log.Debug("session shuffled",
		slog.String("user_id", userID.String()),
		slog.Int("due_count", snap.Size()))
	return snap.Size(), nil
}

// SubmitReview implements StudyService.SubmitReview.
func (s *studyServiceImpl) SubmitReview(
	ctx context.Context,
	userID, itemID uuid.UUID,
	quality int,
	now time.Time,
) (*domain.StudyItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	updated, err := s.amr.Grade(item, quality, now)
	if err != nil {
		if errors.Is(err, amr.ErrInvalidQuality) {
			return nil, ErrInvalidQuality
		}
		log.Error("failed to grade item",
			slog.String("item_id", itemID.String()),
			slog.String("error", err.Error()))
		return nil, &ServiceError{Operation: "submit_review", Message: "failed to grade item", Err: err}
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		log.Error("failed to persist graded item",
			slog.String("item_id", itemID.String()),
			slog.String("error", err.Error()))
		return nil, &ServiceError{Operation: "submit_review", Message: "failed to save review", Err: err}
	}

	s.afterReview(userID)

	log.Debug("review submitted",
		slog.String("user_id", userID.String()),
		slog.String("item_id", itemID.String()),
		slog.Int("quality", quality),
		slog.Float64("strength", updated.Strength),
		slog.Int("box", updated.Box),
		slog.Time("next_review", *updated.NextReview))
	return updated, nil
}

// ItemRetention implements StudyService.ItemRetention.
func (s *studyServiceImpl) ItemRetention(
	ctx context.Context,
	userID, itemID uuid.UUID,
	now time.Time,
) (float64, error) {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return 0, err
	}

	retention, err := s.amr.Retention(item, now)
	if err != nil {
		return 0, &ServiceError{Operation: "item_retention", Message: "failed to compute retention", Err: err}
	}
	return retention, nil
}

// PreviewInterval implements StudyService.PreviewInterval.
func (s *studyServiceImpl) PreviewInterval(strength float64) (float64, error) {
	days, err := s.amr.NextIntervalDays(strength)
	if err != nil {
		return 0, fmt.Errorf("invalid strength for schedule preview: %w", err)
	}
	return days, nil
}

// Stats implements StudyService.Stats.
func (s *studyServiceImpl) Stats(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
) (session.Stats, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return session.Stats{}, &ServiceError{Operation: "stats", Message: "failed to load collection", Err: err}
	}
	return session.CollectStats(items, now), nil
}

// ownedItem loads an item and verifies ownership, mapping store errors onto
// service errors.
func (s *studyServiceImpl) ownedItem(
	ctx context.Context,
	userID, itemID uuid.UUID,
) (*domain.StudyItem, error) {
	item, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, &ServiceError{Operation: "get_item", Message: "failed to load item", Err: err}
	}

	if item.UserID != userID {
		return nil, ErrItemNotOwned
	}

	return item, nil
}

// currentSession returns the user's active snapshot, creating one over a
// fresh due set when none exists. Returns ErrNoItemsDue when the due set is
// empty.
func (s *studyServiceImpl) currentSession(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
) (*session.Snapshot, error) {
	s.mu.Lock()
	snap := s.sessions[userID]
	s.mu.Unlock()

	if snap != nil && snap.Size() > 0 {
		return snap, nil
	}

	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, &ServiceError{Operation: "next_item", Message: "failed to load collection", Err: err}
	}

	snap = session.NewSnapshot(items, now)
	if snap.Size() == 0 {
		return nil, ErrNoItemsDue
	}

	s.mu.Lock()
	s.sessions[userID] = snap
	s.mu.Unlock()

	return snap, nil
}

// viewOf assembles the rendering view for the snapshot's current selection.
func (s *studyServiceImpl) viewOf(snap *session.Snapshot, now time.Time) (*NextItemView, error) {
	s.mu.Lock()
	item, err := snap.Current()
	shuffled := snap.Shuffled()
	s.mu.Unlock()

	if err != nil {
		return nil, ErrNoItemsDue
	}

	retention, err := s.amr.Retention(item, now)
	if err != nil {
		return nil, &ServiceError{Operation: "next_item", Message: "failed to compute retention", Err: err}
	}

	return &NextItemView{
		Item:      item,
		Retention: retention,
		DueCount:  snap.Size(),
		Shuffled:  shuffled,
	}, nil
}

// afterReview updates session bookkeeping after a grading call. A shuffled
// pass stays frozen (grading advances the traversal so every snapshot item
// is shown exactly once); a sequential session is dropped so the next
// selection recomputes the due set, which the grade just changed.
func (s *studyServiceImpl) afterReview(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.sessions[userID]
	if snap == nil {
		return
	}

	if snap.Shuffled() {
		snap.Advance()
		// An exhausted pass leaves a stale frozen due set behind; drop it
		// so the next selection recomputes.
		if !snap.Shuffled() {
			delete(s.sessions, userID)
		}
		return
	}

	delete(s.sessions, userID)
}

// invalidateIdleSession drops the user's session unless a shuffled pass is
// in progress; an active permutation stays frozen over its snapshot until
// exhausted or explicitly reshuffled.
func (s *studyServiceImpl) invalidateIdleSession(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap := s.sessions[userID]; snap != nil && !snap.Shuffled() {
		delete(s.sessions, userID)
	}
}

// invalidateSession drops the user's session unconditionally.
func (s *studyServiceImpl) invalidateSession(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
