// Package api provides HTTP handlers for the API.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/wrenhollow/recall-api/internal/api/shared"
	"github.com/wrenhollow/recall-api/internal/platform/logger"
	"github.com/wrenhollow/recall-api/internal/platform/metrics"
	"github.com/wrenhollow/recall-api/internal/service"
)

// ItemHandler handles study item and session HTTP requests.
type ItemHandler struct {
	studyService service.StudyService
	metrics      *metrics.Metrics
	logger       *slog.Logger
	validator    *validator.Validate
	timeFunc     func() time.Time
}

// NewItemHandler creates a new ItemHandler. The metrics parameter may be nil
// when instrumentation is not wanted, e.g. in tests.
func NewItemHandler(
	studyService service.StudyService,
	m *metrics.Metrics,
	log *slog.Logger,
) *ItemHandler {
	if studyService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("studyService cannot be nil for ItemHandler")
	}
	if log == nil {
		log = slog.Default()
	}

	return &ItemHandler{
		studyService: studyService,
		metrics:      m,
		logger:       log.With(slog.String("component", "item_handler")),
		validator:    validator.New(),
		timeFunc:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateItem handles POST /items.
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateItemRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	item, err := h.studyService.CreateItem(r.Context(), userID, req.Front, req.Back)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, itemToResponse(item))
}

// ImportItems handles POST /items/import. The whole batch is saved
// atomically; a single bad pair rejects the import.
func (h *ItemHandler) ImportItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req ImportItemsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	contents := make([]service.ItemContent, len(req.Items))
	for i, pair := range req.Items {
		contents[i] = service.ItemContent{Front: pair.Front, Back: pair.Back}
	}

	items, err := h.studyService.ImportItems(r.Context(), userID, contents)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	responses := make([]ItemResponse, len(items))
	for i, item := range items {
		responses[i] = itemToResponse(item)
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, ImportItemsResponse{
		Imported: len(responses),
		Items:    responses,
	})
}

// ListItems handles GET /items.
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	items, err := h.studyService.ListItems(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	responses := make([]ItemResponse, len(items))
	for i, item := range items {
		responses[i] = itemToResponse(item)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// DeleteItem handles DELETE /items/{id}.
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	itemID, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.studyService.DeleteItem(r.Context(), userID, itemID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// NextItem handles GET /items/next. Responds 204 when nothing is due.
func (h *ItemHandler) NextItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	view, err := h.studyService.NextItem(r.Context(), userID, h.timeFunc())
	if errors.Is(err, service.ErrNoItemsDue) {
		log.Debug("no items due for review", slog.String("user_id", userID.String()))
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to get next item", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, nextItemToResponse(view))
}

// AdvanceSession handles POST /session/advance. Skips the current item
// without grading it. Responds 204 when the session is empty.
func (h *ItemHandler) AdvanceSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	view, err := h.studyService.AdvanceSession(r.Context(), userID, h.timeFunc())
	if errors.Is(err, service.ErrNoItemsDue) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to advance session", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, nextItemToResponse(view))
}

// ShuffleSession handles POST /session/shuffle. Regenerates the session over
// a fresh due set with random traversal order; an empty due set is a no-op.
func (h *ItemHandler) ShuffleSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	dueCount, err := h.studyService.ShuffleSession(r.Context(), userID, h.timeFunc())
	if errors.Is(err, service.ErrNoItemsDue) {
		shared.RespondWithJSON(w, r, http.StatusOK, ShuffleResponse{DueCount: 0, Shuffled: false})
		return
	}
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to shuffle session", err)
		return
	}

	if h.metrics != nil {
		h.metrics.SessionsShuffled.Inc()
	}

	log.Debug("session shuffled",
		slog.String("user_id", userID.String()),
		slog.Int("due_count", dueCount))
	shared.RespondWithJSON(w, r, http.StatusOK, ShuffleResponse{DueCount: dueCount, Shuffled: true})
}

// SubmitReview handles POST /items/{id}/review.
func (h *ItemHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	itemID, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	now := h.timeFunc()
	item, err := h.studyService.SubmitReview(r.Context(), userID, itemID, *req.Quality, now)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	if h.metrics != nil && item.NextReview != nil {
		h.metrics.RecordReview(*req.Quality, item.NextReview.Sub(now).Hours()/24)
	}

	log.Debug("review submitted",
		slog.String("user_id", userID.String()),
		slog.String("item_id", itemID.String()),
		slog.Int("quality", *req.Quality))
	shared.RespondWithJSON(w, r, http.StatusOK, itemToResponse(item))
}

// ItemRetention handles GET /items/{id}/retention.
func (h *ItemHandler) ItemRetention(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	itemID, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	now := h.timeFunc()
	retention, err := h.studyService.ItemRetention(r.Context(), userID, itemID, now)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, RetentionResponse{
		ItemID:    itemID.String(),
		Retention: retention,
		At:        now,
	})
}

// SchedulePreview handles GET /schedule?strength=. Computes the interval the
// scheduler would assign for a standalone strength value.
func (h *ItemHandler) SchedulePreview(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	raw := r.URL.Query().Get("strength")
	if raw == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing strength parameter")
		return
	}

	strength, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid strength format")
		return
	}

	days, err := h.studyService.PreviewInterval(strength)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Strength must be a positive finite number")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ScheduleResponse{
		Strength:     strength,
		IntervalDays: days,
	})
}

// Stats handles GET /stats.
func (h *ItemHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	stats, err := h.studyService.Stats(r.Context(), userID, h.timeFunc())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, statsToResponse(stats))
}

func nextItemToResponse(view *service.NextItemView) NextItemResponse {
	return NextItemResponse{
		Item:      itemToResponse(view.Item),
		Retention: view.Retention,
		DueCount:  view.DueCount,
		Shuffled:  view.Shuffled,
	}
}
