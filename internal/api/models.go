package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/wrenhollow/recall-api/internal/domain"
	"github.com/wrenhollow/recall-api/internal/session"
)

// Request/response structures shared by the handlers.

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    string    `json:"expires_at,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token
// refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

// CreateItemRequest defines the payload for creating a single study item.
type CreateItemRequest struct {
	Front string `json:"front" validate:"required"`
	Back  string `json:"back"  validate:"required"`
}

// ImportItemsRequest defines the payload for the bulk import endpoint. Each
// pair is saved atomically with the rest of the batch.
type ImportItemsRequest struct {
	Items []CreateItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ImportItemsResponse reports how many items a bulk import created.
type ImportItemsResponse struct {
	Imported int            `json:"imported"`
	Items    []ItemResponse `json:"items"`
}

// SubmitReviewRequest defines the payload for grading an item.
// Quality is a pointer so that an absent field is distinguishable from a
// legitimate grade of 0.
type SubmitReviewRequest struct {
	Quality *int `json:"quality" validate:"required"`
}

// ItemResponse is the serialized form of a study item.
type ItemResponse struct {
	ID         string               `json:"id"`
	Front      string               `json:"front"`
	Back       string               `json:"back"`
	Strength   float64              `json:"strength"`
	Box        int                  `json:"box"`
	LastReview *time.Time           `json:"last_review,omitempty"`
	NextReview *time.Time           `json:"next_review,omitempty"`
	History    []domain.ReviewEvent `json:"history"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// NextItemResponse is the session selection returned by the next-item and
// advance endpoints.
type NextItemResponse struct {
	Item      ItemResponse `json:"item"`
	Retention float64      `json:"retention"`
	DueCount  int          `json:"due_count"`
	Shuffled  bool         `json:"shuffled"`
}

// ShuffleResponse reports the size of the freshly shuffled due set.
type ShuffleResponse struct {
	DueCount int  `json:"due_count"`
	Shuffled bool `json:"shuffled"`
}

// RetentionResponse carries the predicted recall probability for one item.
type RetentionResponse struct {
	ItemID    string    `json:"item_id"`
	Retention float64   `json:"retention"`
	At        time.Time `json:"at"`
}

// ScheduleResponse carries the interval preview for a standalone strength.
type ScheduleResponse struct {
	Strength     float64 `json:"strength"`
	IntervalDays float64 `json:"interval_days"`
}

// StatsResponse carries the collection progress counters.
type StatsResponse struct {
	Total    int `json:"total"`
	Due      int `json:"due"`
	Mastered int `json:"mastered"`
	Learning int `json:"learning"`
}

func itemToResponse(item *domain.StudyItem) ItemResponse {
	history := item.History
	if history == nil {
		history = []domain.ReviewEvent{}
	}
	return ItemResponse{
		ID:         item.ID.String(),
		Front:      item.Front,
		Back:       item.Back,
		Strength:   item.Strength,
		Box:        item.Box,
		LastReview: item.LastReview,
		NextReview: item.NextReview,
		History:    history,
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
	}
}

func statsToResponse(stats session.Stats) StatsResponse {
	return StatsResponse{
		Total:    stats.Total,
		Due:      stats.Due,
		Mastered: stats.Mastered,
		Learning: stats.Learning,
	}
}
