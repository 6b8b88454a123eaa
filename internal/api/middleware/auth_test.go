package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrenhollow/recall-api/internal/service/auth"
)

// stubJWTService validates any token matching its canned value.
type stubJWTService struct {
	userID uuid.UUID
	token  string
	err    error
}

func (s *stubJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.token, nil
}

func (s *stubJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	if token != s.token {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{UserID: s.userID, TokenType: "access"}, nil
}

func (s *stubJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.token, nil
}

func (s *stubJWTService) ValidateRefreshToken(ctx context.Context, token string) (*auth.Claims, error) {
	return nil, auth.ErrInvalidRefreshToken
}

func TestAuthenticateValidToken(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	m := NewAuthMiddleware(&stubJWTService{userID: userID, token: "good-token"})

	var gotUserID uuid.UUID
	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotUserID, _ = GetUserID(r)
	})

	r := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	r.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	m.Authenticate(next).ServeHTTP(w, r)

	require.True(t, called, "handler should run for a valid token")
	assert.Equal(t, userID, gotUserID)
}

func TestAuthenticateRejections(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		authHeader string
		err        error
	}{
		{"missing header", "", nil},
		{"malformed header", "good-token", nil},
		{"wrong scheme", "Basic good-token", nil},
		{"invalid token", "Bearer bad-token", nil},
		{"expired token", "Bearer good-token", auth.ErrExpiredToken},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := NewAuthMiddleware(&stubJWTService{token: "good-token", err: tc.err})

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler must not run for a rejected request")
			})

			r := httptest.NewRequest(http.MethodGet, "/api/items", nil)
			if tc.authHeader != "" {
				r.Header.Set("Authorization", tc.authHeader)
			}
			w := httptest.NewRecorder()
			m.Authenticate(next).ServeHTTP(w, r)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
