package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrenhollow/recall-api/internal/domain"
	"github.com/wrenhollow/recall-api/internal/service/auth"
	"github.com/wrenhollow/recall-api/internal/store"
)

// fakeUserStore is an in-memory store.UserStore keyed by email.
type fakeUserStore struct {
	byEmail map[string]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: make(map[string]*domain.User)}
}

func (s *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	if _, exists := s.byEmail[user.Email]; exists {
		return store.ErrEmailExists
	}
	// Mirror the real store: hash stands in for the plaintext.
	user.HashedPassword = "hashed:" + user.Password
	user.Password = ""
	s.byEmail[user.Email] = user
	return nil
}

func (s *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, u := range s.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore { return s }

// fakePasswordVerifier matches against the fake store's "hashed:" prefix.
type fakePasswordVerifier struct{}

func (fakePasswordVerifier) Compare(hashedPassword, password string) error {
	if hashedPassword != "hashed:"+password {
		return errors.New("password mismatch")
	}
	return nil
}

// fixed token values for the fake JWT service
const (
	fakeAccessToken  = "access-token"
	fakeRefreshToken = "refresh-token"
)

type fakeJWTService struct {
	refreshUserID uuid.UUID
	refreshErr    error
}

func (s *fakeJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return fakeAccessToken, nil
}

func (s *fakeJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	return nil, auth.ErrInvalidToken
}

func (s *fakeJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return fakeRefreshToken, nil
}

func (s *fakeJWTService) ValidateRefreshToken(ctx context.Context, token string) (*auth.Claims, error) {
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	return &auth.Claims{UserID: s.refreshUserID, TokenType: "refresh"}, nil
}

func newTestAuthHandler(users *fakeUserStore, jwt *fakeJWTService) *AuthHandler {
	return NewAuthHandler(users, jwt, fakePasswordVerifier{}, time.Hour)
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler(w, r)
	return w
}

func TestRegister(t *testing.T) {
	t.Parallel()
	users := newFakeUserStore()
	handler := newTestAuthHandler(users, &fakeJWTService{})

	w := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
		Email:    "student@example.com",
		Password: "a-long-enough-password",
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, fakeAccessToken, resp.AccessToken)
	assert.Equal(t, fakeRefreshToken, resp.RefreshToken)
	assert.NotEmpty(t, resp.ExpiresAt)

	// The stored user carries only the hash.
	stored, err := users.GetByEmail(context.Background(), "student@example.com")
	require.NoError(t, err)
	assert.Empty(t, stored.Password)
	assert.NotEmpty(t, stored.HashedPassword)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()
	users := newFakeUserStore()
	handler := newTestAuthHandler(users, &fakeJWTService{})

	req := RegisterRequest{Email: "student@example.com", Password: "a-long-enough-password"}
	w := postJSON(t, handler.Register, "/api/auth/register", req)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, handler.Register, "/api/auth/register", req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	handler := newTestAuthHandler(newFakeUserStore(), &fakeJWTService{})

	testCases := []struct {
		name string
		req  RegisterRequest
	}{
		{"bad email", RegisterRequest{Email: "not-an-email", Password: "a-long-enough-password"}},
		{"short password", RegisterRequest{Email: "student@example.com", Password: "short"}},
		{"empty body", RegisterRequest{}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			w := postJSON(t, handler.Register, "/api/auth/register", tc.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()
	users := newFakeUserStore()
	handler := newTestAuthHandler(users, &fakeJWTService{})

	w := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
		Email:    "student@example.com",
		Password: "a-long-enough-password",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
		Email:    "student@example.com",
		Password: "a-long-enough-password",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, fakeAccessToken, resp.AccessToken)
}

func TestLoginRejections(t *testing.T) {
	t.Parallel()
	users := newFakeUserStore()
	handler := newTestAuthHandler(users, &fakeJWTService{})

	w := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
		Email:    "student@example.com",
		Password: "a-long-enough-password",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("wrong password", func(t *testing.T) {
		w := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
			Email:    "student@example.com",
			Password: "wrong-password-entirely",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		w := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
			Email:    "nobody@example.com",
			Password: "a-long-enough-password",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()
	handler := newTestAuthHandler(newFakeUserStore(), &fakeJWTService{refreshUserID: uuid.New()})

	w := postJSON(t, handler.RefreshToken, "/api/auth/refresh", RefreshTokenRequest{
		RefreshToken: "some-refresh-token",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp RefreshTokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, fakeAccessToken, resp.AccessToken)
	assert.Equal(t, fakeRefreshToken, resp.RefreshToken)
}

func TestRefreshTokenRejections(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		err        error
		expectCode int
	}{
		{"expired", auth.ErrExpiredRefreshToken, http.StatusUnauthorized},
		{"invalid", auth.ErrInvalidRefreshToken, http.StatusUnauthorized},
		{"wrong type", auth.ErrWrongTokenType, http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			handler := newTestAuthHandler(newFakeUserStore(), &fakeJWTService{refreshErr: tc.err})

			w := postJSON(t, handler.RefreshToken, "/api/auth/refresh", RefreshTokenRequest{
				RefreshToken: "stale-token",
			})
			assert.Equal(t, tc.expectCode, w.Code)
		})
	}
}
