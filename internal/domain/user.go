package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User-specific validation errors
var (
	ErrUserIDEmpty          = errors.New("user ID cannot be empty")
	ErrUserEmailEmpty       = errors.New("email cannot be empty")
	ErrUserEmailInvalid     = errors.New("invalid email format")
	ErrUserPasswordEmpty    = errors.New("password cannot be empty")
	ErrUserPasswordTooShort = errors.New("password must be at least 12 characters long")
	ErrUserPasswordTooLong  = errors.New("password must be at most 72 characters long")
)

// User is a registered owner of a study-item collection. Each user's
// collection and study session are independent of every other user's.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Password       string    `json:"-"` // plaintext, only populated during registration
	HashedPassword string    `json:"-"` // never exposed in JSON
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser creates a new User with the given email and plaintext password.
// The caller is responsible for hashing the password before storing the user.
func NewUser(email, password string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Email:     email,
		Password:  password,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrUserIDEmpty
	}

	if u.Email == "" {
		return ErrUserEmailEmpty
	}

	if !validEmail(u.Email) {
		return ErrUserEmailInvalid
	}

	if u.Password != "" {
		// Length bounds only; bcrypt rejects input beyond 72 bytes.
		if len(u.Password) < 12 {
			return ErrUserPasswordTooShort
		}
		if len(u.Password) > 72 {
			return ErrUserPasswordTooLong
		}
		return nil
	}

	// Existing users loaded from the store carry only the hash.
	if u.HashedPassword == "" {
		return ErrUserPasswordEmpty
	}

	return nil
}

// validEmail performs a minimal structural check: a local part, an @, and a
// domain containing an interior dot. Full RFC 5322 validation is left to the
// request-level validator tags.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	dot := strings.Index(domain, ".")
	return dot > 0 && dot < len(domain)-1
}
