package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptVerifier(t *testing.T) {
	t.Parallel()
	verifier := NewBcryptVerifier()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse-battery"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.NoError(t, verifier.Compare(string(hash), "correct-horse-battery"))
	assert.Error(t, verifier.Compare(string(hash), "wrong-password"))
	assert.Error(t, verifier.Compare("not-a-hash", "correct-horse-battery"))
}
