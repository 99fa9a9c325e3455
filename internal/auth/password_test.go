package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Secret123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hash)

	assert.True(t, VerifyPassword(hash, "Secret123"))
	assert.False(t, VerifyPassword(hash, "secret123"))
	assert.False(t, VerifyPassword(hash, ""))
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	// A corrupted stored hash must read as a failed verification, not a
	// panic or error.
	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "Secret123"))
	assert.False(t, VerifyPassword("", "Secret123"))
}

func TestHashPasswordDistinctSalts(t *testing.T) {
	h1, err := HashPassword("Secret123", bcrypt.MinCost)
	require.NoError(t, err)
	h2, err := HashPassword("Secret123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
