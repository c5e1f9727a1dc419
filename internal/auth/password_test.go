package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashVerifyPassword(t *testing.T) {
	// Low cost keeps the test fast; cost is configuration, not behaviour.
	hash, err := HashPassword("secret1", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	assert.True(t, VerifyPassword(hash, "secret1"))
	assert.False(t, VerifyPassword(hash, "secret2"))
	assert.False(t, VerifyPassword("", "secret1"))
}

func TestHashPasswordDistinctSalts(t *testing.T) {
	h1, err := HashPassword("secret1", 4)
	require.NoError(t, err)
	h2, err := HashPassword("secret1", 4)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
