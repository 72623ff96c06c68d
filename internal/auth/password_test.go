package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPassword("s3cret!", hash))
	assert.False(t, CheckPassword("s3cret", hash))
	assert.False(t, CheckPassword("s3cret!", "not-a-hash"))
}

func TestHashPasswordIsSalted(t *testing.T) {
	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestPlaceholderHashMatchesNothingObvious(t *testing.T) {
	hash, err := PlaceholderHash()
	require.NoError(t, err)

	assert.NotEmpty(t, hash)
	assert.False(t, CheckPassword("", hash))
	assert.False(t, CheckPassword("password", hash))
}
