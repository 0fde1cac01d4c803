package users_test

import (
	"testing"

	users "github.com/goliatone/go-users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := users.HashPassword("s3cret-passw0rd")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "s3cret-passw0rd", hash)

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := users.HashPassword("")
		assert.ErrorIs(t, err, users.ErrNoEmptyString)
	})

	t.Run("same password yields distinct hashes", func(t *testing.T) {
		other, err := users.HashPassword("s3cret-passw0rd")
		require.NoError(t, err)
		assert.NotEqual(t, hash, other)
	})
}

func TestVerifyPassword(t *testing.T) {
	hash, err := users.HashPassword("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, users.VerifyPassword("correct horse battery staple", hash))
	assert.False(t, users.VerifyPassword("correct horse battery stapel", hash))

	t.Run("malformed stored hash verifies false", func(t *testing.T) {
		assert.False(t, users.VerifyPassword("anything", "not-a-bcrypt-hash"))
		assert.False(t, users.VerifyPassword("anything", ""))
	})
}

func TestBcryptHasher(t *testing.T) {
	hasher := users.BcryptHasher{}

	hash, err := hasher.Hash("pa55word!")
	require.NoError(t, err)

	assert.True(t, hasher.Verify("pa55word!", hash))
	assert.False(t, hasher.Verify("pa55word", hash))
}
