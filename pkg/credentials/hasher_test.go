package credentials

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgon2Hasher(t *testing.T) {
	hasher := NewArgon2Hasher(DefaultArgon2Params())

	t.Run("ValidPassword", func(t *testing.T) {
		password := "validPassword123!"
		hashed, err := hasher.Hash(password)
		assert.NoError(t, err)
		assert.True(t, strings.HasPrefix(hashed, "$argon2id$"))

		match, err := hasher.Verify(password, hashed)
		assert.NoError(t, err)
		assert.True(t, match, "The password should match the hashed password")
	})

	t.Run("IncorrectPassword", func(t *testing.T) {
		hashed, err := hasher.Hash("correctPassword1!")
		assert.NoError(t, err)

		match, err := hasher.Verify("incorrectPassword1!", hashed)
		assert.NoError(t, err)
		assert.False(t, match, "Incorrect password should not match the hashed password")
	})

	t.Run("FreshSaltPerHash", func(t *testing.T) {
		password := "samePassword1!"
		first, err := hasher.Hash(password)
		assert.NoError(t, err)
		second, err := hasher.Hash(password)
		assert.NoError(t, err)
		assert.NotEqual(t, first, second, "Hashing twice should produce different encoded strings")

		match, err := hasher.Verify(password, first)
		assert.NoError(t, err)
		assert.True(t, match)
		match, err = hasher.Verify(password, second)
		assert.NoError(t, err)
		assert.True(t, match)
	})

	t.Run("EmptyPassword", func(t *testing.T) {
		_, err := hasher.Hash("")
		assert.Error(t, err)

		match, err := hasher.Verify("", "whatever")
		assert.Error(t, err)
		assert.False(t, match)
	})

	t.Run("CorruptedHash", func(t *testing.T) {
		match, err := hasher.Verify("password", "invalidHash")
		assert.Error(t, err)
		assert.False(t, match, "Corrupted hashed password should not match")
	})

	t.Run("TamperedHash", func(t *testing.T) {
		hashed, err := hasher.Hash("somePassword1!")
		assert.NoError(t, err)

		tampered := strings.Replace(hashed, "argon2id", "argon2i", 1)
		match, err := hasher.Verify("somePassword1!", tampered)
		assert.Error(t, err)
		assert.False(t, match)
	})
}
