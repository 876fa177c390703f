package auth

import (
	"strings"
	"testing"
	"time"

	"lobby-chat/errors"

	"github.com/stretchr/testify/require"
)

func TestTokenManager_GenerateAndValidate(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager([]byte("test-signing-key"), time.Hour)

	signed, sessionID, err := manager.Generate("user-1", "Alice", []string{"user"})
	req.NoError(err)
	req.NotEmpty(signed)
	req.NotEmpty(sessionID)

	claims, err := manager.Validate(signed)
	req.NoError(err)
	req.Equal("user-1", claims.UserID)
	req.Equal("Alice", claims.Name)
	req.Equal([]string{"user"}, claims.Roles)
	req.Equal(sessionID, claims.ID)
}

func TestTokenManager_EachTokenGetsFreshSessionID(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager([]byte("test-signing-key"), time.Hour)

	_, first, err := manager.Generate("user-1", "Alice", nil)
	req.NoError(err)
	_, second, err := manager.Generate("user-1", "Alice", nil)
	req.NoError(err)
	req.NotEqual(first, second)
}

func TestTokenManager_RejectsWrongKey(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager([]byte("test-signing-key"), time.Hour)
	other := NewTokenManager([]byte("another-key"), time.Hour)

	signed, _, err := manager.Generate("user-1", "Alice", nil)
	req.NoError(err)

	_, err = other.Validate(signed)
	req.Error(err)
}

func TestTokenManager_RejectsExpiredToken(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager([]byte("test-signing-key"), -time.Minute)

	signed, _, err := manager.Generate("user-1", "Alice", nil)
	req.NoError(err)

	_, err = manager.Validate(signed)
	req.Error(err)
}

func TestTokenManager_RejectsGarbage(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager([]byte("test-signing-key"), time.Hour)

	_, err := manager.Validate("not.a.token")
	req.Error(err)
}

func TestHashPassword_RoundTrip(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("CorrectHorse1!")
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	ok, err := ComparePassword("CorrectHorse1!", hash)
	req.NoError(err)
	req.True(ok)

	ok, err = ComparePassword("WrongHorse1!", hash)
	req.NoError(err)
	req.False(ok)
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	req := require.New(t)

	first, err := HashPassword("CorrectHorse1!")
	req.NoError(err)
	second, err := HashPassword("CorrectHorse1!")
	req.NoError(err)
	req.NotEqual(first, second)
}

func TestComparePassword_MalformedHash(t *testing.T) {
	req := require.New(t)

	_, err := ComparePassword("whatever", "not-an-encoded-hash")
	req.Error(err)
}

func TestValidateRegister(t *testing.T) {
	t.Run("should accept a valid request", func(t *testing.T) {
		req := require.New(t)
		err := ValidateRegister(RegisterRequest{Username: "alice", Password: "ComplexPass123!"})
		req.NoError(err)
	})

	t.Run("should reject a short username", func(t *testing.T) {
		req := require.New(t)
		err := ValidateRegister(RegisterRequest{Username: "al", Password: "ComplexPass123!"})
		req.Error(err)
	})

	t.Run("should reject a short password", func(t *testing.T) {
		req := require.New(t)
		err := ValidateRegister(RegisterRequest{Username: "alice", Password: "Short1!"})
		req.Error(err)
	})

	t.Run("should reject a password without complexity", func(t *testing.T) {
		req := require.New(t)
		err := ValidateRegister(RegisterRequest{Username: "alice", Password: "alllowercasenodigits"})
		req.ErrorIs(err, errors.ErrInvalidPassword)
	})
}
