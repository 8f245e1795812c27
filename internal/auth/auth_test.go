package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupilot/docupilot/internal/apperr"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3rSecret", hash)
	assert.True(t, strings.HasPrefix(hash, "$2"))

	assert.True(t, VerifyPassword("Sup3rSecret", hash))
	assert.False(t, VerifyPassword("wrong", hash))
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", 73))
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue("user-1", "alice@example.com", "developer")
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "developer", claims.Role)
}

func TestTokenIssuer_RequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer("", time.Hour)
	assert.True(t, errors.Is(err, apperr.ErrConfiguration))
}

func TestTokenIssuer_RejectsBadTokens(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	cases := map[string]string{
		"garbage": "not-a-token",
		"empty":   "",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Verify(token)
			assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
		})
	}

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokenIssuer("other-secret", time.Hour)
		require.NoError(t, err)
		token, err := other.Issue("user-1", "a@b.co", "viewer")
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
	})

	t.Run("expired", func(t *testing.T) {
		short := &TokenIssuer{secret: []byte("test-secret"), expiry: time.Millisecond}
		token, err := short.Issue("user-1", "a@b.co", "viewer")
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)

		_, err = issuer.Verify(token)
		assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
	})
}

func TestValidateTitle(t *testing.T) {
	got, err := ValidateTitle("  Auth API  ")
	require.NoError(t, err)
	assert.Equal(t, "Auth API", got)

	_, err = ValidateTitle("ab")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = ValidateTitle(strings.Repeat("x", 201))
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestValidateContent(t *testing.T) {
	_, err := ValidateContent("too short")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = ValidateContent(strings.Repeat("x", 100001))
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	got, err := ValidateContent("long enough content")
	require.NoError(t, err)
	assert.Equal(t, "long enough content", got)
}

func TestValidateEmail(t *testing.T) {
	got, err := ValidateEmail(" Alice@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got)

	for _, bad := range []string{"not-an-email", "missing@tld", "@example.com"} {
		_, err := ValidateEmail(bad)
		assert.Error(t, err, bad)
	}
}

func TestValidatePassword(t *testing.T) {
	require.NoError(t, ValidatePassword("Passw0rd"))

	cases := map[string]string{
		"too short":    "Ab1",
		"no uppercase": "password1",
		"no lowercase": "PASSWORD1",
		"no digit":     "Password",
		"too long":     "Aa1" + strings.Repeat("x", 126),
	}
	for name, password := range cases {
		t.Run(name, func(t *testing.T) {
			assert.True(t, errors.Is(ValidatePassword(password), apperr.ErrValidation))
		})
	}
}

func TestValidateDocType(t *testing.T) {
	got, err := ValidateDocType("API")
	require.NoError(t, err)
	assert.Equal(t, "api", got)

	_, err = ValidateDocType("novel")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestValidateChunkSizeAndTopK(t *testing.T) {
	require.NoError(t, ValidateChunkSize(1000))
	assert.Error(t, ValidateChunkSize(99))
	assert.Error(t, ValidateChunkSize(5001))

	require.NoError(t, ValidateTopK(5))
	assert.Error(t, ValidateTopK(0))
	assert.Error(t, ValidateTopK(51))
}
