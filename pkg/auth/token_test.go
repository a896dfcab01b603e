package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, secret string, sub string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(expiresIn).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{"standard", "Bearer abc123", "abc123", true},
		{"lowercase scheme", "bearer abc123", "abc123", true},
		{"mixed case scheme", "BeArEr abc123", "abc123", true},
		{"empty header", "", "", false},
		{"missing token", "Bearer ", "", false},
		{"wrong scheme", "Basic abc123", "", false},
		{"bare token", "abc123", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractBearer(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, Fingerprint("token-a"), Fingerprint("token-a"))
	assert.NotEqual(t, Fingerprint("token-a"), Fingerprint("token-b"))
	assert.NotContains(t, Fingerprint("secret-bearer-token"), "secret")
	assert.Len(t, Fingerprint("anything"), 16)
}

func TestValidator_PassThrough(t *testing.T) {
	v := NewValidator("")

	// Opaque tokens are accepted as-is.
	sub, err := v.Validate("not-a-jwt")
	require.NoError(t, err)
	assert.Empty(t, sub)

	// A parseable JWT yields its subject even without verification.
	token := signedToken(t, "whatever", "user-1", time.Hour)
	sub, err = v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
}

func TestValidator_VerifiesSignature(t *testing.T) {
	v := NewValidator("topsecret")

	sub, err := v.Validate(signedToken(t, "topsecret", "user-2", time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "user-2", sub)

	_, err = v.Validate(signedToken(t, "wrongsecret", "user-2", time.Hour))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestValidator_RejectsExpired(t *testing.T) {
	v := NewValidator("topsecret")

	_, err := v.Validate(signedToken(t, "topsecret", "user-3", -time.Minute))
	assert.ErrorIs(t, err, ErrExpiredToken)
}
