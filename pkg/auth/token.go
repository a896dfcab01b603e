package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMissingToken     = errors.New("missing authentication token")
)

// ExtractBearer pulls the token out of an Authorization header value. The
// scheme is matched case-insensitively; anything other than
// "Bearer <token>" reports false.
func ExtractBearer(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

// Fingerprint returns a short, non-reversible digest of a bearer token,
// safe to embed in cache keys and log lines.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

// Validator checks bearer tokens presented to the gateway. With a secret
// configured it verifies HS256 signature and expiry locally; without one,
// tokens are passed through unverified and row-level authorization is left
// to the backing store.
type Validator struct {
	secretKey []byte
}

// NewValidator creates a validator. An empty secret selects pass-through
// mode.
func NewValidator(secret string) *Validator {
	v := &Validator{}
	if secret != "" {
		v.secretKey = []byte(secret)
	}
	return v
}

// Validate checks the token and returns the subject claim when one can be
// read. In pass-through mode the subject is extracted on a best-effort
// basis and validation never fails.
func (v *Validator) Validate(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrMissingToken
	}

	if v.secretKey == nil {
		claims := jwt.MapClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
			return "", nil
		}
		sub, _ := claims.GetSubject()
		return sub, nil
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Method)
		}
		return v.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return "", ErrInvalidSignature
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	sub, _ := claims.GetSubject()
	return sub, nil
}
