package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/docupilot/docupilot/internal/apperr"
)

// DefaultTokenExpiry is the access token lifetime when none is configured.
const DefaultTokenExpiry = 30 * time.Minute

// Claims is the JWT payload carried by access tokens. The user ID rides in
// the registered sub claim.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer creates and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
}

// NewTokenIssuer creates a token issuer. The secret is required.
func NewTokenIssuer(secret string, expiry time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: JWT secret is required", apperr.ErrConfiguration)
	}
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &TokenIssuer{secret: []byte(secret), expiry: expiry}, nil
}

// Issue creates a signed access token for the given user.
func (t *TokenIssuer) Issue(userID, email, role string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims.
// Expired, malformed, or wrongly-signed tokens all map to ErrUnauthorized.
func (t *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid or expired token", apperr.ErrUnauthorized)
	}
	return claims, nil
}
