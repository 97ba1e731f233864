package jwtx

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants for the access/refresh pair.
// These provide sensible security defaults but can be overridden per-service.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	// Short-lived for security.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	// Longer-lived for user convenience.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Identity carries the facts about a user that get baked into a token.
// Access and refresh tokens minted for the same login carry the same
// identity; only lifetimes and token IDs differ.
type Identity struct {
	UserID      string
	Email       string
	Role        string
	DisplayName string
}

// Claims are the signed token payload. The wire names (user_id, email, role,
// display_name) are part of the contract with the record-management frontend,
// so keep changes additive.
type Claims struct {
	jwt.RegisteredClaims

	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name,omitempty"`
}

// Identity extracts the identity fields back out of verified claims.
func (c *Claims) Identity() Identity {
	return Identity{
		UserID:      c.UserID,
		Email:       c.Email,
		Role:        c.Role,
		DisplayName: c.DisplayName,
	}
}

// NewClaims builds minimally-correct claims for one token: identity plus
// issuer, iat/exp bracketing the given ttl, and a fresh random jti.
func NewClaims(id Identity, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		UserID:      id.UserID,
		Email:       id.Email,
		Role:        id.Role,
		DisplayName: id.DisplayName,
	}
}

// NewJTI returns a random identifier for the "jti" claim: 16 bytes of
// entropy, hex-encoded (32 chars). The jti is what the revocation store
// keys on, so it must be unique per issued token.
func NewJTI() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches the expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateExpiry ensures the token hasn't expired. The boundary is
// inclusive: a token presented in its exact expiry second is still valid,
// and invalid the instant now > exp. There is no clock-skew leeway; issuer
// and verifier are assumed to share a clock.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt == nil {
		return ErrInvalidClaim
	}

	if now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}

	return nil
}
