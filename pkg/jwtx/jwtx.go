// Package jwtx mints and checks the compact three-segment session tokens
// used across the service: base64url(header).base64url(claims).base64url(sig)
// with an HMAC-SHA256 signature over the first two segments.
package jwtx

import "errors"

// Signer is anything that can turn Claims into a signed compact token.
type Signer interface {
	Sign(Claims) (string, error)
}

// Verifier validates a compact token and gives back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrInvalidSig = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)
