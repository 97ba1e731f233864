package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HS256 signs and verifies tokens with a single server-held secret. It
// implements both Signer and Verifier; the secret is injected once at
// construction and never re-read, so the same instance is safe to share
// across concurrent requests.
type HS256 struct {
	secret []byte
	issuer string
	parser *jwt.Parser

	// now is swappable for expiry-boundary tests.
	now func() time.Time
}

// NewHS256 builds a signer/verifier around the given secret. The issuer is
// stamped into every minted token and enforced on every verified one.
func NewHS256(secret []byte, issuer string) (*HS256, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwtx: empty signing secret")
	}

	return &HS256{
		secret: secret,
		issuer: issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			// Expiry and issuer are checked by hand below so the boundary
			// semantics stay in one documented place (Claims.ValidateExpiry).
			jwt.WithoutClaimsValidation(),
		),
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Sign produces header.claims.signature for the given claims.
func (h *HS256) Sign(c Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(h.secret)
}

// Verify checks structure, signature, expiry, and issuer, in that order.
// All expected bad input comes back as one of the package sentinel errors;
// callers should treat ErrMalformed and ErrInvalidSig identically when
// reporting to clients so the failure mode is not an oracle.
func (h *HS256) Verify(token string) (Claims, error) {
	var claims Claims

	_, err := h.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return h.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			// Signature mismatch, or a token declaring an alg outside the
			// HS256 allowlist (the parser reports both the same way).
			return Claims{}, ErrInvalidSig
		default:
			// Wrong segment count, bad base64, unparseable claims JSON.
			return Claims{}, ErrMalformed
		}
	}

	if err := claims.ValidateExpiry(h.now()); err != nil {
		return Claims{}, err
	}

	if err := claims.ValidateIssuer(h.issuer); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

// DecodeUnverified parses the claims segment WITHOUT checking the signature.
// Its only legitimate use is recovering the jti of a token that is being
// thrown away at logout. Never authorize anything off its result.
func DecodeUnverified(token string) (Claims, error) {
	var claims Claims

	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}, ErrMalformed
	}

	return claims, nil
}
