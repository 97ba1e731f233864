// Package gate authenticates incoming requests: it extracts the bearer
// token, verifies it, and checks the revocation set before handing back a
// Principal. Token verification alone never consults the revocation store;
// that check lives here so it happens exactly once per request.
package gate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rollcall-hq/rollcall/internal/auth/domain"
	"github.com/rollcall-hq/rollcall/internal/auth/revoke"
	"github.com/rollcall-hq/rollcall/pkg/jwtx"
)

var (
	ErrMissingCredentials = errors.New("gate: missing credentials")
	ErrInvalidToken       = errors.New("gate: invalid token")
	ErrExpiredToken       = errors.New("gate: expired token")
	ErrRevokedToken       = errors.New("gate: revoked token")
)

type Gate struct {
	verifier jwtx.Verifier
	revoked  revoke.Store
}

func New(verifier jwtx.Verifier, revoked revoke.Store) *Gate {
	return &Gate{verifier: verifier, revoked: revoked}
}

// Authenticate resolves the request to a verified Principal or a typed error.
func (g *Gate) Authenticate(r *http.Request) (domain.Principal, error) {
	token, err := bearerToken(r)
	if err != nil {
		return domain.Principal{}, err
	}

	claims, err := g.verifier.Verify(token)
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return domain.Principal{}, ErrExpiredToken
		}
		return domain.Principal{}, ErrInvalidToken
	}

	revoked, err := g.revoked.Contains(r.Context(), claims.ID)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("gate: revocation check: %w", err)
	}
	if revoked {
		return domain.Principal{}, ErrRevokedToken
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Principal{}, ErrInvalidToken
	}

	return domain.Principal{
		UserID:      claims.UserID,
		Email:       claims.Email,
		Role:        role,
		DisplayName: claims.DisplayName,
	}, nil
}

// bearerToken extracts the token from the Authorization header. The scheme
// comparison is case-insensitive per RFC 7235.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingCredentials
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingCredentials
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingCredentials
	}
	return token, nil
}

type principalKey struct{}

// ContextWithPrincipal stashes the authenticated principal for handlers
// downstream of the authn middleware.
func ContextWithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal set by the authn middleware.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}
