package http

import (
	"errors"
	"net/http"
	"slices"

	"github.com/rollcall-hq/rollcall/internal/auth/domain"
	"github.com/rollcall-hq/rollcall/internal/auth/gate"
	"github.com/rollcall-hq/rollcall/pkg/httpx"
	"github.com/rollcall-hq/rollcall/pkg/slogx"
)

// Local aliases so route registration reads cleanly.
const (
	roleStudent = domain.RoleStudent
	roleCoach   = domain.RoleCoach
	roleAdmin   = domain.RoleAdmin
)

// Authn authenticates the request through the gate and stores the principal
// in the request context. Expiry gets its own error code so clients know to
// refresh; every other failure collapses to invalid_token.
func Authn(g *gate.Gate) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := g.Authenticate(r)
			if err != nil {
				switch {
				case errors.Is(err, gate.ErrExpiredToken):
					httpx.ErrTokenExpired.Write(w)
				case errors.Is(err, gate.ErrMissingCredentials),
					errors.Is(err, gate.ErrInvalidToken),
					errors.Is(err, gate.ErrRevokedToken):
					httpx.ErrInvalidToken.Write(w)
				default:
					slogx.FromContext(r.Context()).Error("authentication failed", "err", err)
					httpx.ErrServerError.Write(w)
				}
				return
			}

			ctx := gate.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows only principals holding one of the listed roles. It
// must run inside Authn.
func RequireRole(roles ...domain.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := gate.PrincipalFromContext(r.Context())
			if !ok {
				httpx.ErrInvalidToken.Write(w)
				return
			}

			if !slices.Contains(roles, principal.Role) {
				httpx.ErrForbidden.Write(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
