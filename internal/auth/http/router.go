// Package http exposes the auth service over HTTP: login, refresh, logout,
// userinfo, account management, and health probes.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rollcall-hq/rollcall/internal/auth/gate"
	"github.com/rollcall-hq/rollcall/internal/auth/revoke"
	"github.com/rollcall-hq/rollcall/internal/auth/service"
	"github.com/rollcall-hq/rollcall/internal/auth/store"
	"github.com/rollcall-hq/rollcall/pkg/httpx"
	"github.com/rollcall-hq/rollcall/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	gate         *gate.Gate
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store          store.Store
	revoked        revoke.Store
	SessionService *service.SessionService
	UserService    *service.UserService
}

func NewRouter(
	g *gate.Gate,
	buildVersion string,
	st store.Store,
	revoked revoke.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		gate:         g,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		revoked:      revoked,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSessions()
	r.registerUsers()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSessions() {
	// POST /login - strict rate limit (authentication attempts)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(&LoginHandler{Sessions: r.SessionService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /refresh - moderate rate limit; holders of a refresh token are
	// already authenticated, but the endpoint still mints credentials.
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(&RefreshHandler{Sessions: r.SessionService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /logout - moderate rate limit, no authn: revoking a token you
	// hold must work even when the access token already expired.
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(&LogoutHandler{Sessions: r.SessionService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerUsers() {
	r.Mux.Handle("GET /v1/userinfo",
		httpx.Chain(&UserInfoHandler{Users: r.UserService},
			httpx.RateLimitByIP(httpx.LenientLimit),
			Authn(r.gate),
		),
	)

	r.Mux.Handle("POST /v1/users",
		httpx.Chain(&CreateUserHandler{Users: r.UserService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
			Authn(r.gate),
			RequireRole(roleAdmin),
		),
	)

	r.Mux.Handle("POST /v1/users/password",
		httpx.Chain(&ChangePasswordHandler{Users: r.UserService},
			httpx.RateLimitByIP(httpx.StrictLimit),
			Authn(r.gate),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.revoked))
}
