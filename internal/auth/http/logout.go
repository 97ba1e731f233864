package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rollcall-hq/rollcall/internal/auth/service"
	"github.com/rollcall-hq/rollcall/pkg/httpx"
)

type LogoutHandler struct {
	Sessions *service.SessionService
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ServeHTTP handles POST /v1/auth/logout. It revokes the bearer access token
// from the Authorization header plus any refresh token sent in the body, and
// always answers 200: logout of an invalid, expired, or already revoked
// token is a success from the client's point of view.
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var tokens []string

	if header := r.Header.Get("Authorization"); header != "" {
		if scheme, token, found := strings.Cut(header, " "); found && strings.EqualFold(scheme, "Bearer") {
			tokens = append(tokens, strings.TrimSpace(token))
		}
	}

	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
		tokens = append(tokens, req.RefreshToken)
	}

	h.Sessions.Logout(r.Context(), tokens...)

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
