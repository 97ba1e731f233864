package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rollcall-hq/rollcall/internal/auth/service"
	"github.com/rollcall-hq/rollcall/pkg/httpx"
	"github.com/rollcall-hq/rollcall/pkg/slogx"
)

type RefreshHandler struct {
	Sessions *service.SessionService
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ServeHTTP handles POST /v1/auth/refresh.
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		httpx.ErrInvalidRequest.Write(w)
		return
	}

	access, expiresIn, err := h.Sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			httpx.ErrInvalidGrant.Write(w)
			return
		}
		log.Error("refresh failed", "err", err)
		httpx.ErrServerError.Write(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, refreshResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
	})
}
