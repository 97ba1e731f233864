package http

import (
	"net/http"

	"github.com/rollcall-hq/rollcall/internal/auth/gate"
	"github.com/rollcall-hq/rollcall/internal/auth/service"
	"github.com/rollcall-hq/rollcall/pkg/httpx"
	"github.com/rollcall-hq/rollcall/pkg/slogx"
)

type UserInfoHandler struct {
	Users *service.UserService
}

type userInfoResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// ServeHTTP handles GET /v1/userinfo. The store is the source of truth for
// the response; tokens minted before a rename or role change may carry stale
// fields.
func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	principal, ok := gate.PrincipalFromContext(ctx)
	if !ok {
		httpx.ErrInvalidToken.Write(w)
		return
	}

	user, err := h.Users.GetUserByID(ctx, principal.UserID)
	if err != nil {
		log.Warn("failed to load user", "user_id", principal.UserID, "err", err)
		httpx.ErrServerError.Write(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, userInfoResponse{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role.String(),
	})
}
