package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rollcall-hq/rollcall/internal/auth/domain"
	"github.com/rollcall-hq/rollcall/internal/auth/gate"
	"github.com/rollcall-hq/rollcall/internal/auth/service"
	"github.com/rollcall-hq/rollcall/pkg/httpx"
	"github.com/rollcall-hq/rollcall/pkg/slogx"
)

type CreateUserHandler struct {
	Users *service.UserService
}

type createUserRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
	Role        string `json:"role"`
}

type createUserResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// ServeHTTP handles POST /v1/users. Admin only, enforced by the router.
func (h *CreateUserHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		httpx.ErrInvalidRequest.Write(w)
		return
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		httpx.ErrInvalidRequest.Write(w)
		return
	}

	user, err := h.Users.CreateUser(ctx, req.Email, req.DisplayName, req.Password, role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			(&httpx.APIError{
				StatusCode:  http.StatusConflict,
				Code:        httpx.ErrorCodeInvalidRequest,
				Description: "email already registered",
			}).Write(w)
		case errors.Is(err, service.ErrWeakPassword):
			(&httpx.APIError{
				StatusCode:  http.StatusBadRequest,
				Code:        httpx.ErrorCodeInvalidRequest,
				Description: "password does not meet minimum length",
			}).Write(w)
		default:
			log.Error("create user failed", "err", err)
			httpx.ErrServerError.Write(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, createUserResponse{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role.String(),
	})
}

type ChangePasswordHandler struct {
	Users *service.UserService
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ServeHTTP handles POST /v1/users/password for the authenticated user.
func (h *ChangePasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	principal, ok := gate.PrincipalFromContext(ctx)
	if !ok {
		httpx.ErrInvalidToken.Write(w)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewPassword == "" {
		httpx.ErrInvalidRequest.Write(w)
		return
	}

	err := h.Users.ChangePassword(ctx, principal.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			httpx.ErrInvalidCredentials.Write(w)
		case errors.Is(err, service.ErrWeakPassword):
			(&httpx.APIError{
				StatusCode:  http.StatusBadRequest,
				Code:        httpx.ErrorCodeInvalidRequest,
				Description: "password does not meet minimum length",
			}).Write(w)
		default:
			log.Error("change password failed", "err", err)
			httpx.ErrServerError.Write(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
