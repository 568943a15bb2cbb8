package http

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/moodsync/server/internal/domain"
	"github.com/moodsync/server/internal/service"
	httpmw "github.com/moodsync/server/internal/transport/http/middleware"
	"github.com/moodsync/server/pkg/httputil"
)

// AuthAPI is implemented by *service.AuthService.
type AuthAPI interface {
	Register(ctx context.Context, in service.RegisterInput, meta domain.ClientMeta) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string, meta domain.ClientMeta) (*service.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string, meta domain.ClientMeta) (*service.AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID domain.UserID) (*domain.User, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, password, confirm string) error
	VerifyEmail(ctx context.Context, token string) error
	Authenticate(token string) (*service.Identity, error)
}

type AuthHandlers struct {
	Auth         AuthAPI
	MaxBodyBytes int64
	// RevealResetToken returns the reset token in the forgot-password response (dev only).
	RevealResetToken bool
}

func clientMeta(r *http.Request) domain.ClientMeta {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return domain.ClientMeta{UserAgent: r.UserAgent(), IP: ip}
}

func tokenResponse(res *service.AuthResult) TokenResponse {
	return TokenResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    int64(res.ExpiresIn.Seconds()),
		User:         toUser(res.User),
	}
}

// POST /api/auth/register
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var in RegisterRequest
	if err := httputil.DecodeJSON(w, r, h.MaxBodyBytes, &in); err != nil {
		httputil.Error(r.Context(), w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}
	res, err := h.Auth.Register(r.Context(), service.RegisterInput{
		Name:             in.Name,
		Email:            in.Email,
		MobileNumber:     in.MobileNumber,
		EmergencyContact: in.EmergencyContact,
		Password:         in.Password,
		ConfirmPassword:  in.ConfirmPassword,
		Role:             in.Role,
	}, clientMeta(r))
	if err != nil {
		writeError(w, r, "register failed", err)
		return
	}

	httputil.Created(w, tokenResponse(res))
}

// POST /api/auth/login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var in LoginRequest
	if err := httputil.DecodeJSON(w, r, h.MaxBodyBytes, &in); err != nil {
		httputil.Error(r.Context(), w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		httputil.Error(r.Context(), w, http.StatusBadRequest, "email and password are required", nil)
		return
	}
	res, err := h.Auth.Login(r.Context(), in.Email, in.Password, clientMeta(r))
	if err != nil {
		writeError(w, r, "login failed", err)
		return
	}

	httputil.OK(w, tokenResponse(res))
}

// POST /api/auth/refresh
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var in RefreshRequest
	if err := httputil.DecodeJSON(w, r, h.MaxBodyBytes, &in); err != nil {
		httputil.Error(r.Context(), w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}
	rt := strings.TrimSpace(in.RefreshToken)
	if rt == "" {
		httputil.Error(r.Context(), w, http.StatusBadRequest, "refreshToken is required", nil)
		return
	}
	res, err := h.Auth.Refresh(r.Context(), rt, clientMeta(r))
	if err != nil {
		writeError(w, r, "refresh failed", err)
		return
	}

	httputil.OK(w, tokenResponse(res))
}

// POST /api/auth/logout
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	var in RefreshRequest
	if err := httputil.DecodeJSON(w, r, h.MaxBodyBytes, &in); err != nil {
		httputil.Error(r.Context(), w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}
	if err := h.Auth.Logout(r.Context(), in.RefreshToken); err != nil {
		writeError(w, r, "logout failed", err)
		return
	}

	httputil.OK(w, map[string]string{"message": "logged out"})
}

// GET /api/auth/me
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := httpmw.IdentityFromCtx(r.Context())
	if !ok {
		httputil.Error(r.Context(), w, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	u, err := h.Auth.Me(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, "me failed", err)
		return
	}

	httputil.OK(w, map[string]any{"user": toUser(u)})
}

// POST /api/auth/forgot-password
func (h *AuthHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in ForgotPasswordRequest
	if err := httputil.DecodeJSON(w, r, h.MaxBodyBytes, &in); err != nil {
		httputil.Error(r.Context(), w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}
	token, err := h.Auth.ForgotPassword(r.Context(), in.Email)
	if err != nil {
		writeError(w, r, "forgot password failed", err)
		return
	}

	out := map[string]any{"message": "If that email is registered, a password reset link has been sent"}
	if h.RevealResetToken && token != "" {
		out["resetToken"] = token
	}
	httputil.OK(w, out)
}

// POST /api/auth/reset-password
func (h *AuthHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in ResetPasswordRequest
	if err := httputil.DecodeJSON(w, r, h.MaxBodyBytes, &in); err != nil {
		httputil.Error(r.Context(), w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}
	if err := h.Auth.ResetPassword(r.Context(), in.Token, in.Password, in.ConfirmPassword); err != nil {
		writeError(w, r, "reset password failed", err)
		return
	}

	httputil.OK(w, map[string]string{"message": "password has been reset"})
}

// GET /api/auth/verify-email/{token}
func (h *AuthHandlers) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.VerifyEmail(r.Context(), chi.URLParam(r, "token")); err != nil {
		writeError(w, r, "verify email failed", err)
		return
	}

	httputil.OK(w, map[string]string{"message": "email verified"})
}
