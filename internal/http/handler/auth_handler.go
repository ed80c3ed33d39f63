package handler

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/mail"
	"strings"

	"github.com/momentum-app/momentum-backend/internal/http/middleware"
	"github.com/momentum-app/momentum-backend/internal/http/response"
	"github.com/momentum-app/momentum-backend/internal/observability"
	"github.com/momentum-app/momentum-backend/internal/service"
)

type AuthHandler struct {
	auth service.AuthAPI
}

func NewAuthHandler(auth service.AuthAPI) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := missingFields(map[string]string{"name": req.Name, "email": req.Email, "password": req.Password}); len(fields) > 0 {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "missing required fields", map[string]any{"fields": fields})
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid email address", nil)
		return
	}
	if len(req.Password) < 8 {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "password must be at least 8 characters", nil)
		return
	}

	result, err := h.auth.Register(req.Name, req.Email, req.Password, clientInfo(r))
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			response.Error(w, r, http.StatusConflict, "EMAIL_TAKEN", "an account with this email already exists", nil)
			return
		}
		internalError(w, r, err)
		return
	}
	observability.Audit(r, "auth.register", "user_id", result.User.ID)
	response.JSON(w, r, http.StatusCreated, result)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := missingFields(map[string]string{"email": req.Email, "password": req.Password}); len(fields) > 0 {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "missing required fields", map[string]any{"fields": fields})
		return
	}

	result, err := h.auth.Login(req.Email, req.Password, clientInfo(r))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Error(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password", nil)
			return
		}
		internalError(w, r, err)
		return
	}
	observability.Audit(r, "auth.login", "user_id", result.User.ID)
	response.JSON(w, r, http.StatusOK, result)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.auth.Refresh(req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingRefreshToken):
			response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "refresh token is required", nil)
		case errors.Is(err, service.ErrInvalidRefreshToken):
			response.Error(w, r, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "refresh token is invalid or revoked", nil)
		default:
			internalError(w, r, err)
		}
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Logout revokes one session when a refresh token is supplied, or
// every session for the user when the body omits it.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
		return
	}
	var req logoutRequest
	if r.Body != nil && r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	if err := h.auth.Logout(userID, req.RefreshToken); err != nil {
		internalError(w, r, err)
		return
	}
	observability.Audit(r, "auth.logout", "user_id", userID, "all_devices", req.RefreshToken == "")
	response.Message(w, r, http.StatusOK, "logged out", nil)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
		return
	}
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := missingFields(map[string]string{"currentPassword": req.CurrentPassword, "newPassword": req.NewPassword}); len(fields) > 0 {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "missing required fields", map[string]any{"fields": fields})
		return
	}
	if len(req.NewPassword) < 8 {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "password must be at least 8 characters", nil)
		return
	}

	if err := h.auth.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Error(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "current password is incorrect", nil)
		case errors.Is(err, service.ErrUserNotFound):
			response.Error(w, r, http.StatusNotFound, "USER_NOT_FOUND", "user not found", nil)
		default:
			internalError(w, r, err)
		}
		return
	}
	observability.Audit(r, "auth.password_change", "user_id", userID)
	response.Message(w, r, http.StatusOK, "password changed, please log in again", nil)
}

type passwordForgotRequest struct {
	Email string `json:"email"`
}

// PasswordForgot replies with the same message whether or not the
// email maps to an account.
func (h *AuthHandler) PasswordForgot(w http.ResponseWriter, r *http.Request) {
	var req passwordForgotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "email is required", nil)
		return
	}

	if err := h.auth.RequestPasswordReset(req.Email); err != nil {
		internalError(w, r, err)
		return
	}
	response.Message(w, r, http.StatusOK, "if an account exists for that email, a reset link has been sent", nil)
}

type passwordResetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) PasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := missingFields(map[string]string{"token": req.Token, "password": req.Password}); len(fields) > 0 {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "missing required fields", map[string]any{"fields": fields})
		return
	}
	if len(req.Password) < 8 {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "password must be at least 8 characters", nil)
		return
	}

	if err := h.auth.ResetPassword(req.Token, req.Password); err != nil {
		if errors.Is(err, service.ErrInvalidResetToken) {
			response.Error(w, r, http.StatusBadRequest, "INVALID_RESET_TOKEN", "reset token is invalid or expired", nil)
			return
		}
		internalError(w, r, err)
		return
	}
	response.Message(w, r, http.StatusOK, "password has been reset, please log in", nil)
}

type passwordStrengthRequest struct {
	Password string `json:"password"`
}

func (h *AuthHandler) PasswordStrength(w http.ResponseWriter, r *http.Request) {
	var req passwordStrengthRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	response.JSON(w, r, http.StatusOK, h.auth.CheckPasswordStrength(req.Password))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		response.Error(w, r, http.StatusBadRequest, "INVALID_JSON", "request body is not valid JSON", nil)
		return false
	}
	return true
}

func missingFields(fields map[string]string) []string {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	observability.Audit(r, "http.internal_error", "error", err.Error())
	response.Error(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "something went wrong", nil)
}

func clientInfo(r *http.Request) service.ClientInfo {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return service.ClientInfo{UserAgent: r.UserAgent(), IP: ip}
}
