package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/momentum-app/momentum-backend/internal/http/middleware"
	"github.com/momentum-app/momentum-backend/internal/http/response"
	"github.com/momentum-app/momentum-backend/internal/observability"
	"github.com/momentum-app/momentum-backend/internal/service"
)

type UserHandler struct {
	auth     service.AuthAPI
	sessions service.SessionAPI
}

func NewUserHandler(auth service.AuthAPI, sessions service.SessionAPI) *UserHandler {
	return &UserHandler{auth: auth, sessions: sessions}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
		return
	}
	user, err := h.auth.GetUser(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Error(w, r, http.StatusNotFound, "USER_NOT_FOUND", "user not found", nil)
			return
		}
		internalError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"user": user})
}

func (h *UserHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
		return
	}
	views, err := h.sessions.ListActiveSessions(userID)
	if err != nil {
		internalError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"sessions": views})
}

func (h *UserHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
		return
	}
	sessionID, err := strconv.ParseUint(chi.URLParam(r, "session_id"), 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "session id must be numeric", nil)
		return
	}
	removed, err := h.sessions.RevokeSession(userID, uint(sessionID))
	if err != nil {
		internalError(w, r, err)
		return
	}
	if !removed {
		response.Error(w, r, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found", nil)
		return
	}
	observability.Audit(r, "session.revoke", "user_id", userID, "session_id", sessionID)
	response.Message(w, r, http.StatusOK, "session revoked", nil)
}
