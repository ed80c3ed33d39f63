package service

import (
	"github.com/momentum-app/momentum-backend/internal/domain"
	"github.com/momentum-app/momentum-backend/internal/security"
)

// AuthAPI is what the HTTP handlers program against.
type AuthAPI interface {
	Register(name, email, password string, client ClientInfo) (*AuthResult, error)
	Login(email, password string, client ClientInfo) (*AuthResult, error)
	Refresh(refreshToken string) (*RefreshResult, error)
	Logout(userID uint, refreshToken string) error
	ChangePassword(userID uint, currentPassword, newPassword string) error
	RequestPasswordReset(email string) error
	ResetPassword(rawToken, newPassword string) error
	CheckPasswordStrength(password string) security.StrengthReport
	GetUser(userID uint) (*domain.SafeUser, error)
}

type SessionAPI interface {
	ListActiveSessions(userID uint) ([]SessionView, error)
	RevokeSession(userID, sessionID uint) (bool, error)
}

var (
	_ AuthAPI    = (*AuthService)(nil)
	_ SessionAPI = (*SessionService)(nil)
)
