package service

import (
	"fmt"
	"time"

	"github.com/momentum-app/momentum-backend/internal/repository"
)

// SessionView is the device-list shape shown to the account owner. The
// token hash never leaves the server.
type SessionView struct {
	ID        uint      `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	UserAgent string    `json:"user_agent,omitempty"`
	IP        string    `json:"ip,omitempty"`
}

type SessionService struct {
	sessions repository.SessionRepository
	now      func() time.Time
}

func NewSessionService(sessions repository.SessionRepository) *SessionService {
	return &SessionService{sessions: sessions, now: time.Now}
}

func (s *SessionService) ListActiveSessions(userID uint) ([]SessionView, error) {
	sessions, err := s.sessions.ListActiveByUserID(userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	views := make([]SessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, SessionView{
			ID:        session.ID,
			CreatedAt: session.CreatedAt,
			ExpiresAt: session.ExpiresAt,
			UserAgent: session.UserAgent,
			IP:        session.IP,
		})
	}
	return views, nil
}

// RevokeSession removes one device session. Revoking an already-gone
// session reports removed=false, not an error.
func (s *SessionService) RevokeSession(userID, sessionID uint) (bool, error) {
	removed, err := s.sessions.DeleteByIDForUser(userID, sessionID)
	if err != nil {
		return false, fmt.Errorf("revoke session: %w", err)
	}
	return removed, nil
}
