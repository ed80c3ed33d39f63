package domain

import "time"

// RefreshSession is one server-tracked logged-in device. One row per
// session instead of an embedded array so that concurrent logins are
// plain INSERTs and cannot clobber each other.
type RefreshSession struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	TokenHash string    `gorm:"size:128;uniqueIndex;not null" json:"-"`
	UserAgent string    `gorm:"size:512" json:"user_agent"`
	IP        string    `gorm:"size:64" json:"ip"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Active reports whether the session is still usable at t.
func (s *RefreshSession) Active(t time.Time) bool {
	return s.ExpiresAt.After(t)
}
