package domain

import (
	"strings"
	"time"
)

// User is the credential record plus the profile fields the rest of the
// app reads. Credential fields never serialize; handlers return SafeView.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:50;not null" json:"name"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:128;not null" json:"-"`

	AvatarURL string `gorm:"size:512" json:"avatar_url,omitempty"`
	Bio       string `gorm:"size:500" json:"bio,omitempty"`
	Timezone  string `gorm:"size:64;default:UTC" json:"timezone,omitempty"`

	PasswordResetTokenHash string     `gorm:"size:64;index" json:"-"`
	PasswordResetExpiresAt *time.Time `json:"-"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// SafeUser is the externally visible shape of a user.
type SafeUser struct {
	ID          uint       `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	Bio         string     `json:"bio,omitempty"`
	Timezone    string     `json:"timezone,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (u *User) SafeView() SafeUser {
	return SafeUser{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		AvatarURL:   u.AvatarURL,
		Bio:         u.Bio,
		Timezone:    u.Timezone,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// NormalizeEmail is the canonical form used for lookups and the unique
// index: trimmed and lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
