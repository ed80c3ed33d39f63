package service

import "errors"

// Failure kinds surfaced to the HTTP layer. Credential and token
// failures are deliberately undifferentiated: a caller can never learn
// which part of a multi-factor check failed.
var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrMissingRefreshToken = errors.New("refresh token required")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")
	ErrUserNotFound        = errors.New("user not found")
)
