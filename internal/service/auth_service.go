package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/momentum-app/momentum-backend/internal/domain"
	"github.com/momentum-app/momentum-backend/internal/notify"
	"github.com/momentum-app/momentum-backend/internal/observability"
	"github.com/momentum-app/momentum-backend/internal/repository"
	"github.com/momentum-app/momentum-backend/internal/security"
)

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type AuthResult struct {
	User   domain.SafeUser `json:"user"`
	Tokens TokenPair       `json:"tokens"`
}

// RefreshResult carries the new access token and, only when rotation is
// enabled, a replacement refresh token.
type RefreshResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// ClientInfo is advisory request metadata stored with each session.
type ClientInfo struct {
	UserAgent string
	IP        string
}

// AuthService is the session authority: the only writer of refresh
// sessions, password hashes and reset challenges.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	jwtMgr     *security.JWTManager
	mailer     notify.Mailer
	logger     *slog.Logger
	pepper     string
	bcryptCost int
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
	// rotation-on-refresh is a policy decision, not hardcoded either way
	rotateRefresh bool
	frontendURL   string
	now           func() time.Time
}

type AuthServiceOptions struct {
	Pepper        string
	BcryptCost    int
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ResetTTL      time.Duration
	RotateRefresh bool
	FrontendURL   string
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	jwtMgr *security.JWTManager,
	mailer notify.Mailer,
	logger *slog.Logger,
	opts AuthServiceOptions,
) *AuthService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = security.DefaultBcryptCost
	}
	return &AuthService{
		users:         users,
		sessions:      sessions,
		jwtMgr:        jwtMgr,
		mailer:        mailer,
		logger:        logger,
		pepper:        opts.Pepper,
		bcryptCost:    opts.BcryptCost,
		accessTTL:     opts.AccessTTL,
		refreshTTL:    opts.RefreshTTL,
		resetTTL:      opts.ResetTTL,
		rotateRefresh: opts.RotateRefresh,
		frontendURL:   opts.FrontendURL,
		now:           time.Now,
	}
}

// Register creates the credential record and logs the first device in.
// The password is hashed before the record is persisted, so a user is
// never visible to Login without a usable hash.
func (s *AuthService) Register(name, email, password string, client ClientInfo) (*AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if _, err := s.users.FindByEmail(email); err == nil {
		observability.RecordAuthRegister("conflict")
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		observability.RecordAuthRegister("error")
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := security.HashPassword(password, s.bcryptCost)
	if err != nil {
		observability.RecordAuthRegister("error")
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.users.Create(user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// lost the race against a concurrent registration
			observability.RecordAuthRegister("conflict")
			return nil, ErrEmailTaken
		}
		observability.RecordAuthRegister("error")
		return nil, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.openSession(user.ID, client)
	if err != nil {
		observability.RecordAuthRegister("error")
		return nil, err
	}
	observability.RecordAuthRegister("success")
	return &AuthResult{User: user.SafeView(), Tokens: *tokens}, nil
}

// Login verifies credentials and opens a new device session. A missing
// user and a wrong password fail identically.
func (s *AuthService) Login(email, password string, client ClientInfo) (*AuthResult, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// burn a comparison anyway so both paths cost the same
			security.VerifyPassword(dummyHash, password)
			observability.RecordAuthLogin("invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		observability.RecordAuthLogin("error")
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if !security.VerifyPassword(user.PasswordHash, password) {
		observability.RecordAuthLogin("invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(user.ID, now); err != nil {
		s.logger.Warn("update last login failed", "user_id", user.ID, "error", err)
	}
	if _, err := s.sessions.DeleteExpiredByUserID(user.ID, now); err != nil {
		s.logger.Warn("session prune failed", "user_id", user.ID, "error", err)
	}

	tokens, err := s.openSession(user.ID, client)
	if err != nil {
		observability.RecordAuthLogin("error")
		return nil, err
	}
	at := now
	user.LastLoginAt = &at
	observability.RecordAuthLogin("success")
	return &AuthResult{User: user.SafeView(), Tokens: *tokens}, nil
}

// Refresh mints a new access token for a valid, still-tracked refresh
// token. With rotation enabled the presented session row is atomically
// replaced and a new refresh token returned as well.
func (s *AuthService) Refresh(refreshToken string) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, ErrMissingRefreshToken
	}
	claims, err := s.jwtMgr.ParseRefreshToken(refreshToken)
	if err != nil {
		observability.RecordAuthRefresh("invalid_token")
		return nil, ErrInvalidRefreshToken
	}
	userID, err := claims.UserID()
	if err != nil {
		observability.RecordAuthRefresh("invalid_token")
		return nil, ErrInvalidRefreshToken
	}

	now := s.now()
	hash := security.HashRefreshToken(refreshToken, s.pepper)
	if _, err := s.sessions.FindActiveByUserAndHash(userID, hash, now); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			// cryptographically valid but revoked server-side
			observability.RecordAuthRefresh("revoked")
			return nil, ErrInvalidRefreshToken
		}
		observability.RecordAuthRefresh("error")
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	access, err := s.jwtMgr.SignAccessToken(userID, s.accessTTL)
	if err != nil {
		observability.RecordAuthRefresh("error")
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	result := &RefreshResult{AccessToken: access}

	if s.rotateRefresh {
		next, err := s.jwtMgr.SignRefreshToken(userID, s.refreshTTL)
		if err != nil {
			observability.RecordAuthRefresh("error")
			return nil, fmt.Errorf("sign refresh token: %w", err)
		}
		replacement := &domain.RefreshSession{
			UserID:    userID,
			TokenHash: security.HashRefreshToken(next, s.pepper),
			ExpiresAt: now.Add(s.refreshTTL),
		}
		if err := s.sessions.Replace(userID, hash, replacement); err != nil {
			if errors.Is(err, repository.ErrSessionNotFound) {
				observability.RecordAuthRefresh("revoked")
				return nil, ErrInvalidRefreshToken
			}
			observability.RecordAuthRefresh("error")
			return nil, fmt.Errorf("rotate session: %w", err)
		}
		result.RefreshToken = next
	}

	observability.RecordAuthRefresh("success")
	return result, nil
}

// Logout removes one session when a refresh token is given, or every
// session for the user when it is not. Removing an absent token is a
// success.
func (s *AuthService) Logout(userID uint, refreshToken string) error {
	if refreshToken != "" {
		hash := security.HashRefreshToken(refreshToken, s.pepper)
		if err := s.sessions.DeleteByUserAndHash(userID, hash); err != nil {
			observability.RecordAuthLogout("error")
			return fmt.Errorf("remove session: %w", err)
		}
		observability.RecordAuthLogout("success")
		return nil
	}
	if err := s.sessions.DeleteByUserID(userID); err != nil {
		observability.RecordAuthLogout("error")
		return fmt.Errorf("remove sessions: %w", err)
	}
	observability.RecordAuthLogout("success")
	return nil
}

// ChangePassword replaces the hash and force-logs-out every session.
func (s *AuthService) ChangePassword(userID uint, currentPassword, newPassword string) error {
	user, err := s.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if !security.VerifyPassword(user.PasswordHash, currentPassword) {
		return ErrInvalidCredentials
	}
	hash, err := security.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.sessions.DeleteByUserID(userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return nil
}

// RequestPasswordReset issues a reset challenge. The response never
// reveals whether the email exists; mail delivery is best effort and
// runs off the request path.
func (s *AuthService) RequestPasswordReset(email string) error {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordPasswordResetEvent("unknown_email")
			return nil
		}
		return fmt.Errorf("lookup email: %w", err)
	}

	raw, digest, err := security.NewResetToken()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.resetTTL)
	if err := s.users.SetResetChallenge(user.ID, digest, expiresAt); err != nil {
		return fmt.Errorf("store reset challenge: %w", err)
	}
	observability.RecordPasswordResetEvent("requested")

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, raw)
	go func() {
		if err := s.mailer.SendPasswordReset(user.Email, user.Name, resetURL); err != nil {
			s.logger.Warn("password reset mail failed", "user_id", user.ID, "error", err)
			return
		}
		observability.RecordPasswordResetEvent("sent")
	}()
	return nil
}

// ResetPassword consumes a reset challenge: new hash, challenge
// cleared, every session revoked.
func (s *AuthService) ResetPassword(rawToken, newPassword string) error {
	digest := security.HashResetToken(rawToken)
	user, err := s.users.FindByResetTokenHash(digest, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordPasswordResetEvent("rejected")
			return ErrInvalidResetToken
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}

	hash, err := security.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.users.ClearResetChallenge(user.ID); err != nil {
		return fmt.Errorf("clear reset challenge: %w", err)
	}
	if err := s.sessions.DeleteByUserID(user.ID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	observability.RecordPasswordResetEvent("completed")
	return nil
}

// CheckPasswordStrength is advisory scoring; it gates nothing.
func (s *AuthService) CheckPasswordStrength(password string) security.StrengthReport {
	return security.CheckPasswordStrength(password)
}

// GetUser returns the safe view of a user for /me.
func (s *AuthService) GetUser(userID uint) (*domain.SafeUser, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	view := user.SafeView()
	return &view, nil
}

// openSession issues the token pair and persists the refresh session.
// The pair is returned only after the row is durably stored, so a token
// the client holds always has a matching server-side session.
func (s *AuthService) openSession(userID uint, client ClientInfo) (*TokenPair, error) {
	refresh, err := s.jwtMgr.SignRefreshToken(userID, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	access, err := s.jwtMgr.SignAccessToken(userID, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	session := &domain.RefreshSession{
		UserID:    userID,
		TokenHash: security.HashRefreshToken(refresh, s.pepper),
		UserAgent: client.UserAgent,
		IP:        client.IP,
		ExpiresAt: s.now().Add(s.refreshTTL),
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// dummyHash keeps the credential-miss path as slow as a real compare.
// The comparison result is always discarded.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"
