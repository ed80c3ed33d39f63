package service

import (
	"sync"
	"time"

	"github.com/momentum-app/momentum-backend/internal/domain"
	"github.com/momentum-app/momentum-backend/internal/repository"
)

type inMemoryUserRepo struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{nextID: 1, byID: map[uint]*domain.User{}}
}

func (r *inMemoryUserRepo) Create(user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.Email = domain.NormalizeEmail(user.Email)
	for _, u := range r.byID {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.nextID++
	cp := *user
	r.byID[cp.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) FindByID(id uint) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) FindByEmail(email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = domain.NormalizeEmail(email)
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *inMemoryUserRepo) FindByResetTokenHash(hash string, now time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.PasswordResetTokenHash == hash && hash != "" &&
			u.PasswordResetExpiresAt != nil && u.PasswordResetExpiresAt.After(now) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *inMemoryUserRepo) UpdateLastLogin(userID uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[userID]; ok {
		t := at
		u.LastLoginAt = &t
	}
	return nil
}

func (r *inMemoryUserRepo) UpdatePasswordHash(userID uint, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *inMemoryUserRepo) SetResetChallenge(userID uint, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	t := expiresAt
	u.PasswordResetTokenHash = tokenHash
	u.PasswordResetExpiresAt = &t
	return nil
}

func (r *inMemoryUserRepo) ClearResetChallenge(userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordResetTokenHash = ""
	u.PasswordResetExpiresAt = nil
	return nil
}

type inMemorySessionRepo struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*domain.RefreshSession
}

func newInMemorySessionRepo() *inMemorySessionRepo {
	return &inMemorySessionRepo{nextID: 1, byID: map[uint]*domain.RefreshSession{}}
}

func (r *inMemorySessionRepo) Create(s *domain.RefreshSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = r.nextID
	s.CreatedAt = time.Now()
	r.nextID++
	cp := *s
	r.byID[cp.ID] = &cp
	return nil
}

func (r *inMemorySessionRepo) FindActiveByUserAndHash(userID uint, tokenHash string, now time.Time) (*domain.RefreshSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.UserID == userID && s.TokenHash == tokenHash && s.ExpiresAt.After(now) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrSessionNotFound
}

func (r *inMemorySessionRepo) ListActiveByUserID(userID uint, now time.Time) ([]domain.RefreshSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.RefreshSession
	for _, s := range r.byID {
		if s.UserID == userID && s.ExpiresAt.After(now) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *inMemorySessionRepo) CountByUserID(userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.byID {
		if s.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *inMemorySessionRepo) Replace(userID uint, oldHash string, next *domain.RefreshSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var oldID uint
	for id, s := range r.byID {
		if s.UserID == userID && s.TokenHash == oldHash {
			oldID = id
			break
		}
	}
	if oldID == 0 {
		return repository.ErrSessionNotFound
	}
	delete(r.byID, oldID)
	next.ID = r.nextID
	next.CreatedAt = time.Now()
	r.nextID++
	cp := *next
	r.byID[cp.ID] = &cp
	return nil
}

func (r *inMemorySessionRepo) DeleteByUserAndHash(userID uint, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.byID {
		if s.UserID == userID && s.TokenHash == tokenHash {
			delete(r.byID, id)
		}
	}
	return nil
}

func (r *inMemorySessionRepo) DeleteByIDForUser(userID, sessionID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[sessionID]
	if !ok || s.UserID != userID {
		return false, nil
	}
	delete(r.byID, sessionID)
	return true, nil
}

func (r *inMemorySessionRepo) DeleteByUserID(userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.byID {
		if s.UserID == userID {
			delete(r.byID, id)
		}
	}
	return nil
}

func (r *inMemorySessionRepo) DeleteExpiredByUserID(userID uint, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.byID {
		if s.UserID == userID && !s.ExpiresAt.After(now) {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

func (r *inMemorySessionRepo) DeleteExpired(now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.byID {
		if !s.ExpiresAt.After(now) {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) SendPasswordReset(to, name, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, resetURL)
	return nil
}

func (m *recordingMailer) lastURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1]
}
