package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/momentum-app/momentum-backend/internal/domain"
	"github.com/momentum-app/momentum-backend/internal/observability"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

type UserRepository interface {
	Create(user *domain.User) error
	FindByID(id uint) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	FindByResetTokenHash(hash string, now time.Time) (*domain.User, error)
	UpdateLastLogin(userID uint, at time.Time) error
	UpdatePasswordHash(userID uint, hash string) error
	SetResetChallenge(userID uint, tokenHash string, expiresAt time.Time) error
	ClearResetChallenge(userID uint) error
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) Create(user *domain.User) error {
	user.Email = domain.NormalizeEmail(user.Email)
	err := r.db.Create(user).Error
	if err != nil {
		if isUniqueViolation(err) {
			observability.RecordRepositoryOperation(context.Background(), "user", "create", "conflict")
			return ErrDuplicateEmail
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "create", "success")
	return nil
}

func (r *GormUserRepository) FindByID(id uint) (*domain.User, error) {
	var u domain.User
	err := r.db.First(&u, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "success")
	return &u, nil
}

func (r *GormUserRepository) FindByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.db.Where("email = ?", domain.NormalizeEmail(email)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_email", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_email", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_email", "success")
	return &u, nil
}

func (r *GormUserRepository) FindByResetTokenHash(hash string, now time.Time) (*domain.User, error) {
	var u domain.User
	err := r.db.Where("password_reset_token_hash = ? AND password_reset_expires_at > ?", hash, now).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_reset_token", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_reset_token", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_reset_token", "success")
	return &u, nil
}

func (r *GormUserRepository) UpdateLastLogin(userID uint, at time.Time) error {
	err := r.db.Model(&domain.User{}).Where("id = ?", userID).
		Update("last_login_at", at).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "update_last_login", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "update_last_login", "success")
	return nil
}

func (r *GormUserRepository) UpdatePasswordHash(userID uint, hash string) error {
	res := r.db.Model(&domain.User{}).Where("id = ?", userID).
		Update("password_hash", hash)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "update_password_hash", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "user", "update_password_hash", "not_found")
		return ErrUserNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "update_password_hash", "success")
	return nil
}

func (r *GormUserRepository) SetResetChallenge(userID uint, tokenHash string, expiresAt time.Time) error {
	// overwrite semantics: at most one outstanding challenge per user
	err := r.db.Model(&domain.User{}).Where("id = ?", userID).
		Updates(map[string]any{
			"password_reset_token_hash": tokenHash,
			"password_reset_expires_at": expiresAt,
		}).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "set_reset_challenge", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "set_reset_challenge", "success")
	return nil
}

func (r *GormUserRepository) ClearResetChallenge(userID uint) error {
	err := r.db.Model(&domain.User{}).Where("id = ?", userID).
		Updates(map[string]any{
			"password_reset_token_hash": "",
			"password_reset_expires_at": nil,
		}).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "clear_reset_challenge", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "clear_reset_challenge", "success")
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique failed")
}
