package repository

import (
	"context"
	"errors"
	"time"

	"github.com/momentum-app/momentum-backend/internal/domain"
	"github.com/momentum-app/momentum-backend/internal/observability"

	"gorm.io/gorm"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository owns the refresh-session rows. Appends and removals
// are single-row statements so concurrent logins for one user never
// overwrite each other.
type SessionRepository interface {
	Create(s *domain.RefreshSession) error
	FindActiveByUserAndHash(userID uint, tokenHash string, now time.Time) (*domain.RefreshSession, error)
	ListActiveByUserID(userID uint, now time.Time) ([]domain.RefreshSession, error)
	CountByUserID(userID uint) (int64, error)
	Replace(userID uint, oldHash string, next *domain.RefreshSession) error
	DeleteByUserAndHash(userID uint, tokenHash string) error
	DeleteByIDForUser(userID, sessionID uint) (bool, error)
	DeleteByUserID(userID uint) error
	DeleteExpiredByUserID(userID uint, now time.Time) (int64, error)
	DeleteExpired(now time.Time) (int64, error)
}

type GormSessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &GormSessionRepository{db: db} }

func (r *GormSessionRepository) Create(s *domain.RefreshSession) error {
	err := r.db.Create(s).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "create", "success")
	return nil
}

func (r *GormSessionRepository) FindActiveByUserAndHash(userID uint, tokenHash string, now time.Time) (*domain.RefreshSession, error) {
	var s domain.RefreshSession
	err := r.db.Where("user_id = ? AND token_hash = ? AND expires_at > ?", userID, tokenHash, now).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "session", "find_active", "not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "session", "find_active", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "find_active", "success")
	return &s, nil
}

func (r *GormSessionRepository) ListActiveByUserID(userID uint, now time.Time) ([]domain.RefreshSession, error) {
	var sessions []domain.RefreshSession
	err := r.db.Where("user_id = ? AND expires_at > ?", userID, now).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "list_active", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "list_active", "success")
	return sessions, nil
}

func (r *GormSessionRepository) CountByUserID(userID uint) (int64, error) {
	var n int64
	err := r.db.Model(&domain.RefreshSession{}).Where("user_id = ?", userID).Count(&n).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "count", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "count", "success")
	return n, nil
}

// Replace atomically swaps one session row for its rotated successor.
// Fails with ErrSessionNotFound when the old row is already gone, so a
// replayed rotation cannot mint a second session.
func (r *GormSessionRepository) Replace(userID uint, oldHash string, next *domain.RefreshSession) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND token_hash = ?", userID, oldHash).
			Delete(&domain.RefreshSession{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSessionNotFound
		}
		return tx.Create(next).Error
	})
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "session", "replace", "not_found")
		} else {
			observability.RecordRepositoryOperation(context.Background(), "session", "replace", "error")
		}
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "replace", "success")
	return nil
}

func (r *GormSessionRepository) DeleteByUserAndHash(userID uint, tokenHash string) error {
	// deleting an absent row is a success: logout is idempotent
	err := r.db.Where("user_id = ? AND token_hash = ?", userID, tokenHash).
		Delete(&domain.RefreshSession{}).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "delete_by_hash", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "delete_by_hash", "success")
	return nil
}

func (r *GormSessionRepository) DeleteByIDForUser(userID, sessionID uint) (bool, error) {
	res := r.db.Where("user_id = ? AND id = ?", userID, sessionID).
		Delete(&domain.RefreshSession{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "delete_by_id", "error")
		return false, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "delete_by_id", "success")
	return res.RowsAffected > 0, nil
}

func (r *GormSessionRepository) DeleteByUserID(userID uint) error {
	err := r.db.Where("user_id = ?", userID).Delete(&domain.RefreshSession{}).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "delete_by_user", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "delete_by_user", "success")
	return nil
}

func (r *GormSessionRepository) DeleteExpiredByUserID(userID uint, now time.Time) (int64, error) {
	res := r.db.Where("user_id = ? AND expires_at <= ?", userID, now).
		Delete(&domain.RefreshSession{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "prune_user", "error")
		return 0, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "prune_user", "success")
	return res.RowsAffected, nil
}

func (r *GormSessionRepository) DeleteExpired(now time.Time) (int64, error) {
	res := r.db.Where("expires_at <= ?", now).Delete(&domain.RefreshSession{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "prune_all", "error")
		return 0, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "prune_all", "success")
	return res.RowsAffected, nil
}
