package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/timmy/bqlens/internal/domain"
)

// SessionRepository stores login sessions. Semantics are deliberately plain
// get/set/clear so the session store stays a swappable collaborator.
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a SessionRepository.
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Get returns the session with the given id, or nil when the session does
// not exist or has expired.
func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	var sess domain.Session
	err := r.db.WithContext(ctx).First(&sess, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(sess.ExpiresAt) {
		return nil, nil
	}
	return &sess, nil
}

// Set creates or replaces a session.
func (r *SessionRepository) Set(ctx context.Context, sess *domain.Session) error {
	return r.db.WithContext(ctx).Save(sess).Error
}

// Clear removes a session. Clearing an absent session is not an error.
func (r *SessionRepository) Clear(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.Session{}, "id = ?", id).Error
}

// ClearExpired removes every expired session and returns how many were
// deleted.
func (r *SessionRepository) ClearExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&domain.Session{})
	return res.RowsAffected, res.Error
}
