package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"gatehouse/internal/model"
)

// SessionRepository defines session persistence operations.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	// FindWithUser resolves a token to its session joined with the owning
	// user, filtered to unexpired rows. Missing, expired, and orphaned
	// tokens are all gorm.ErrRecordNotFound.
	FindWithUser(ctx context.Context, token string) (*model.Session, error)
	// DeleteByToken removes a session. Deleting an absent token is not an error.
	DeleteByToken(ctx context.Context, token string) error
	// DeleteExpired removes expired rows and returns the count deleted.
	DeleteExpired(ctx context.Context) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository builds a GORM-backed repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) FindWithUser(ctx context.Context, token string) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).
		Joins("User").
		Where("sessions.session_token = ? AND sessions.expires_at > ?", token, time.Now()).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	// Joins performs a left join; a session whose user row vanished must
	// behave exactly like an unknown token.
	if session.User == nil || session.User.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &session, nil
}

func (r *sessionRepository) DeleteByToken(ctx context.Context, token string) error {
	// deleting zero rows is success; logout is idempotent
	return r.db.WithContext(ctx).
		Where("session_token = ?", token).
		Delete(&model.Session{}).Error
}

func (r *sessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&model.Session{})
	return res.RowsAffected, res.Error
}
