package postgres

import (
	"context"
	"time"

	"github.com/springgate/practice-exam-service/internal/models"
	"gorm.io/gorm"
)

type SessionPostgreSQL struct {
	db *gorm.DB
}

func (s *SessionPostgreSQL) Create(ctx context.Context, session *models.Session) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s *SessionPostgreSQL) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	if err := s.db.WithContext(ctx).
		Where("session_token = ?", token).
		First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionPostgreSQL) ListByUser(ctx context.Context, userID uint, now time.Time) ([]*models.Session, error) {
	var sessions []*models.Session
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, now).
		Order("created_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *SessionPostgreSQL) TouchActivity(ctx context.Context, token string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Session{}).
		Where("session_token = ?", token).
		Update("last_activity", at).Error
}

func (s *SessionPostgreSQL) Delete(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).
		Where("session_token = ?", token).
		Delete(&models.Session{}).Error
}

func (s *SessionPostgreSQL) DeleteByUser(ctx context.Context, userID uint, exceptToken string) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND session_token <> ?", userID, exceptToken).
		Delete(&models.Session{})
	return res.RowsAffected, res.Error
}

func (s *SessionPostgreSQL) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.Session{})
	return res.RowsAffected, res.Error
}

type MagicLinkPostgreSQL struct {
	db *gorm.DB
}

func (m *MagicLinkPostgreSQL) Create(ctx context.Context, link *models.MagicLink) error {
	return m.db.WithContext(ctx).Create(link).Error
}

func (m *MagicLinkPostgreSQL) GetByToken(ctx context.Context, token string) (*models.MagicLink, error) {
	var link models.MagicLink
	if err := m.db.WithContext(ctx).
		Preload("User").
		Where("token = ?", token).
		First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// Consume is the single atomic check-and-mark for link redemption: the
// used/expired/purpose guard sits in the UPDATE's WHERE clause and the
// affected-row count decides the winner, so two concurrent consumers cannot
// both succeed. A token presented with the wrong purpose matches no rows and
// stays redeemable at the right endpoint.
func (m *MagicLinkPostgreSQL) Consume(ctx context.Context, token string, purpose models.MagicLinkPurpose, now time.Time) (*models.MagicLink, error) {
	res := m.db.WithContext(ctx).Model(&models.MagicLink{}).
		Where("token = ? AND purpose = ? AND used_at IS NULL AND expires_at > ?", token, purpose, now).
		Update("used_at", now)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return m.GetByToken(ctx, token)
}
