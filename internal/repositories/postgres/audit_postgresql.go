package postgres

import (
	"context"

	"github.com/springgate/practice-exam-service/internal/models"
	"github.com/springgate/practice-exam-service/internal/repositories"
	"gorm.io/gorm"
)

type AuditPostgreSQL struct {
	db *gorm.DB
}

func (a *AuditPostgreSQL) Create(ctx context.Context, entry *models.AuditLog) error {
	return a.db.WithContext(ctx).Create(entry).Error
}

func (a *AuditPostgreSQL) List(ctx context.Context, filters repositories.AuditFilters) ([]*models.AuditLog, int64, error) {
	var entries []*models.AuditLog
	var total int64

	query := a.db.WithContext(ctx).Model(&models.AuditLog{})
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.Action != "" {
		query = query.Where("action = ?", filters.Action)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
