package services

import (
	"context"
	"encoding/json"

	"github.com/springgate/practice-exam-service/internal/models"
	"github.com/springgate/practice-exam-service/internal/repositories"
	"github.com/springgate/practice-exam-service/internal/utils"
	"gorm.io/datatypes"
)

// AuditService records security-relevant actions. Record is best-effort:
// a failed write is logged and swallowed so auditing can never fail the
// operation being audited.
type AuditService interface {
	Record(ctx context.Context, entry AuditEntry)
	List(ctx context.Context, filters repositories.AuditFilters) ([]*models.AuditLog, int64, error)
}

// AuditEntry is the caller-facing shape of one audit row. Details is
// marshaled to JSON at write time.
type AuditEntry struct {
	UserID       *uint
	Action       models.AuditAction
	ResourceType string
	ResourceID   string
	Details      map[string]interface{}
	IPAddress    string
	UserAgent    string
}

type auditService struct {
	repo   repositories.Repository
	logger utils.Logger
}

func NewAuditService(repo repositories.Repository, logger utils.Logger) AuditService {
	return &auditService{
		repo:   repo,
		logger: logger,
	}
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) {
	row := &models.AuditLog{
		UserID:    entry.UserID,
		Action:    entry.Action,
		IPAddress: entry.IPAddress,
		UserAgent: entry.UserAgent,
	}
	if entry.ResourceType != "" {
		row.ResourceType = &entry.ResourceType
	}
	if entry.ResourceID != "" {
		row.ResourceID = &entry.ResourceID
	}
	if len(entry.Details) > 0 {
		data, err := json.Marshal(entry.Details)
		if err != nil {
			s.logger.WarnContext(ctx, "audit details not serializable",
				"action", entry.Action,
				"error", err)
		} else {
			row.Details = datatypes.JSON(data)
		}
	}

	if err := s.repo.Audit().Create(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to write audit log",
			"action", entry.Action,
			"error", err)
	}
}

func (s *auditService) List(ctx context.Context, filters repositories.AuditFilters) ([]*models.AuditLog, int64, error) {
	entries, total, err := s.repo.Audit().List(ctx, filters)
	if err != nil {
		if repositories.IsUnavailableError(err) {
			return nil, 0, ErrStorageUnavailable
		}
		return nil, 0, err
	}
	return entries, total, nil
}
