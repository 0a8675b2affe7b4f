package services

import (
	"context"
	"fmt"
	"time"

	"github.com/springgate/practice-exam-service/internal/config"
	"github.com/springgate/practice-exam-service/internal/models"
	"github.com/springgate/practice-exam-service/internal/repositories"
	"github.com/springgate/practice-exam-service/internal/utils"
)

// MagicLinkService issues and redeems single-use exam access links. A
// redeemed link yields the same session a password login would, scoped to
// the student the link was issued for.
type MagicLinkService interface {
	IssueExamLink(ctx context.Context, studentID, examID uint) (*IssuedLink, error)
	ConsumeExamLink(ctx context.Context, token string, meta RequestMeta) (*MagicLoginResult, error)
}

type IssuedLink struct {
	Token     string    `json:"-"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type MagicLoginResult struct {
	LoginResult
	ExamID *uint `json:"exam_id,omitempty"`
}

type magicLinkService struct {
	repo   repositories.Repository
	logger utils.Logger
	audit  AuditService
	cfg    *config.Config

	now func() time.Time
}

func NewMagicLinkService(
	repo repositories.Repository,
	logger utils.Logger,
	audit AuditService,
	cfg *config.Config,
) MagicLinkService {
	return &magicLinkService{
		repo:   repo,
		logger: logger,
		audit:  audit,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().In(cfg.Location) },
	}
}

func (s *magicLinkService) IssueExamLink(ctx context.Context, studentID, examID uint) (*IssuedLink, error) {
	token, err := utils.NewToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate link token: %w", err)
	}

	link := &models.MagicLink{
		Token:     token,
		UserID:    studentID,
		ExamID:    &examID,
		Purpose:   models.PurposeExamAttempt,
		ExpiresAt: s.now().Add(s.cfg.MagicLinkValidity),
	}
	if err := s.repo.MagicLink().Create(ctx, link); err != nil {
		if repositories.IsUnavailableError(err) {
			return nil, ErrStorageUnavailable
		}
		return nil, fmt.Errorf("failed to create magic link: %w", err)
	}

	return &IssuedLink{
		Token:     token,
		URL:       fmt.Sprintf("%s/auth/magic?token=%s", s.cfg.BaseURL, token),
		ExpiresAt: link.ExpiresAt,
	}, nil
}

func (s *magicLinkService) ConsumeExamLink(ctx context.Context, token string, meta RequestMeta) (*MagicLoginResult, error) {
	now := s.now()

	link, err := s.repo.MagicLink().Consume(ctx, token, models.PurposeExamAttempt, now)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLinkInvalid
		}
		if repositories.IsUnavailableError(err) {
			return nil, ErrStorageUnavailable
		}
		return nil, fmt.Errorf("failed to consume magic link: %w", err)
	}

	user, err := s.repo.User().GetByID(ctx, link.UserID)
	if err != nil {
		return nil, ErrLinkInvalid
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	result, err := mintSession(ctx, s.repo, s.cfg, user, meta, now)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &user.ID,
		Action:       models.AuditMagicLogin,
		ResourceType: "magic_link",
		ResourceID:   fmt.Sprint(link.ID),
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	})

	return &MagicLoginResult{
		LoginResult: *result,
		ExamID:      link.ExamID,
	}, nil
}
