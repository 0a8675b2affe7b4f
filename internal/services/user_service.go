package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/springgate/practice-exam-service/internal/config"
	"github.com/springgate/practice-exam-service/internal/models"
	"github.com/springgate/practice-exam-service/internal/repositories"
	"github.com/springgate/practice-exam-service/internal/utils"
)

// UserService covers admin-side account management for student accounts.
type UserService interface {
	CreateStudent(ctx context.Context, req *CreateStudentRequest, creatorID uint, meta RequestMeta) (*models.User, error)
	UpdateStudent(ctx context.Context, studentID uint, req *UpdateStudentRequest, actorID uint, meta RequestMeta) (*models.User, error)
	SetPassword(ctx context.Context, studentID uint, password string, actorID uint, meta RequestMeta) error
	Deactivate(ctx context.Context, studentID uint, actorID uint, meta RequestMeta) error
	GetStudent(ctx context.Context, studentID uint) (*models.User, error)
	ListStudents(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error)
	StudentStats(ctx context.Context, studentID uint) (*repositories.StudentStats, error)
}

type CreateStudentRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required"`
}

type UpdateStudentRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	IsActive *bool   `json:"is_active"`
}

type userService struct {
	repo      repositories.Repository
	logger    utils.Logger
	validator *validator.Validate
	audit     AuditService
	cfg       *config.Config

	now func() time.Time
}

func NewUserService(
	repo repositories.Repository,
	logger utils.Logger,
	validate *validator.Validate,
	audit AuditService,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:      repo,
		logger:    logger,
		validator: validate,
		audit:     audit,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().In(cfg.Location) },
	}
}

func (s *userService) CreateStudent(ctx context.Context, req *CreateStudentRequest, creatorID uint, meta RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, NewValidationError("student", err.Error(), nil)
	}
	if len(req.Password) < s.cfg.MinPasswordLenAdmin {
		return nil, NewValidationError("password",
			fmt.Sprintf("password must be at least %d characters", s.cfg.MinPasswordLenAdmin), nil)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.User().GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !repositories.IsNotFoundError(err) {
		if repositories.IsUnavailableError(err) {
			return nil, ErrStorageUnavailable
		}
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	role, err := s.repo.Role().GetByName(ctx, models.RoleStudent)
	if err != nil {
		return nil, fmt.Errorf("failed to load student role: %w", err)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		RoleID:       role.ID,
		IsActive:     true,
		CreatedBy:    &creatorID,
	}
	if err := s.repo.User().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}
	user.Role = *role
	user.RoleName = role.Name

	s.audit.Record(ctx, AuditEntry{
		UserID:       &creatorID,
		Action:       models.AuditStudentCreated,
		ResourceType: "user",
		ResourceID:   fmt.Sprint(user.ID),
		Details:      map[string]interface{}{"email": user.Email},
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	})

	s.logger.InfoContext(ctx, "student account created", "student_id", user.ID, "created_by", creatorID)
	return user, nil
}

func (s *userService) UpdateStudent(ctx context.Context, studentID uint, req *UpdateStudentRequest, actorID uint, meta RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, NewValidationError("student", err.Error(), nil)
	}

	user, err := s.getStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != user.Email {
			if _, err := s.repo.User().GetByEmail(ctx, email); err == nil {
				return nil, ErrEmailTaken
			} else if !repositories.IsNotFoundError(err) {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			user.Email = email
		}
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.repo.User().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update student: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &actorID,
		Action:       models.AuditStudentUpdated,
		ResourceType: "user",
		ResourceID:   fmt.Sprint(studentID),
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	})
	return user, nil
}

// SetPassword is the admin override path; it uses the stricter minimum and
// clears any active lockout so the student can sign in immediately.
func (s *userService) SetPassword(ctx context.Context, studentID uint, password string, actorID uint, meta RequestMeta) error {
	if len(password) < s.cfg.MinPasswordLenAdmin {
		return NewValidationError("password",
			fmt.Sprintf("password must be at least %d characters", s.cfg.MinPasswordLenAdmin), nil)
	}

	if _, err := s.getStudent(ctx, studentID); err != nil {
		return err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.User().UpdatePassword(ctx, studentID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.repo.User().ResetFailedLogins(ctx, studentID); err != nil {
		s.logger.WarnContext(ctx, "failed to clear lockout", "student_id", studentID, "error", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &actorID,
		Action:       models.AuditPasswordChanged,
		ResourceType: "user",
		ResourceID:   fmt.Sprint(studentID),
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	})
	return nil
}

func (s *userService) Deactivate(ctx context.Context, studentID uint, actorID uint, meta RequestMeta) error {
	if _, err := s.getStudent(ctx, studentID); err != nil {
		return err
	}

	if err := s.repo.User().SetActive(ctx, studentID, false); err != nil {
		return fmt.Errorf("failed to deactivate student: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &actorID,
		Action:       models.AuditStudentDeactivated,
		ResourceType: "user",
		ResourceID:   fmt.Sprint(studentID),
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	})
	return nil
}

func (s *userService) GetStudent(ctx context.Context, studentID uint) (*models.User, error) {
	return s.getStudent(ctx, studentID)
}

func (s *userService) ListStudents(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	role := models.RoleStudent
	filters.Role = &role
	users, total, err := s.repo.User().List(ctx, filters)
	if err != nil {
		if repositories.IsUnavailableError(err) {
			return nil, 0, ErrStorageUnavailable
		}
		return nil, 0, err
	}
	return users, total, nil
}

func (s *userService) StudentStats(ctx context.Context, studentID uint) (*repositories.StudentStats, error) {
	if _, err := s.getStudent(ctx, studentID); err != nil {
		return nil, err
	}
	stats, err := s.repo.Exam().StudentStats(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student stats: %w", err)
	}
	return stats, nil
}

func (s *userService) getStudent(ctx context.Context, studentID uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		if repositories.IsUnavailableError(err) {
			return nil, ErrStorageUnavailable
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.RoleName != models.RoleStudent {
		return nil, ErrUserNotFound
	}
	return user, nil
}
