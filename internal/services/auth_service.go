package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/springgate/practice-exam-service/internal/config"
	"github.com/springgate/practice-exam-service/internal/events"
	"github.com/springgate/practice-exam-service/internal/models"
	"github.com/springgate/practice-exam-service/internal/repositories"
	"github.com/springgate/practice-exam-service/internal/utils"
)

// AuthService owns credential verification, the session lifecycle, the
// lockout policy, and self-service password resets.
type AuthService interface {
	Login(ctx context.Context, req *LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, sessionToken string, meta RequestMeta) error
	ValidateSession(ctx context.Context, sessionToken string) (*models.User, error)

	ListSessions(ctx context.Context, userID uint, currentToken string) ([]*SessionInfo, error)
	RevokeSession(ctx context.Context, userID, sessionID uint, currentToken string, meta RequestMeta) error
	RevokeOtherSessions(ctx context.Context, userID uint, currentToken string, meta RequestMeta) (int64, error)
	ChangePassword(ctx context.Context, userID uint, req *ChangePasswordRequest, meta RequestMeta) error

	RequestPasswordReset(ctx context.Context, email string, meta RequestMeta) error
	PeekPasswordReset(ctx context.Context, token string) (*models.User, error)
	CompletePasswordReset(ctx context.Context, req *CompletePasswordResetRequest, meta RequestMeta) (*LoginResult, error)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`

	Meta RequestMeta `json:"-"`
}

// RequestMeta carries the client attributes recorded on sessions and audit
// rows.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

type LoginResult struct {
	User         *models.User `json:"user"`
	SessionToken string       `json:"session_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

type CompletePasswordResetRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// SessionInfo is the user-facing view of one of their sessions. The token
// itself is never exposed; revocation goes by row ID.
type SessionInfo struct {
	ID           uint      `json:"id"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	ExpiresAt    time.Time `json:"expires_at"`
	IsCurrent    bool      `json:"is_current"`
}

type authService struct {
	repo      repositories.TransactionRepository
	logger    utils.Logger
	validator *validator.Validate
	audit     AuditService
	publisher events.EventPublisher
	cfg       *config.Config

	now func() time.Time
}

func NewAuthService(
	repo repositories.TransactionRepository,
	logger utils.Logger,
	validate *validator.Validate,
	audit AuditService,
	publisher events.EventPublisher,
	cfg *config.Config,
) AuthService {
	return &authService{
		repo:      repo,
		logger:    logger,
		validator: validate,
		audit:     audit,
		publisher: publisher,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().In(cfg.Location) },
	}
}

// ===== LOGIN / LOGOUT =====

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, NewValidationError("credentials", "email and password are required", nil)
	}

	now := s.now()

	user, err := s.repo.User().GetByEmail(ctx, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// Unknown account looks identical to a wrong password.
			s.audit.Record(ctx, AuditEntry{
				Action:    models.AuditLoginFailed,
				Details:   map[string]interface{}{"email": req.Email, "reason": "unknown_email"},
				IPAddress: req.Meta.IPAddress,
				UserAgent: req.Meta.UserAgent,
			})
			return nil, ErrInvalidCredentials
		}
		if repositories.IsUnavailableError(err) {
			return nil, ErrStorageUnavailable
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if user.IsLockedAt(now) {
		s.audit.Record(ctx, AuditEntry{
			UserID:    &user.ID,
			Action:    models.AuditLoginLocked,
			Details:   map[string]interface{}{"locked_until": user.LockedUntil},
			IPAddress: req.Meta.IPAddress,
			UserAgent: req.Meta.UserAgent,
		})
		return nil, NewAccountLockedError(*user.LockedUntil)
	}

	// A lockout that has lapsed is cleared on the next attempt, correct
	// password or not, so the counter starts fresh.
	if user.LockedUntil != nil && !user.IsLockedAt(now) {
		if err := s.repo.User().ResetFailedLogins(ctx, user.ID); err != nil {
			s.logger.WarnContext(ctx, "failed to clear lapsed lockout", "user_id", user.ID, "error", err)
		}
		user.FailedLoginAttempts = 0
		user.LockedUntil = nil
	}

	if !user.IsActive {
		s.audit.Record(ctx, AuditEntry{
			UserID:    &user.ID,
			Action:    models.AuditLoginFailed,
			Details:   map[string]interface{}{"reason": "inactive"},
			IPAddress: req.Meta.IPAddress,
			UserAgent: req.Meta.UserAgent,
		})
		return nil, ErrAccountInactive
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		return nil, s.recordFailedAttempt(ctx, user, req.Meta)
	}

	if err := s.repo.User().ResetFailedLogins(ctx, user.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to reset login counter", "user_id", user.ID, "error", err)
	}
	if err := s.repo.User().UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.WarnContext(ctx, "failed to record last login", "user_id", user.ID, "error", err)
	}

	// Opportunistic sweep of expired rows; validation only garbage-collects
	// the one token it sees.
	if swept, err := s.repo.Session().DeleteExpired(ctx, now); err != nil {
		s.logger.DebugContext(ctx, "failed to sweep expired sessions", "error", err)
	} else if swept > 0 {
		s.logger.DebugContext(ctx, "swept expired sessions", "count", swept)
	}

	result, err := s.openSession(ctx, user, req.Meta)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:    &user.ID,
		Action:    models.AuditLoginSuccess,
		IPAddress: req.Meta.IPAddress,
		UserAgent: req.Meta.UserAgent,
	})
	return result, nil
}

// recordFailedAttempt bumps the counter, engages the lockout at the
// threshold, and returns the error the caller should surface.
func (s *authService) recordFailedAttempt(ctx context.Context, user *models.User, meta RequestMeta) error {
	count, err := s.repo.User().IncrementFailedLogins(ctx, user.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to increment login counter", "user_id", user.ID, "error", err)
		return ErrInvalidCredentials
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:    &user.ID,
		Action:    models.AuditLoginFailed,
		Details:   map[string]interface{}{"failed_attempts": count},
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})

	if count < s.cfg.MaxFailedLogins {
		return ErrInvalidCredentials
	}

	until := s.now().Add(s.cfg.LockoutDuration)
	if err := s.repo.User().LockUntil(ctx, user.ID, until); err != nil {
		s.logger.ErrorContext(ctx, "failed to lock account", "user_id", user.ID, "error", err)
		return ErrInvalidCredentials
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:    &user.ID,
		Action:    models.AuditLoginLocked,
		Details:   map[string]interface{}{"locked_until": until, "failed_attempts": count},
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})

	if err := s.publisher.PublishNotificationEvent(ctx, events.NewAccountLockedEvent(events.AccountLockedEvent{
		UserID:      user.ID,
		Email:       user.Email,
		LockedUntil: until,
	})); err != nil {
		s.logger.WarnContext(ctx, "failed to publish lockout event", "user_id", user.ID, "error", err)
	}

	return NewAccountLockedError(until)
}

func (s *authService) openSession(ctx context.Context, user *models.User, meta RequestMeta) (*LoginResult, error) {
	return mintSession(ctx, s.repo, s.cfg, user, meta, s.now())
}

// mintSession creates a fresh opaque token and persists the session row.
// Shared by password login, magic-link login and post-reset login so every
// path produces identical sessions.
func mintSession(ctx context.Context, repo repositories.Repository, cfg *config.Config, user *models.User, meta RequestMeta, now time.Time) (*LoginResult, error) {
	token, err := utils.NewToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	session := &models.Session{
		SessionToken: token,
		UserID:       user.ID,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		LastActivity: now,
		ExpiresAt:    now.Add(cfg.SessionDuration),
	}
	if err := repo.Session().Create(ctx, session); err != nil {
		if repositories.IsUnavailableError(err) {
			return nil, ErrStorageUnavailable
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &LoginResult{
		User:         user,
		SessionToken: token,
		ExpiresAt:    session.ExpiresAt,
	}, nil
}

func (s *authService) Logout(ctx context.Context, sessionToken string, meta RequestMeta) error {
	session, err := s.repo.Session().GetByToken(ctx, sessionToken)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// Logging out an already-dead session is a success.
			return nil
		}
		return fmt.Errorf("failed to look up session: %w", err)
	}

	if err := s.repo.Session().Delete(ctx, sessionToken); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:    &session.UserID,
		Action:    models.AuditLogout,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})
	return nil
}

// ===== SESSION VALIDATION =====

func (s *authService) ValidateSession(ctx context.Context, sessionToken string) (*models.User, error) {
	if sessionToken == "" {
		return nil, ErrSessionInvalid
	}

	session, err := s.repo.Session().GetByToken(ctx, sessionToken)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionInvalid
		}
		if repositories.IsUnavailableError(err) {
			return nil, ErrStorageUnavailable
		}
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	now := s.now()
	if session.ExpiredAt(now) {
		// Lazy garbage collection; there is no background sweep.
		if err := s.repo.Session().Delete(ctx, sessionToken); err != nil {
			s.logger.WarnContext(ctx, "failed to delete expired session", "error", err)
		}
		return nil, ErrSessionInvalid
	}

	user, err := s.repo.User().GetByID(ctx, session.UserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("failed to look up session user: %w", err)
	}
	if !user.IsActive {
		// Deactivation kills existing sessions at the next request.
		return nil, ErrSessionInvalid
	}

	if err := s.repo.Session().TouchActivity(ctx, sessionToken, now); err != nil {
		s.logger.DebugContext(ctx, "failed to touch session activity", "error", err)
	}

	return user, nil
}

// ===== SESSION MANAGEMENT =====

func (s *authService) ListSessions(ctx context.Context, userID uint, currentToken string) ([]*SessionInfo, error) {
	sessions, err := s.repo.Session().ListByUser(ctx, userID, s.now())
	if err != nil {
		if repositories.IsUnavailableError(err) {
			return nil, ErrStorageUnavailable
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	out := make([]*SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, &SessionInfo{
			ID:           session.ID,
			IPAddress:    session.IPAddress,
			UserAgent:    session.UserAgent,
			CreatedAt:    session.CreatedAt,
			LastActivity: session.LastActivity,
			ExpiresAt:    session.ExpiresAt,
			IsCurrent:    session.SessionToken == currentToken,
		})
	}
	return out, nil
}

// RevokeSession deletes one of the user's other sessions by row ID. The
// session carrying the request cannot revoke itself; that is what Logout is
// for.
func (s *authService) RevokeSession(ctx context.Context, userID, sessionID uint, currentToken string, meta RequestMeta) error {
	sessions, err := s.repo.Session().ListByUser(ctx, userID, s.now())
	if err != nil {
		if repositories.IsUnavailableError(err) {
			return ErrStorageUnavailable
		}
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	var target *models.Session
	for _, session := range sessions {
		if session.ID == sessionID {
			target = session
			break
		}
	}
	if target == nil {
		return ErrSessionNotFound
	}
	if target.SessionToken == currentToken {
		return ErrCannotRevokeCurrent
	}

	if err := s.repo.Session().Delete(ctx, target.SessionToken); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &userID,
		Action:       models.AuditSessionRevoked,
		ResourceType: "session",
		ResourceID:   fmt.Sprint(sessionID),
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	})
	return nil
}

func (s *authService) RevokeOtherSessions(ctx context.Context, userID uint, currentToken string, meta RequestMeta) (int64, error) {
	revoked, err := s.repo.Session().DeleteByUser(ctx, userID, currentToken)
	if err != nil {
		if repositories.IsUnavailableError(err) {
			return 0, ErrStorageUnavailable
		}
		return 0, fmt.Errorf("failed to revoke sessions: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:    &userID,
		Action:    models.AuditSessionRevoked,
		Details:   map[string]interface{}{"revoked": revoked, "scope": "all_others"},
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})
	return revoked, nil
}

// ChangePassword is the self-service path: it demands the current password
// and leaves existing sessions alone.
func (s *authService) ChangePassword(ctx context.Context, userID uint, req *ChangePasswordRequest, meta RequestMeta) error {
	if err := s.validator.Struct(req); err != nil {
		return NewValidationError("password", "current and new password are required", nil)
	}
	if len(req.NewPassword) < s.cfg.MinPasswordLenReset {
		return NewValidationError("new_password",
			fmt.Sprintf("password must be at least %d characters", s.cfg.MinPasswordLenReset), nil)
	}
	if req.NewPassword == req.CurrentPassword {
		return ErrPasswordUnchanged
	}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	if !utils.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		return ErrCurrentPasswordWrong
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.User().UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &userID,
		Action:       models.AuditPasswordChanged,
		ResourceType: "user",
		ResourceID:   fmt.Sprint(userID),
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	})
	return nil
}

// ===== PASSWORD RESET =====

// RequestPasswordReset always reports success to the caller; whether the
// email exists must not be observable from the outside.
func (s *authService) RequestPasswordReset(ctx context.Context, email string, meta RequestMeta) error {
	user, err := s.repo.User().GetByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.logger.InfoContext(ctx, "password reset requested for unknown email")
			return nil
		}
		if repositories.IsUnavailableError(err) {
			return ErrStorageUnavailable
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsActive {
		return nil
	}

	token, err := utils.NewToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	now := s.now()
	link := &models.MagicLink{
		Token:     token,
		UserID:    user.ID,
		Purpose:   models.PurposePasswordReset,
		ExpiresAt: now.Add(s.cfg.MagicLinkValidity),
	}
	if err := s.repo.MagicLink().Create(ctx, link); err != nil {
		return fmt.Errorf("failed to create reset link: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:    &user.ID,
		Action:    models.AuditPasswordResetRequested,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})

	if err := s.publisher.PublishNotificationEvent(ctx, events.NewPasswordResetLinkEvent(events.PasswordResetLinkEvent{
		UserID:       user.ID,
		Email:        user.Email,
		ResetLinkURL: fmt.Sprintf("%s/auth/reset-password?token=%s", s.cfg.BaseURL, token),
		LinkExpires:  link.ExpiresAt,
	})); err != nil {
		s.logger.WarnContext(ctx, "failed to publish reset link event", "user_id", user.ID, "error", err)
	}
	return nil
}

// PeekPasswordReset checks a reset token without consuming it, so the reset
// form can reject dead links before the user types a new password.
func (s *authService) PeekPasswordReset(ctx context.Context, token string) (*models.User, error) {
	link, err := s.repo.MagicLink().GetByToken(ctx, token)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLinkInvalid
		}
		return nil, fmt.Errorf("failed to look up reset link: %w", err)
	}
	if link.Purpose != models.PurposePasswordReset || !link.Usable(s.now()) {
		return nil, ErrLinkInvalid
	}

	user, err := s.repo.User().GetByID(ctx, link.UserID)
	if err != nil {
		return nil, ErrLinkInvalid
	}
	return user, nil
}

func (s *authService) CompletePasswordReset(ctx context.Context, req *CompletePasswordResetRequest, meta RequestMeta) (*LoginResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, NewValidationError("reset", "token and password are required", nil)
	}
	if len(req.Password) < s.cfg.MinPasswordLenReset {
		return nil, NewValidationError("password",
			fmt.Sprintf("password must be at least %d characters", s.cfg.MinPasswordLenReset), nil)
	}

	now := s.now()
	link, err := s.repo.MagicLink().Consume(ctx, req.Token, models.PurposePasswordReset, now)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLinkInvalid
		}
		if repositories.IsUnavailableError(err) {
			return nil, ErrStorageUnavailable
		}
		return nil, fmt.Errorf("failed to consume reset link: %w", err)
	}

	user, err := s.repo.User().GetByID(ctx, link.UserID)
	if err != nil {
		return nil, ErrLinkInvalid
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.User().UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	// A completed reset proves control of the mailbox; clear any lockout.
	if err := s.repo.User().ResetFailedLogins(ctx, user.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to clear lockout after reset", "user_id", user.ID, "error", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:    &user.ID,
		Action:    models.AuditPasswordResetCompleted,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})

	return s.openSession(ctx, user, meta)
}
