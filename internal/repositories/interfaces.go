package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/springgate/practice-exam-service/internal/models"
	"gorm.io/gorm"
)

// ===== AGGREGATE =====

type Repository interface {
	User() UserRepository
	Role() RoleRepository
	Session() SessionRepository
	MagicLink() MagicLinkRepository
	QuestionSet() QuestionSetRepository
	Exam() ExamRepository
	Answer() AnswerRepository
	Audit() AuditRepository
}

// TransactionRepository wraps Repository in an explicit transactional unit.
// Every exam state transition and the magic-link consume run inside one.
type TransactionRepository interface {
	Repository
	Begin(ctx context.Context) (Repository, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// ===== PER-ENTITY CONTRACTS =====

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)

	// IncrementFailedLogins bumps the counter with a single SQL expression
	// (races may cost an off-by-one on the threshold, never a corrupt value)
	// and returns the new count.
	IncrementFailedLogins(ctx context.Context, id uint) (int, error)
	LockUntil(ctx context.Context, id uint, until time.Time) error
	ResetFailedLogins(ctx context.Context, id uint) error
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	SetActive(ctx context.Context, id uint, active bool) error
}

type RoleRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Role, error)
	GetByName(ctx context.Context, name models.UserRole) (*models.Role, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	// ListByUser returns the user's unexpired sessions, newest first.
	ListByUser(ctx context.Context, userID uint, now time.Time) ([]*models.Session, error)
	// TouchActivity refreshes last_activity; callers treat failures as
	// best-effort (a stale timestamp under concurrency is acceptable).
	TouchActivity(ctx context.Context, token string, at time.Time) error
	Delete(ctx context.Context, token string) error
	// DeleteByUser removes every session of the user except the one holding
	// exceptToken, reporting how many rows went.
	DeleteByUser(ctx context.Context, userID uint, exceptToken string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type MagicLinkRepository interface {
	Create(ctx context.Context, link *models.MagicLink) error
	// GetByToken is a non-consuming peek (used by the reset-password page).
	GetByToken(ctx context.Context, token string) (*models.MagicLink, error)
	// Consume atomically marks the link used iff it is unused, unexpired, and
	// carries the given purpose, returning ErrNoRows when the guard fails.
	// Two concurrent consumers of the same token must not both succeed, and a
	// wrong-purpose attempt must leave the link unconsumed.
	Consume(ctx context.Context, token string, purpose models.MagicLinkPurpose, now time.Time) (*models.MagicLink, error)
}

type QuestionSetRepository interface {
	Create(ctx context.Context, set *models.QuestionSet) error
	GetByID(ctx context.Context, id uint) (*models.QuestionSet, error)
	List(ctx context.Context, filters QuestionSetFilters) ([]*models.QuestionSet, int64, error)
	CreateQuestion(ctx context.Context, question *models.Question) error
	GetQuestion(ctx context.Context, id uint) (*models.Question, error)
	GetQuestions(ctx context.Context, setID uint) ([]*models.Question, error)
	// SumMarks totals the marks of the set's active questions; the caller
	// snapshots it as max_score at assignment time.
	SumMarks(ctx context.Context, setID uint) (int, error)

	GetByShareToken(ctx context.Context, token string) (*models.QuestionSet, error)
	// SetShareToken stores or clears (nil) the set's public share token.
	SetShareToken(ctx context.Context, id uint, token *string) error
}

type ExamRepository interface {
	Create(ctx context.Context, exam *models.PracticeExam) error
	GetByID(ctx context.Context, id uint) (*models.PracticeExam, error)
	GetForStudent(ctx context.Context, id, studentID uint) (*models.PracticeExam, error)
	List(ctx context.Context, filters ExamFilters) ([]*models.PracticeExam, int64, error)
	Update(ctx context.Context, exam *models.PracticeExam) error

	// Transition applies updates iff the row's current status is one of
	// from, reporting whether a row changed. Status guards live in the WHERE
	// clause so concurrent transitions cannot both win.
	Transition(ctx context.Context, id uint, from []models.ExamStatus, updates map[string]any) (bool, error)

	StudentStats(ctx context.Context, studentID uint) (*StudentStats, error)

	GetByShareToken(ctx context.Context, token string) (*models.PracticeExam, error)
	// SetShare stores or clears the public share token together with the
	// is_public flag; the two always move as a pair.
	SetShare(ctx context.Context, id uint, token *string, public bool) error
	// IncrementShareViews bumps the counter with a single SQL expression.
	IncrementShareViews(ctx context.Context, id uint) error
}

type AnswerRepository interface {
	Upsert(ctx context.Context, answer *models.StudentAnswer) error
	GetByExam(ctx context.Context, examID uint) ([]*models.StudentAnswer, error)
	GetByExamAndQuestion(ctx context.Context, examID, questionID uint) (*models.StudentAnswer, error)
	UpdateGrade(ctx context.Context, examID, questionID uint, marksAwarded int, feedback string, gradedAt time.Time) error
	// SetAutoGrade stamps the submit-time scoring of one answer; rows written
	// through it are skipped by manual grade saves.
	SetAutoGrade(ctx context.Context, examID, questionID uint, correct bool, marksAwarded int, gradedAt time.Time) error
	UpdateFeedback(ctx context.Context, examID, questionID uint, feedback string, gradedAt time.Time) error
	// SumMarksAwarded is the authoritative total used by grade-save and
	// release; nil marks count as zero.
	SumMarksAwarded(ctx context.Context, examID uint) (int, error)
	DeleteByExam(ctx context.Context, examID uint) error
}

type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filters AuditFilters) ([]*models.AuditLog, int64, error)
}

// ===== SHARED FILTER STRUCTS =====

type UserFilters struct {
	Role     *models.UserRole `json:"role"`
	IsActive *bool            `json:"is_active"`
	Search   string           `json:"search"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

type QuestionSetFilters struct {
	Subject  string `json:"subject"`
	IsActive *bool  `json:"is_active"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}

type ExamFilters struct {
	StudentID *uint               `json:"student_id"`
	Statuses  []models.ExamStatus `json:"statuses"`
	Subject   string              `json:"subject"`
	DateFrom  *time.Time          `json:"date_from"`
	DateTo    *time.Time          `json:"date_to"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
	SortBy    string              `json:"sort_by"`    // "exam_date", "released_at", "created_at"
	SortOrder string              `json:"sort_order"` // "asc", "desc"
}

type AuditFilters struct {
	UserID   *uint      `json:"user_id"`
	Action   string     `json:"action"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

type StudentStats struct {
	TotalExams int     `json:"total_exams"`
	AvgScore   float64 `json:"avg_score"`
	BestScore  float64 `json:"best_score"`
}

// ===== ERROR CLASSIFICATION =====

// IsNotFoundError reports whether err is the store's row-missing condition.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsUnavailableError reports whether err looks like the store being
// unreachable rather than a data-level failure. Services map this to their
// storage-unavailable kind instead of surfacing driver detail.
func IsUnavailableError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
