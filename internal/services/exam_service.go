package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/springgate/practice-exam-service/internal/config"
	"github.com/springgate/practice-exam-service/internal/events"
	"github.com/springgate/practice-exam-service/internal/models"
	"github.com/springgate/practice-exam-service/internal/repositories"
	"github.com/springgate/practice-exam-service/internal/utils"
)

// defaultMaxScore is used when a question set carries no marks at all, so a
// released exam never divides by zero.
const defaultMaxScore = 50

// ExamService owns the attempt lifecycle: assignment, taking, submission
// with auto-grading, and the admin-side reset.
type ExamService interface {
	Assign(ctx context.Context, req *AssignExamRequest, adminID uint, meta RequestMeta) (*models.PracticeExam, error)
	UpdateSchedule(ctx context.Context, examID uint, req *UpdateScheduleRequest, adminID uint, meta RequestMeta) (*models.PracticeExam, error)
	List(ctx context.Context, filters repositories.ExamFilters) ([]*models.PracticeExam, int64, error)
	Reset(ctx context.Context, examID uint, adminID uint, meta RequestMeta) (*models.PracticeExam, error)

	Open(ctx context.Context, examID, studentID uint) (*ExamView, error)
	Start(ctx context.Context, examID, studentID uint, meta RequestMeta) (*models.PracticeExam, error)
	SaveAnswer(ctx context.Context, examID, studentID uint, req *SaveAnswerRequest) error
	Submit(ctx context.Context, examID, studentID uint, meta RequestMeta) (*models.PracticeExam, error)
	Results(ctx context.Context, examID, studentID uint) (*ExamView, error)

	Share(ctx context.Context, examID uint, actor *models.User, meta RequestMeta) (*ShareLink, error)
	RevokeShare(ctx context.Context, examID uint, actor *models.User, meta RequestMeta) error
	SharedResult(ctx context.Context, token string) (*ExamView, error)
}

type AssignExamRequest struct {
	StudentID     uint       `json:"student_id" validate:"required"`
	QuestionSetID uint       `json:"question_set_id" validate:"required"`
	ExamDate      *time.Time `json:"exam_date"`
	ScheduledAt   *time.Time `json:"scheduled_at"`
	Deadline      *time.Time `json:"deadline"`
}

type UpdateScheduleRequest struct {
	ExamDate    *time.Time `json:"exam_date"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Deadline    *time.Time `json:"deadline"`
}

type SaveAnswerRequest struct {
	QuestionID  uint    `json:"question_id" validate:"required"`
	Answer      string  `json:"answer"`
	DrawingData *string `json:"drawing_data"`
}

// ShareLink is a freshly minted public URL for a released result.
type ShareLink struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// ExamView is the student-facing bundle of an attempt. Correct answers are
// stripped from the questions until results are released.
type ExamView struct {
	Exam      *models.PracticeExam    `json:"exam"`
	Questions []*models.Question      `json:"questions"`
	Answers   []*models.StudentAnswer `json:"answers"`
}

type examService struct {
	repo      repositories.TransactionRepository
	logger    utils.Logger
	validator *validator.Validate
	audit     AuditService
	links     MagicLinkService
	publisher events.EventPublisher
	cfg       *config.Config

	now func() time.Time
}

func NewExamService(
	repo repositories.TransactionRepository,
	logger utils.Logger,
	validate *validator.Validate,
	audit AuditService,
	links MagicLinkService,
	publisher events.EventPublisher,
	cfg *config.Config,
) ExamService {
	return &examService{
		repo:      repo,
		logger:    logger,
		validator: validate,
		audit:     audit,
		links:     links,
		publisher: publisher,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().In(cfg.Location) },
	}
}

// ===== ADMIN OPERATIONS =====

// Assign creates a pending attempt for one student. MaxScore is snapshotted
// here from the set's active questions; later edits to the set do not move
// the goalposts of an assigned exam.
func (s *examService) Assign(ctx context.Context, req *AssignExamRequest, adminID uint, meta RequestMeta) (*models.PracticeExam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, NewValidationError("exam", err.Error(), nil)
	}

	student, err := s.repo.User().GetByID(ctx, req.StudentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if student.RoleName != models.RoleStudent || !student.IsActive {
		return nil, ErrUserNotFound
	}

	set, err := s.repo.QuestionSet().GetByID(ctx, req.QuestionSetID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionSetNotFound
		}
		return nil, fmt.Errorf("failed to load question set: %w", err)
	}

	maxScore, err := s.repo.QuestionSet().SumMarks(ctx, req.QuestionSetID)
	if err != nil {
		return nil, fmt.Errorf("failed to total question marks: %w", err)
	}
	if maxScore == 0 {
		maxScore = set.TotalMarks
	}
	if maxScore == 0 {
		maxScore = defaultMaxScore
	}

	exam := &models.PracticeExam{
		StudentID:     req.StudentID,
		QuestionSetID: req.QuestionSetID,
		Status:        models.ExamPending,
		ExamDate:      req.ExamDate,
		ScheduledAt:   req.ScheduledAt,
		Deadline:      req.Deadline,
		MaxScore:      maxScore,
	}
	if err := s.repo.Exam().Create(ctx, exam); err != nil {
		if repositories.IsUnavailableError(err) {
			return nil, ErrStorageUnavailable
		}
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}

	link, err := s.links.IssueExamLink(ctx, req.StudentID, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue exam link: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &adminID,
		Action:       models.AuditExamAssigned,
		ResourceType: "practice_exam",
		ResourceID:   fmt.Sprint(exam.ID),
		Details:      map[string]interface{}{"student_id": req.StudentID, "question_set_id": req.QuestionSetID},
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	})

	if pubErr := s.publisher.PublishNotificationEvent(ctx, events.NewExamAssignedEvent(events.ExamAssignedEvent{
		ExamID:       exam.ID,
		StudentID:    student.ID,
		StudentEmail: student.Email,
		ExamTitle:    set.Title,
		ExamDate:     req.ExamDate,
		MagicLinkURL: link.URL,
		LinkExpires:  link.ExpiresAt,
	})); pubErr != nil {
		s.logger.WarnContext(ctx, "failed to publish assignment event", "exam_id", exam.ID, "error", pubErr)
	}

	return s.repo.Exam().GetByID(ctx, exam.ID)
}

func (s *examService) UpdateSchedule(ctx context.Context, examID uint, req *UpdateScheduleRequest, adminID uint, meta RequestMeta) (*models.PracticeExam, error) {
	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	if req.ExamDate != nil {
		exam.ExamDate = req.ExamDate
	}
	if req.ScheduledAt != nil {
		exam.ScheduledAt = req.ScheduledAt
	}
	if req.Deadline != nil {
		exam.Deadline = req.Deadline
	}

	if err := s.repo.Exam().Update(ctx, exam); err != nil {
		return nil, fmt.Errorf("failed to update schedule: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &adminID,
		Action:       models.AuditScheduleUpdated,
		ResourceType: "practice_exam",
		ResourceID:   fmt.Sprint(examID),
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	})
	return exam, nil
}

func (s *examService) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.PracticeExam, int64, error) {
	exams, total, err := s.repo.Exam().List(ctx, filters)
	if err != nil {
		if repositories.IsUnavailableError(err) {
			return nil, 0, ErrStorageUnavailable
		}
		return nil, 0, err
	}
	return exams, total, nil
}

// Reset wipes an attempt back to pending. The student's answers are deleted
// outright; this is destructive and only reachable by admins.
func (s *examService) Reset(ctx context.Context, examID uint, adminID uint, meta RequestMeta) (*models.PracticeExam, error) {
	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status == models.ExamPending {
		return nil, NewTransitionError(examID, string(exam.Status), string(models.ExamPending))
	}

	txRepo, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			txRepo.(repositories.TransactionRepository).Rollback(ctx)
		}
	}()

	if err = txRepo.Answer().DeleteByExam(ctx, examID); err != nil {
		return nil, fmt.Errorf("failed to delete answers: %w", err)
	}

	ok, trErr := txRepo.Exam().Transition(ctx, examID,
		[]models.ExamStatus{models.ExamInProgress, models.ExamSubmitted, models.ExamGrading, models.ExamReleased},
		map[string]any{
			"status":            models.ExamPending,
			"started_at":        nil,
			"submitted_at":      nil,
			"is_delayed":        false,
			"auto_graded_score": nil,
			"total_score":       nil,
			"percentage":        nil,
			"graded_by":         nil,
			"graded_at":         nil,
			"answers_released":  false,
			"released_at":       nil,
		})
	if trErr != nil {
		err = fmt.Errorf("failed to reset exam: %w", trErr)
		return nil, err
	}
	if !ok {
		err = NewTransitionError(examID, string(exam.Status), string(models.ExamPending))
		return nil, err
	}

	if err = txRepo.(repositories.TransactionRepository).Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &adminID,
		Action:       models.AuditExamReset,
		ResourceType: "practice_exam",
		ResourceID:   fmt.Sprint(examID),
		Details:      map[string]interface{}{"previous_status": exam.Status},
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	})

	return s.getExam(ctx, examID)
}

// ===== STUDENT OPERATIONS =====

func (s *examService) Open(ctx context.Context, examID, studentID uint) (*ExamView, error) {
	exam, err := s.getStudentExam(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, exam)
}

// Start moves a pending attempt to in_progress and stamps started_at once.
// Re-entering an attempt that is already running is not an error; the
// original start time is kept.
func (s *examService) Start(ctx context.Context, examID, studentID uint, meta RequestMeta) (*models.PracticeExam, error) {
	exam, err := s.getStudentExam(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}

	switch exam.Status {
	case models.ExamInProgress:
		return exam, nil
	case models.ExamPending:
	default:
		return nil, NewTransitionError(examID, string(exam.Status), string(models.ExamInProgress))
	}

	now := s.now()
	ok, err := s.repo.Exam().Transition(ctx, examID,
		[]models.ExamStatus{models.ExamPending},
		map[string]any{
			"status":     models.ExamInProgress,
			"started_at": now,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to start exam: %w", err)
	}
	if !ok {
		// Lost a race; re-read and tolerate a concurrent start.
		exam, err = s.getStudentExam(ctx, examID, studentID)
		if err != nil {
			return nil, err
		}
		if exam.Status == models.ExamInProgress {
			return exam, nil
		}
		return nil, NewTransitionError(examID, string(exam.Status), string(models.ExamInProgress))
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &studentID,
		Action:       models.AuditExamStarted,
		ResourceType: "practice_exam",
		ResourceID:   fmt.Sprint(examID),
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	})

	return s.getStudentExam(ctx, examID, studentID)
}

// SaveAnswer upserts one answer while the attempt is still open. Drawing
// payloads are routed to their own column so the text answer stays clean.
func (s *examService) SaveAnswer(ctx context.Context, examID, studentID uint, req *SaveAnswerRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return NewValidationError("answer", err.Error(), nil)
	}

	exam, err := s.getStudentExam(ctx, examID, studentID)
	if err != nil {
		return err
	}
	if exam.Status != models.ExamPending && exam.Status != models.ExamInProgress {
		return NewTransitionError(examID, string(exam.Status), string(exam.Status))
	}

	question, err := s.repo.QuestionSet().GetQuestion(ctx, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to load question: %w", err)
	}
	if question.QuestionSetID != exam.QuestionSetID {
		return ErrQuestionNotFound
	}

	now := s.now()
	answer := &models.StudentAnswer{
		PracticeExamID: examID,
		QuestionID:     req.QuestionID,
		StudentAnswer:  req.Answer,
		AnsweredAt:     &now,
	}
	if question.QuestionType == models.QuestionDrawing {
		answer.DrawingData = req.DrawingData
	}

	if err := s.repo.Answer().Upsert(ctx, answer); err != nil {
		if repositories.IsUnavailableError(err) {
			return ErrStorageUnavailable
		}
		return fmt.Errorf("failed to save answer: %w", err)
	}
	return nil
}

// Submit finalizes the attempt: auto-grades every auto-gradable answer,
// computes the delay flag, and moves the attempt to submitted. The status
// guard in the transition makes a double submit a no-op for the loser.
func (s *examService) Submit(ctx context.Context, examID, studentID uint, meta RequestMeta) (*models.PracticeExam, error) {
	exam, err := s.getStudentExam(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}
	if exam.Status != models.ExamPending && exam.Status != models.ExamInProgress {
		return nil, NewTransitionError(examID, string(exam.Status), string(models.ExamSubmitted))
	}

	questions, err := s.repo.QuestionSet().GetQuestions(ctx, exam.QuestionSetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	questionByID := make(map[uint]*models.Question, len(questions))
	for _, question := range questions {
		questionByID[question.ID] = question
	}

	answers, err := s.repo.Answer().GetByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	now := s.now()

	txRepo, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			txRepo.(repositories.TransactionRepository).Rollback(ctx)
		}
	}()

	autoScore := 0
	for _, answer := range answers {
		question, ok := questionByID[answer.QuestionID]
		if !ok {
			continue
		}
		correct, marks, graded := AutoGradeAnswer(question, answer.StudentAnswer)
		if !graded {
			continue
		}
		if err = txRepo.Answer().SetAutoGrade(ctx, examID, answer.QuestionID, correct, marks, now); err != nil {
			return nil, fmt.Errorf("failed to record auto grade: %w", err)
		}
		autoScore += marks
	}

	ok, trErr := txRepo.Exam().Transition(ctx, examID,
		[]models.ExamStatus{models.ExamPending, models.ExamInProgress},
		map[string]any{
			"status":            models.ExamSubmitted,
			"submitted_at":      now,
			"is_delayed":        s.isDelayed(exam, now),
			"auto_graded_score": autoScore,
		})
	if trErr != nil {
		err = fmt.Errorf("failed to submit exam: %w", trErr)
		return nil, err
	}
	if !ok {
		err = NewTransitionError(examID, string(exam.Status), string(models.ExamSubmitted))
		return nil, err
	}

	if err = txRepo.(repositories.TransactionRepository).Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &studentID,
		Action:       models.AuditExamSubmitted,
		ResourceType: "practice_exam",
		ResourceID:   fmt.Sprint(examID),
		Details:      map[string]interface{}{"auto_graded_score": autoScore},
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	})

	if pubErr := s.publisher.PublishNotificationEvent(ctx, events.NewExamSubmittedEvent(events.ExamSubmittedEvent{
		ExamID:      examID,
		StudentID:   studentID,
		ExamTitle:   exam.QuestionSet.Title,
		SubmittedAt: now,
		IsDelayed:   s.isDelayed(exam, now),
	})); pubErr != nil {
		s.logger.WarnContext(ctx, "failed to publish submit event", "exam_id", examID, "error", pubErr)
	}

	return s.getStudentExam(ctx, examID, studentID)
}

func (s *examService) Results(ctx context.Context, examID, studentID uint) (*ExamView, error) {
	exam, err := s.getStudentExam(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}
	if exam.Status != models.ExamReleased || !exam.AnswersReleased {
		return nil, ErrExamNotReleased
	}
	return s.buildView(ctx, exam)
}

// ===== PUBLIC SHARING =====

// Share mints a fresh public token for an exam result. The owning student or
// an admin may share; re-sharing rotates the token, invalidating the old URL.
func (s *examService) Share(ctx context.Context, examID uint, actor *models.User, meta RequestMeta) (*ShareLink, error) {
	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if actor.RoleName != models.RoleAdmin && exam.StudentID != actor.ID {
		return nil, NewPermissionError(actor.ID, "practice_exam", "share", "not the owner")
	}

	token, err := utils.NewToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate share token: %w", err)
	}
	if err := s.repo.Exam().SetShare(ctx, examID, &token, true); err != nil {
		return nil, fmt.Errorf("failed to store share token: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &actor.ID,
		Action:       models.AuditShareCreated,
		ResourceType: "practice_exam",
		ResourceID:   fmt.Sprint(examID),
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	})

	return &ShareLink{
		Token: token,
		URL:   fmt.Sprintf("%s/share/exam/%s", s.cfg.BaseURL, token),
	}, nil
}

func (s *examService) RevokeShare(ctx context.Context, examID uint, actor *models.User, meta RequestMeta) error {
	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return err
	}
	if actor.RoleName != models.RoleAdmin && exam.StudentID != actor.ID {
		return NewPermissionError(actor.ID, "practice_exam", "unshare", "not the owner")
	}

	if err := s.repo.Exam().SetShare(ctx, examID, nil, false); err != nil {
		return fmt.Errorf("failed to clear share token: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &actor.ID,
		Action:       models.AuditShareRevoked,
		ResourceType: "practice_exam",
		ResourceID:   fmt.Sprint(examID),
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	})
	return nil
}

// SharedResult resolves a public share token. Only released results are
// visible; an exam shared before release stays hidden until it is released.
// Every successful view bumps the share counter.
func (s *examService) SharedResult(ctx context.Context, token string) (*ExamView, error) {
	if token == "" {
		return nil, ErrShareNotFound
	}

	exam, err := s.repo.Exam().GetByShareToken(ctx, token)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrShareNotFound
		}
		if repositories.IsUnavailableError(err) {
			return nil, ErrStorageUnavailable
		}
		return nil, fmt.Errorf("failed to resolve share token: %w", err)
	}
	if exam.Status != models.ExamReleased || !exam.AnswersReleased {
		return nil, ErrShareNotFound
	}

	if err := s.repo.Exam().IncrementShareViews(ctx, exam.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to count share view", "exam_id", exam.ID, "error", err)
	}

	return s.buildView(ctx, exam)
}

// ===== HELPERS =====

// isDelayed reports whether a submission at the given instant counts as
// late. The threshold is the set's duration, or a fixed 60 minutes when the
// compatibility flag is on. Never-started attempts are not late.
func (s *examService) isDelayed(exam *models.PracticeExam, submittedAt time.Time) bool {
	if exam.StartedAt == nil {
		return false
	}
	threshold := 60 * time.Minute
	if !s.cfg.DelayCompatFixed60 && exam.QuestionSet.DurationMinutes > 0 {
		threshold = time.Duration(exam.QuestionSet.DurationMinutes) * time.Minute
	}
	return submittedAt.Sub(*exam.StartedAt) > threshold
}

func (s *examService) buildView(ctx context.Context, exam *models.PracticeExam) (*ExamView, error) {
	questions, err := s.repo.QuestionSet().GetQuestions(ctx, exam.QuestionSetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	released := exam.Status == models.ExamReleased && exam.AnswersReleased
	if !released {
		for _, question := range questions {
			question.CorrectAnswer = ""
		}
	}

	answers, err := s.repo.Answer().GetByExam(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	if !released {
		for _, answer := range answers {
			answer.IsCorrect = nil
			answer.MarksAwarded = nil
			answer.AdminFeedback = nil
		}
	}

	return &ExamView{Exam: exam, Questions: questions, Answers: answers}, nil
}

func (s *examService) getExam(ctx context.Context, examID uint) (*models.PracticeExam, error) {
	exam, err := s.repo.Exam().GetByID(ctx, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		if repositories.IsUnavailableError(err) {
			return nil, ErrStorageUnavailable
		}
		return nil, fmt.Errorf("failed to load exam: %w", err)
	}
	return exam, nil
}

func (s *examService) getStudentExam(ctx context.Context, examID, studentID uint) (*models.PracticeExam, error) {
	exam, err := s.repo.Exam().GetForStudent(ctx, examID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		if repositories.IsUnavailableError(err) {
			return nil, ErrStorageUnavailable
		}
		return nil, fmt.Errorf("failed to load exam: %w", err)
	}
	return exam, nil
}
