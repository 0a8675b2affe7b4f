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

// GradingService covers the admin grading workflow: reviewing submitted
// answers, awarding marks for manually graded questions, and releasing
// results back to the student.
type GradingService interface {
	GetGradingView(ctx context.Context, examID uint) (*GradingView, error)
	SaveGrades(ctx context.Context, examID uint, req *SaveGradesRequest, graderID uint, meta RequestMeta) (*models.PracticeExam, error)
	Release(ctx context.Context, examID uint, graderID uint, meta RequestMeta) (*models.PracticeExam, error)
}

type GradingView struct {
	Exam    *models.PracticeExam    `json:"exam"`
	Answers []*models.StudentAnswer `json:"answers"`
}

type SaveGradesRequest struct {
	Grades []GradeEntry `json:"grades" validate:"required,min=1,dive"`
}

type GradeEntry struct {
	QuestionID   uint   `json:"question_id" validate:"required"`
	MarksAwarded int    `json:"marks_awarded" validate:"min=0"`
	Feedback     string `json:"feedback"`
}

// AutoGradeAnswer scores one answer against its question. Only mcq and
// fill_blank are auto-gradable; both compare the trimmed, lowercased answer
// against the canonical one. The third return reports whether the question
// type is auto-gradable at all.
func AutoGradeAnswer(question *models.Question, submitted string) (correct bool, marks int, graded bool) {
	switch question.QuestionType {
	case models.QuestionMCQ, models.QuestionFillBlank:
	default:
		return false, 0, false
	}

	got := strings.ToLower(strings.TrimSpace(submitted))
	want := strings.ToLower(strings.TrimSpace(question.CorrectAnswer))
	if got != "" && got == want {
		return true, question.Marks, true
	}
	return false, 0, true
}

type gradingService struct {
	repo      repositories.TransactionRepository
	logger    utils.Logger
	validator *validator.Validate
	audit     AuditService
	publisher events.EventPublisher
	cfg       *config.Config

	now func() time.Time
}

func NewGradingService(
	repo repositories.TransactionRepository,
	logger utils.Logger,
	validate *validator.Validate,
	audit AuditService,
	publisher events.EventPublisher,
	cfg *config.Config,
) GradingService {
	return &gradingService{
		repo:      repo,
		logger:    logger,
		validator: validate,
		audit:     audit,
		publisher: publisher,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().In(cfg.Location) },
	}
}

func (s *gradingService) GetGradingView(ctx context.Context, examID uint) (*GradingView, error) {
	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status == models.ExamPending || exam.Status == models.ExamInProgress {
		return nil, NewTransitionError(examID, string(exam.Status), string(models.ExamGrading))
	}

	answers, err := s.repo.Answer().GetByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	return &GradingView{Exam: exam, Answers: answers}, nil
}

// SaveGrades stores manual marks and moves the exam into grading. Marks on
// auto-graded rows are preserved; only their feedback can change. The
// running total is recomputed from the answer rows, never trusted from the
// request.
func (s *gradingService) SaveGrades(ctx context.Context, examID uint, req *SaveGradesRequest, graderID uint, meta RequestMeta) (*models.PracticeExam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, NewValidationError("grades", err.Error(), nil)
	}

	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status != models.ExamSubmitted && exam.Status != models.ExamGrading {
		return nil, NewTransitionError(examID, string(exam.Status), string(models.ExamGrading))
	}

	answers, err := s.repo.Answer().GetByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	if len(answers) == 0 {
		return nil, ErrNothingToGrade
	}
	byQuestion := make(map[uint]*models.StudentAnswer, len(answers))
	for _, answer := range answers {
		byQuestion[answer.QuestionID] = answer
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

	for _, grade := range req.Grades {
		answer, ok := byQuestion[grade.QuestionID]
		if !ok {
			err = NewValidationError("question_id",
				fmt.Sprintf("question %d has no answer in this exam", grade.QuestionID), grade.QuestionID)
			return nil, err
		}

		if answer.AutoGraded {
			if grade.Feedback != "" {
				if err = txRepo.Answer().UpdateFeedback(ctx, examID, grade.QuestionID, grade.Feedback, now); err != nil {
					return nil, fmt.Errorf("failed to save feedback: %w", err)
				}
			}
			continue
		}

		question, qErr := s.repo.QuestionSet().GetQuestion(ctx, grade.QuestionID)
		if qErr != nil {
			err = fmt.Errorf("failed to load question %d: %w", grade.QuestionID, qErr)
			return nil, err
		}
		if grade.MarksAwarded > question.Marks {
			err = ErrGradingInvalidScore
			return nil, err
		}

		if err = txRepo.Answer().UpdateGrade(ctx, examID, grade.QuestionID, grade.MarksAwarded, grade.Feedback, now); err != nil {
			return nil, fmt.Errorf("failed to save grade: %w", err)
		}
	}

	total, sumErr := txRepo.Answer().SumMarksAwarded(ctx, examID)
	if sumErr != nil {
		err = fmt.Errorf("failed to total marks: %w", sumErr)
		return nil, err
	}

	ok, trErr := txRepo.Exam().Transition(ctx, examID,
		[]models.ExamStatus{models.ExamSubmitted, models.ExamGrading},
		map[string]any{
			"status":      models.ExamGrading,
			"total_score": total,
			"graded_by":   graderID,
			"graded_at":   now,
		})
	if trErr != nil {
		err = fmt.Errorf("failed to update exam: %w", trErr)
		return nil, err
	}
	if !ok {
		err = NewTransitionError(examID, string(exam.Status), string(models.ExamGrading))
		return nil, err
	}

	if err = txRepo.(repositories.TransactionRepository).Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &graderID,
		Action:       models.AuditGradesSaved,
		ResourceType: "practice_exam",
		ResourceID:   fmt.Sprint(examID),
		Details:      map[string]interface{}{"total_score": total},
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	})

	return s.getExam(ctx, examID)
}

// Release finalizes the attempt. The total is recomputed from the stored
// marks so a stale total_score can never be published, and the percentage
// guards against a zero max score.
func (s *gradingService) Release(ctx context.Context, examID uint, graderID uint, meta RequestMeta) (*models.PracticeExam, error) {
	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status != models.ExamSubmitted && exam.Status != models.ExamGrading {
		return nil, NewTransitionError(examID, string(exam.Status), string(models.ExamReleased))
	}

	total, err := s.repo.Answer().SumMarksAwarded(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to total marks: %w", err)
	}

	var percentage float64
	if exam.MaxScore > 0 {
		percentage = float64(total) / float64(exam.MaxScore) * 100
	}

	now := s.now()
	ok, err := s.repo.Exam().Transition(ctx, examID,
		[]models.ExamStatus{models.ExamSubmitted, models.ExamGrading},
		map[string]any{
			"status":           models.ExamReleased,
			"total_score":      total,
			"percentage":       percentage,
			"answers_released": true,
			"released_at":      now,
			"graded_by":        graderID,
			"graded_at":        now,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to release exam: %w", err)
	}
	if !ok {
		return nil, NewTransitionError(examID, string(exam.Status), string(models.ExamReleased))
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &graderID,
		Action:       models.AuditResultsReleased,
		ResourceType: "practice_exam",
		ResourceID:   fmt.Sprint(examID),
		Details:      map[string]interface{}{"total_score": total, "percentage": percentage},
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	})

	if pubErr := s.publisher.PublishNotificationEvent(ctx, events.NewResultsReleasedEvent(events.ResultsReleasedEvent{
		ExamID:       examID,
		StudentID:    exam.StudentID,
		StudentEmail: exam.Student.Email,
		ExamTitle:    exam.QuestionSet.Title,
		TotalScore:   total,
		MaxScore:     exam.MaxScore,
		Percentage:   percentage,
		ReleasedAt:   now,
	})); pubErr != nil {
		s.logger.WarnContext(ctx, "failed to publish release event", "exam_id", examID, "error", pubErr)
	}

	return s.getExam(ctx, examID)
}

func (s *gradingService) getExam(ctx context.Context, examID uint) (*models.PracticeExam, error) {
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
