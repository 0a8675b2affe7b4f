package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/springgate/practice-exam-service/internal/config"
	"github.com/springgate/practice-exam-service/internal/models"
	"github.com/springgate/practice-exam-service/internal/repositories"
	"github.com/springgate/practice-exam-service/internal/utils"
	"gorm.io/datatypes"
)

// QuestionSetService manages the exam content library.
type QuestionSetService interface {
	Create(ctx context.Context, req *CreateQuestionSetRequest, adminID uint) (*models.QuestionSet, error)
	Get(ctx context.Context, setID uint) (*models.QuestionSet, []*models.Question, error)
	List(ctx context.Context, filters repositories.QuestionSetFilters) ([]*models.QuestionSet, int64, error)
	AddQuestion(ctx context.Context, setID uint, req *AddQuestionRequest, adminID uint) (*models.Question, error)

	Share(ctx context.Context, setID uint, adminID uint, meta RequestMeta) (*ShareLink, error)
	RevokeShare(ctx context.Context, setID uint, adminID uint, meta RequestMeta) error
	SharedSet(ctx context.Context, token string) (*models.QuestionSet, []*models.Question, error)
}

type CreateQuestionSetRequest struct {
	Title           string                 `json:"title" validate:"required,min=1,max=200"`
	Subject         string                 `json:"subject" validate:"required,max=50"`
	Description     *string                `json:"description"`
	DurationMinutes int                    `json:"duration_minutes" validate:"min=0,max=300"`
	Difficulty      models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
}

type AddQuestionRequest struct {
	QuestionNumber int                 `json:"question_number" validate:"required,min=1"`
	QuestionType   models.QuestionType `json:"question_type" validate:"required,question_type"`
	QuestionText   string              `json:"question_text" validate:"required"`
	QuestionHTML   *string             `json:"question_html"`
	ImageURL       *string             `json:"image_url"`
	Marks          int                 `json:"marks" validate:"required,min=1"`
	Hint           *string             `json:"hint"`
	CorrectAnswer  string              `json:"correct_answer"`
	Options        []string            `json:"options"`
	MatchingPairs  []models.MatchPair  `json:"matching_pairs"`
}

type questionSetService struct {
	repo      repositories.Repository
	logger    utils.Logger
	validator *validator.Validate
	audit     AuditService
	cfg       *config.Config
}

func NewQuestionSetService(repo repositories.Repository, logger utils.Logger, validate *validator.Validate, audit AuditService, cfg *config.Config) QuestionSetService {
	return &questionSetService{
		repo:      repo,
		logger:    logger,
		validator: validate,
		audit:     audit,
		cfg:       cfg,
	}
}

func (s *questionSetService) Create(ctx context.Context, req *CreateQuestionSetRequest, adminID uint) (*models.QuestionSet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, NewValidationError("question_set", err.Error(), nil)
	}

	set := &models.QuestionSet{
		Title:           req.Title,
		Subject:         req.Subject,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Difficulty:      req.Difficulty,
		IsActive:        true,
		CreatedBy:       adminID,
	}
	if set.DurationMinutes == 0 {
		set.DurationMinutes = 60
	}

	if err := s.repo.QuestionSet().Create(ctx, set); err != nil {
		if repositories.IsUnavailableError(err) {
			return nil, ErrStorageUnavailable
		}
		return nil, fmt.Errorf("failed to create question set: %w", err)
	}

	s.logger.InfoContext(ctx, "question set created", "set_id", set.ID, "created_by", adminID)
	return set, nil
}

func (s *questionSetService) Get(ctx context.Context, setID uint) (*models.QuestionSet, []*models.Question, error) {
	set, err := s.repo.QuestionSet().GetByID(ctx, setID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrQuestionSetNotFound
		}
		if repositories.IsUnavailableError(err) {
			return nil, nil, ErrStorageUnavailable
		}
		return nil, nil, fmt.Errorf("failed to load question set: %w", err)
	}

	questions, err := s.repo.QuestionSet().GetQuestions(ctx, setID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load questions: %w", err)
	}
	return set, questions, nil
}

func (s *questionSetService) List(ctx context.Context, filters repositories.QuestionSetFilters) ([]*models.QuestionSet, int64, error) {
	sets, total, err := s.repo.QuestionSet().List(ctx, filters)
	if err != nil {
		if repositories.IsUnavailableError(err) {
			return nil, 0, ErrStorageUnavailable
		}
		return nil, 0, err
	}
	return sets, total, nil
}

func (s *questionSetService) AddQuestion(ctx context.Context, setID uint, req *AddQuestionRequest, adminID uint) (*models.Question, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, NewValidationError("question", err.Error(), nil)
	}
	if err := s.validateContent(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.QuestionSet().GetByID(ctx, setID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionSetNotFound
		}
		return nil, fmt.Errorf("failed to load question set: %w", err)
	}

	question := &models.Question{
		QuestionSetID:  setID,
		QuestionNumber: req.QuestionNumber,
		QuestionType:   req.QuestionType,
		QuestionText:   req.QuestionText,
		QuestionHTML:   req.QuestionHTML,
		ImageURL:       req.ImageURL,
		Marks:          req.Marks,
		Hint:           req.Hint,
		CorrectAnswer:  req.CorrectAnswer,
		IsActive:       true,
	}
	if len(req.Options) > 0 {
		data, err := json.Marshal(req.Options)
		if err != nil {
			return nil, fmt.Errorf("failed to encode options: %w", err)
		}
		question.Options = datatypes.JSON(data)
	}
	if len(req.MatchingPairs) > 0 {
		data, err := json.Marshal(req.MatchingPairs)
		if err != nil {
			return nil, fmt.Errorf("failed to encode matching pairs: %w", err)
		}
		question.MatchingPairs = datatypes.JSON(data)
	}

	if err := s.repo.QuestionSet().CreateQuestion(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	return question, nil
}

// Share mints a public token for the set. Shared sets expose questions only;
// canonical answers never leave through this path.
func (s *questionSetService) Share(ctx context.Context, setID uint, adminID uint, meta RequestMeta) (*ShareLink, error) {
	if _, err := s.repo.QuestionSet().GetByID(ctx, setID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionSetNotFound
		}
		return nil, fmt.Errorf("failed to load question set: %w", err)
	}

	token, err := utils.NewToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate share token: %w", err)
	}
	if err := s.repo.QuestionSet().SetShareToken(ctx, setID, &token); err != nil {
		return nil, fmt.Errorf("failed to store share token: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &adminID,
		Action:       models.AuditShareCreated,
		ResourceType: "question_set",
		ResourceID:   fmt.Sprint(setID),
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	})

	return &ShareLink{
		Token: token,
		URL:   fmt.Sprintf("%s/share/question/%s", s.cfg.BaseURL, token),
	}, nil
}

func (s *questionSetService) RevokeShare(ctx context.Context, setID uint, adminID uint, meta RequestMeta) error {
	if _, err := s.repo.QuestionSet().GetByID(ctx, setID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionSetNotFound
		}
		return fmt.Errorf("failed to load question set: %w", err)
	}

	if err := s.repo.QuestionSet().SetShareToken(ctx, setID, nil); err != nil {
		return fmt.Errorf("failed to clear share token: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &adminID,
		Action:       models.AuditShareRevoked,
		ResourceType: "question_set",
		ResourceID:   fmt.Sprint(setID),
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	})
	return nil
}

func (s *questionSetService) SharedSet(ctx context.Context, token string) (*models.QuestionSet, []*models.Question, error) {
	if token == "" {
		return nil, nil, ErrShareNotFound
	}

	set, err := s.repo.QuestionSet().GetByShareToken(ctx, token)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrShareNotFound
		}
		if repositories.IsUnavailableError(err) {
			return nil, nil, ErrStorageUnavailable
		}
		return nil, nil, fmt.Errorf("failed to resolve share token: %w", err)
	}

	questions, err := s.repo.QuestionSet().GetQuestions(ctx, set.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load questions: %w", err)
	}
	for _, question := range questions {
		question.CorrectAnswer = ""
	}
	return set, questions, nil
}

// validateContent enforces the per-type content rules that struct tags
// cannot express.
func (s *questionSetService) validateContent(req *AddQuestionRequest) error {
	switch req.QuestionType {
	case models.QuestionMCQ:
		if len(req.Options) < 2 {
			return NewValidationError("options", "mcq questions need at least two options", nil)
		}
		if req.CorrectAnswer == "" {
			return NewValidationError("correct_answer", "mcq questions need a correct answer", nil)
		}
	case models.QuestionFillBlank:
		if req.CorrectAnswer == "" {
			return NewValidationError("correct_answer", "fill_blank questions need a correct answer", nil)
		}
	case models.QuestionMatching:
		if len(req.MatchingPairs) == 0 {
			return NewValidationError("matching_pairs", "matching questions need pairs", nil)
		}
	}
	return nil
}
