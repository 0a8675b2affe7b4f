package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/springgate/practice-exam-service/internal/config"
	"github.com/springgate/practice-exam-service/internal/events"
	"github.com/springgate/practice-exam-service/internal/models"
	"github.com/springgate/practice-exam-service/internal/utils"
	"github.com/stretchr/testify/require"
)

// testEnv bundles a fake store with every service under test, all sharing
// one controllable clock.
type testEnv struct {
	repo      *fakeRepo
	cfg       *config.Config
	publisher *events.MockEventPublisher

	auth    AuthService
	links   MagicLinkService
	users   UserService
	sets    QuestionSetService
	exams   ExamService
	grading GradingService

	clock time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		BaseURL:             "http://exam.test",
		Location:            time.UTC,
		SessionDuration:     30 * 24 * time.Hour,
		MagicLinkValidity:   72 * time.Hour,
		MaxFailedLogins:     5,
		LockoutDuration:     30 * time.Minute,
		MinPasswordLenAdmin: 8,
		MinPasswordLenReset: 6,
	}

	env := &testEnv{
		repo:      newFakeRepo(),
		cfg:       cfg,
		publisher: events.NewMockEventPublisher(),
		clock:     time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	validate := utils.NewValidator()
	now := func() time.Time { return env.clock }

	audit := NewAuditService(env.repo, logger)

	auth := NewAuthService(env.repo, logger, validate, audit, env.publisher, cfg).(*authService)
	auth.now = now
	env.auth = auth

	links := NewMagicLinkService(env.repo, logger, audit, cfg).(*magicLinkService)
	links.now = now
	env.links = links

	users := NewUserService(env.repo, logger, validate, audit, cfg).(*userService)
	users.now = now
	env.users = users

	env.sets = NewQuestionSetService(env.repo, logger, validate, audit, cfg)

	exams := NewExamService(env.repo, logger, validate, audit, env.links, env.publisher, cfg).(*examService)
	exams.now = now
	env.exams = exams

	grading := NewGradingService(env.repo, logger, validate, audit, env.publisher, cfg).(*gradingService)
	grading.now = now
	env.grading = grading

	return env
}

func (env *testEnv) advance(d time.Duration) {
	env.clock = env.clock.Add(d)
}

// seedStudent creates an active student with the given password.
func (env *testEnv) seedStudent(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     "Test Student",
		RoleID:       2,
		IsActive:     true,
	}
	require.NoError(t, env.repo.User().Create(context.Background(), user))
	return user
}

func (env *testEnv) seedAdmin(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     "Test Admin",
		RoleID:       1,
		IsActive:     true,
	}
	require.NoError(t, env.repo.User().Create(context.Background(), user))
	return user
}

// seedQuestionSet creates a set with one mcq (3 marks), one fill_blank
// (2 marks) and one written question (5 marks).
func (env *testEnv) seedQuestionSet(t *testing.T) (*models.QuestionSet, []*models.Question) {
	t.Helper()
	ctx := context.Background()

	set := &models.QuestionSet{
		Title:           "Algebra Basics",
		Subject:         "math",
		DurationMinutes: 90,
		IsActive:        true,
	}
	require.NoError(t, env.repo.QuestionSet().Create(ctx, set))

	questions := []*models.Question{
		{
			QuestionSetID:  set.ID,
			QuestionNumber: 1,
			QuestionType:   models.QuestionMCQ,
			QuestionText:   "2 + 2 = ?",
			CorrectAnswer:  "4",
			Marks:          3,
			IsActive:       true,
		},
		{
			QuestionSetID:  set.ID,
			QuestionNumber: 2,
			QuestionType:   models.QuestionFillBlank,
			QuestionText:   "The capital of France is ___",
			CorrectAnswer:  "Paris",
			Marks:          2,
			IsActive:       true,
		},
		{
			QuestionSetID:  set.ID,
			QuestionNumber: 3,
			QuestionType:   models.QuestionWritten,
			QuestionText:   "Explain the distributive law.",
			Marks:          5,
			IsActive:       true,
		},
	}
	for _, question := range questions {
		require.NoError(t, env.repo.QuestionSet().CreateQuestion(ctx, question))
	}
	return set, questions
}

func (env *testEnv) meta() RequestMeta {
	return RequestMeta{IPAddress: "203.0.113.7", UserAgent: "test-agent"}
}
