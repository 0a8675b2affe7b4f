package services

import (
	"context"
	"testing"

	"github.com/springgate/practice-exam-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// releaseExam drives a submitted exam through grading and release.
func releaseExam(t *testing.T, env *testEnv, examID uint, questions []*models.Question) {
	t.Helper()
	ctx := context.Background()

	_, err := env.grading.SaveGrades(ctx, examID, &SaveGradesRequest{
		Grades: []GradeEntry{{QuestionID: questions[2].ID, MarksAwarded: 5}},
	}, 1, env.meta())
	require.NoError(t, err)
	_, err = env.grading.Release(ctx, examID, 1, env.meta())
	require.NoError(t, err)
}

func TestShareReleasedExamResolvesPubliclyAndCountsViews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam, questions := submitGradedExam(t, env)
	releaseExam(t, env, exam.ID, questions)

	owner, err := env.repo.User().GetByID(ctx, exam.StudentID)
	require.NoError(t, err)

	link, err := env.exams.Share(ctx, exam.ID, owner, env.meta())
	require.NoError(t, err)
	require.NotEmpty(t, link.Token)
	assert.Contains(t, link.URL, link.Token)

	// The token resolves without any authentication context and shows the
	// released answers.
	view, err := env.exams.SharedResult(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, exam.ID, view.Exam.ID)
	foundAnswer := false
	for _, question := range view.Questions {
		if question.CorrectAnswer != "" {
			foundAnswer = true
		}
	}
	assert.True(t, foundAnswer)

	// Each successful resolution bumps the view counter.
	_, err = env.exams.SharedResult(ctx, link.Token)
	require.NoError(t, err)
	stored, err := env.repo.Exam().GetByID(ctx, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.ShareViews)
	assert.Contains(t, env.repo.Audit().(*fakeAudits).actions(), models.AuditShareCreated)
}

func TestShareAgainRotatesTokenAndRevokeKillsIt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam, questions := submitGradedExam(t, env)
	releaseExam(t, env, exam.ID, questions)

	owner, err := env.repo.User().GetByID(ctx, exam.StudentID)
	require.NoError(t, err)

	first, err := env.exams.Share(ctx, exam.ID, owner, env.meta())
	require.NoError(t, err)
	second, err := env.exams.Share(ctx, exam.ID, owner, env.meta())
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	// The old URL stops working the moment a new one is minted.
	_, err = env.exams.SharedResult(ctx, first.Token)
	assert.ErrorIs(t, err, ErrShareNotFound)
	_, err = env.exams.SharedResult(ctx, second.Token)
	require.NoError(t, err)

	require.NoError(t, env.exams.RevokeShare(ctx, exam.ID, owner, env.meta()))
	_, err = env.exams.SharedResult(ctx, second.Token)
	assert.ErrorIs(t, err, ErrShareNotFound)
	assert.Contains(t, env.repo.Audit().(*fakeAudits).actions(), models.AuditShareRevoked)
}

func TestSharedExamStaysHiddenUntilRelease(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam, questions := submitGradedExam(t, env)

	owner, err := env.repo.User().GetByID(ctx, exam.StudentID)
	require.NoError(t, err)

	// Sharing a submitted-but-unreleased exam mints a link that resolves
	// to nothing until the results go out.
	link, err := env.exams.Share(ctx, exam.ID, owner, env.meta())
	require.NoError(t, err)
	_, err = env.exams.SharedResult(ctx, link.Token)
	assert.ErrorIs(t, err, ErrShareNotFound)

	releaseExam(t, env, exam.ID, questions)
	_, err = env.exams.SharedResult(ctx, link.Token)
	require.NoError(t, err)
}

func TestShareRequiresOwnerOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam, questions := submitGradedExam(t, env)
	releaseExam(t, env, exam.ID, questions)

	stranger := env.seedStudent(t, "bob@school.test", "pw123456")
	strangerUser, err := env.repo.User().GetByID(ctx, stranger.ID)
	require.NoError(t, err)

	_, err = env.exams.Share(ctx, exam.ID, strangerUser, env.meta())
	assert.ErrorIs(t, err, ErrForbidden)
	err = env.exams.RevokeShare(ctx, exam.ID, strangerUser, env.meta())
	assert.ErrorIs(t, err, ErrForbidden)

	// An admin can share any student's released result.
	admin, err := env.repo.User().GetByEmail(ctx, "admin@school.test")
	require.NoError(t, err)
	link, err := env.exams.Share(ctx, exam.ID, admin, env.meta())
	require.NoError(t, err)
	_, err = env.exams.SharedResult(ctx, link.Token)
	require.NoError(t, err)
}

func TestSharedResultRejectsEmptyAndUnknownTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.exams.SharedResult(ctx, "")
	assert.ErrorIs(t, err, ErrShareNotFound)
	_, err = env.exams.SharedResult(ctx, "no-such-token")
	assert.ErrorIs(t, err, ErrShareNotFound)
}

func TestQuestionSetShareStripsCanonicalAnswers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedAdmin(t, "admin@school.test", "admin-pw-1")
	set, _ := env.seedQuestionSet(t)

	link, err := env.sets.Share(ctx, set.ID, admin.ID, env.meta())
	require.NoError(t, err)
	require.NotEmpty(t, link.Token)

	shared, questions, err := env.sets.SharedSet(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, set.ID, shared.ID)
	require.NotEmpty(t, questions)
	for _, question := range questions {
		assert.Empty(t, question.CorrectAnswer)
	}

	// Stored questions keep their answers; only the shared view is blank.
	stored, err := env.repo.QuestionSet().GetQuestions(ctx, set.ID)
	require.NoError(t, err)
	assert.Equal(t, "4", stored[0].CorrectAnswer)

	require.NoError(t, env.sets.RevokeShare(ctx, set.ID, admin.ID, env.meta()))
	_, _, err = env.sets.SharedSet(ctx, link.Token)
	assert.ErrorIs(t, err, ErrShareNotFound)
}
