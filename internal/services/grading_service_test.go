package services

import (
	"context"
	"testing"

	"github.com/springgate/practice-exam-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoGradeAnswer(t *testing.T) {
	mcq := &models.Question{QuestionType: models.QuestionMCQ, CorrectAnswer: "4", Marks: 3}
	blank := &models.Question{QuestionType: models.QuestionFillBlank, CorrectAnswer: "Paris", Marks: 2}
	written := &models.Question{QuestionType: models.QuestionWritten, Marks: 5}

	cases := []struct {
		name      string
		question  *models.Question
		submitted string
		correct   bool
		marks     int
		graded    bool
	}{
		{"mcq exact", mcq, "4", true, 3, true},
		{"mcq wrong", mcq, "5", false, 0, true},
		{"mcq empty", mcq, "", false, 0, true},
		{"mcq whitespace", mcq, "  4  ", true, 3, true},
		{"fill_blank case insensitive", blank, "PARIS", true, 2, true},
		{"fill_blank padded", blank, "  paris ", true, 2, true},
		{"fill_blank wrong", blank, "London", false, 0, true},
		{"written never auto", written, "long essay", false, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			correct, marks, graded := AutoGradeAnswer(tc.question, tc.submitted)
			assert.Equal(t, tc.correct, correct)
			assert.Equal(t, tc.marks, marks)
			assert.Equal(t, tc.graded, graded)
		})
	}
}

// submitGradedExam walks a fresh exam through assign, answer, submit and
// returns it in submitted state with auto grades applied.
func submitGradedExam(t *testing.T, env *testEnv) (*models.PracticeExam, []*models.Question) {
	t.Helper()
	ctx := context.Background()
	admin := env.seedAdmin(t, "admin@school.test", "admin-pw-1")
	student := env.seedStudent(t, "alice@school.test", "pw123456")
	set, questions := env.seedQuestionSet(t)

	exam, err := env.exams.Assign(ctx, &AssignExamRequest{
		StudentID:     student.ID,
		QuestionSetID: set.ID,
	}, admin.ID, env.meta())
	require.NoError(t, err)

	_, err = env.exams.Start(ctx, exam.ID, student.ID, env.meta())
	require.NoError(t, err)

	// Right mcq, wrong fill_blank, written pending manual review.
	require.NoError(t, env.exams.SaveAnswer(ctx, exam.ID, student.ID, &SaveAnswerRequest{
		QuestionID: questions[0].ID, Answer: "4",
	}))
	require.NoError(t, env.exams.SaveAnswer(ctx, exam.ID, student.ID, &SaveAnswerRequest{
		QuestionID: questions[1].ID, Answer: "London",
	}))
	require.NoError(t, env.exams.SaveAnswer(ctx, exam.ID, student.ID, &SaveAnswerRequest{
		QuestionID: questions[2].ID, Answer: "a long essay",
	}))

	exam, err = env.exams.Submit(ctx, exam.ID, student.ID, env.meta())
	require.NoError(t, err)
	require.Equal(t, models.ExamSubmitted, exam.Status)
	return exam, questions
}

func TestSaveGradesPreservesAutoGradedMarks(t *testing.T) {
	env := newTestEnv(t)
	exam, questions := submitGradedExam(t, env)
	ctx := context.Background()

	// Attempt to override the auto-graded mcq along with the real manual
	// grade for the written question.
	graded, err := env.grading.SaveGrades(ctx, exam.ID, &SaveGradesRequest{
		Grades: []GradeEntry{
			{QuestionID: questions[0].ID, MarksAwarded: 0, Feedback: "checked"},
			{QuestionID: questions[2].ID, MarksAwarded: 4, Feedback: "solid work"},
		},
	}, 1, env.meta())
	require.NoError(t, err)
	assert.Equal(t, models.ExamGrading, graded.Status)

	answers, err := env.repo.Answer().GetByExam(ctx, exam.ID)
	require.NoError(t, err)
	byQuestion := make(map[uint]*models.StudentAnswer)
	for _, answer := range answers {
		byQuestion[answer.QuestionID] = answer
	}

	// The mcq keeps its auto-graded 3 marks; only the feedback landed.
	mcq := byQuestion[questions[0].ID]
	require.NotNil(t, mcq.MarksAwarded)
	assert.Equal(t, 3, *mcq.MarksAwarded)
	assert.True(t, mcq.AutoGraded)
	require.NotNil(t, mcq.AdminFeedback)
	assert.Equal(t, "checked", *mcq.AdminFeedback)

	written := byQuestion[questions[2].ID]
	require.NotNil(t, written.MarksAwarded)
	assert.Equal(t, 4, *written.MarksAwarded)
	assert.False(t, written.AutoGraded)

	// Total is recomputed from the rows: 3 (auto mcq) + 0 (blank) + 4.
	require.NotNil(t, graded.TotalScore)
	assert.Equal(t, 7, *graded.TotalScore)
}

func TestSaveGradesRejectsMarksAboveQuestionMax(t *testing.T) {
	env := newTestEnv(t)
	exam, questions := submitGradedExam(t, env)

	_, err := env.grading.SaveGrades(context.Background(), exam.ID, &SaveGradesRequest{
		Grades: []GradeEntry{{QuestionID: questions[2].ID, MarksAwarded: 6}},
	}, 1, env.meta())
	assert.ErrorIs(t, err, ErrGradingInvalidScore)
}

func TestReleaseComputesTotalAndPercentage(t *testing.T) {
	env := newTestEnv(t)
	exam, questions := submitGradedExam(t, env)
	ctx := context.Background()

	_, err := env.grading.SaveGrades(ctx, exam.ID, &SaveGradesRequest{
		Grades: []GradeEntry{{QuestionID: questions[2].ID, MarksAwarded: 5}},
	}, 1, env.meta())
	require.NoError(t, err)

	released, err := env.grading.Release(ctx, exam.ID, 1, env.meta())
	require.NoError(t, err)

	assert.Equal(t, models.ExamReleased, released.Status)
	assert.True(t, released.AnswersReleased)
	require.NotNil(t, released.ReleasedAt)
	require.NotNil(t, released.TotalScore)
	assert.Equal(t, 8, *released.TotalScore) // 3 + 0 + 5 of max 10
	require.NotNil(t, released.Percentage)
	assert.InDelta(t, 80.0, *released.Percentage, 0.001)
}

func TestReleaseGuardsZeroMaxScore(t *testing.T) {
	env := newTestEnv(t)
	exam, _ := submitGradedExam(t, env)
	ctx := context.Background()

	// Force the pathological snapshot directly in the store.
	env.repo.exams[exam.ID].MaxScore = 0

	released, err := env.grading.Release(ctx, exam.ID, 1, env.meta())
	require.NoError(t, err)
	require.NotNil(t, released.Percentage)
	assert.Zero(t, *released.Percentage)
}

func TestReleaseRejectsWrongStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedAdmin(t, "admin@school.test", "admin-pw-1")
	student := env.seedStudent(t, "alice@school.test", "pw123456")
	set, _ := env.seedQuestionSet(t)

	exam, err := env.exams.Assign(ctx, &AssignExamRequest{
		StudentID: student.ID, QuestionSetID: set.ID,
	}, admin.ID, env.meta())
	require.NoError(t, err)

	_, err = env.grading.Release(ctx, exam.ID, admin.ID, env.meta())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Double release is also refused.
	env2 := newTestEnv(t)
	exam2, _ := submitGradedExam(t, env2)
	_, err = env2.grading.Release(ctx, exam2.ID, 1, env2.meta())
	require.NoError(t, err)
	_, err = env2.grading.Release(ctx, exam2.ID, 1, env2.meta())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGradingViewRejectsOpenAttempts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedAdmin(t, "admin@school.test", "admin-pw-1")
	student := env.seedStudent(t, "alice@school.test", "pw123456")
	set, _ := env.seedQuestionSet(t)

	exam, err := env.exams.Assign(ctx, &AssignExamRequest{
		StudentID: student.ID, QuestionSetID: set.ID,
	}, admin.ID, env.meta())
	require.NoError(t, err)

	_, err = env.grading.GetGradingView(ctx, exam.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
