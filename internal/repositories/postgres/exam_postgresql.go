package postgres

import (
	"context"
	"time"

	"github.com/springgate/practice-exam-service/internal/models"
	"github.com/springgate/practice-exam-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExamPostgreSQL struct {
	db *gorm.DB
}

func (e *ExamPostgreSQL) Create(ctx context.Context, exam *models.PracticeExam) error {
	return e.db.WithContext(ctx).Create(exam).Error
}

func (e *ExamPostgreSQL) GetByID(ctx context.Context, id uint) (*models.PracticeExam, error) {
	var exam models.PracticeExam
	if err := e.db.WithContext(ctx).
		Preload("Student").
		Preload("QuestionSet").
		First(&exam, id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (e *ExamPostgreSQL) GetForStudent(ctx context.Context, id, studentID uint) (*models.PracticeExam, error) {
	var exam models.PracticeExam
	if err := e.db.WithContext(ctx).
		Preload("QuestionSet").
		Where("id = ? AND student_id = ?", id, studentID).
		First(&exam).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (e *ExamPostgreSQL) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.PracticeExam, int64, error) {
	var exams []*models.PracticeExam
	var total int64

	query := e.db.WithContext(ctx).Model(&models.PracticeExam{})
	if filters.StudentID != nil {
		query = query.Where("practice_exams.student_id = ?", *filters.StudentID)
	}
	if len(filters.Statuses) > 0 {
		query = query.Where("practice_exams.status IN ?", filters.Statuses)
	}
	if filters.Subject != "" {
		query = query.Joins("JOIN question_sets ON question_sets.id = practice_exams.question_set_id").
			Where("question_sets.subject = ?", filters.Subject)
	}
	if filters.DateFrom != nil {
		query = query.Where("practice_exams.exam_date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("practice_exams.exam_date <= ?", *filters.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "practice_exams.created_at DESC"
	switch filters.SortBy {
	case "exam_date":
		order = "practice_exams.exam_date"
	case "released_at":
		order = "practice_exams.released_at"
	case "created_at":
		order = "practice_exams.created_at"
	}
	if filters.SortBy != "" {
		if filters.SortOrder == "asc" {
			order += " ASC"
		} else {
			order += " DESC"
		}
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Preload("Student").Preload("QuestionSet").
		Order(order).Find(&exams).Error; err != nil {
		return nil, 0, err
	}
	return exams, total, nil
}

func (e *ExamPostgreSQL) Update(ctx context.Context, exam *models.PracticeExam) error {
	return e.db.WithContext(ctx).Save(exam).Error
}

// Transition is the only write path for status changes. The from-status guard
// lives in the WHERE clause so concurrent transitions on the same attempt
// serialize at the database; the loser sees zero rows affected.
func (e *ExamPostgreSQL) Transition(ctx context.Context, id uint, from []models.ExamStatus, updates map[string]any) (bool, error) {
	res := e.db.WithContext(ctx).Model(&models.PracticeExam{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (e *ExamPostgreSQL) StudentStats(ctx context.Context, studentID uint) (*repositories.StudentStats, error) {
	var stats repositories.StudentStats
	if err := e.db.WithContext(ctx).Model(&models.PracticeExam{}).
		Where("student_id = ? AND status = ?", studentID, models.ExamReleased).
		Select("COUNT(*) AS total_exams, COALESCE(AVG(percentage), 0) AS avg_score, COALESCE(MAX(percentage), 0) AS best_score").
		Scan(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func (e *ExamPostgreSQL) GetByShareToken(ctx context.Context, token string) (*models.PracticeExam, error) {
	var exam models.PracticeExam
	if err := e.db.WithContext(ctx).
		Preload("Student").
		Preload("QuestionSet").
		Where("share_token = ? AND is_public = ?", token, true).
		First(&exam).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (e *ExamPostgreSQL) SetShare(ctx context.Context, id uint, token *string, public bool) error {
	return e.db.WithContext(ctx).Model(&models.PracticeExam{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"share_token": token,
			"is_public":   public,
		}).Error
}

func (e *ExamPostgreSQL) IncrementShareViews(ctx context.Context, id uint) error {
	return e.db.WithContext(ctx).Model(&models.PracticeExam{}).
		Where("id = ?", id).
		Update("share_views", gorm.Expr("share_views + 1")).Error
}

type AnswerPostgreSQL struct {
	db *gorm.DB
}

// Upsert writes the answer keyed on (practice_exam_id, question_id) so
// autosave can fire repeatedly without duplicating rows. Grading columns are
// deliberately excluded from the update list.
func (a *AnswerPostgreSQL) Upsert(ctx context.Context, answer *models.StudentAnswer) error {
	return a.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "practice_exam_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"student_answer", "drawing_data", "answered_at", "updated_at",
		}),
	}).Create(answer).Error
}

func (a *AnswerPostgreSQL) GetByExam(ctx context.Context, examID uint) ([]*models.StudentAnswer, error) {
	var answers []*models.StudentAnswer
	if err := a.db.WithContext(ctx).
		Preload("Question").
		Where("practice_exam_id = ?", examID).
		Order("question_id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (a *AnswerPostgreSQL) GetByExamAndQuestion(ctx context.Context, examID, questionID uint) (*models.StudentAnswer, error) {
	var answer models.StudentAnswer
	if err := a.db.WithContext(ctx).
		Where("practice_exam_id = ? AND question_id = ?", examID, questionID).
		First(&answer).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (a *AnswerPostgreSQL) UpdateGrade(ctx context.Context, examID, questionID uint, marksAwarded int, feedback string, gradedAt time.Time) error {
	updates := map[string]any{
		"marks_awarded": marksAwarded,
		"graded_at":     gradedAt,
	}
	if feedback != "" {
		updates["admin_feedback"] = feedback
	}
	return a.db.WithContext(ctx).Model(&models.StudentAnswer{}).
		Where("practice_exam_id = ? AND question_id = ?", examID, questionID).
		Updates(updates).Error
}

func (a *AnswerPostgreSQL) SetAutoGrade(ctx context.Context, examID, questionID uint, correct bool, marksAwarded int, gradedAt time.Time) error {
	return a.db.WithContext(ctx).Model(&models.StudentAnswer{}).
		Where("practice_exam_id = ? AND question_id = ?", examID, questionID).
		Updates(map[string]any{
			"is_correct":    correct,
			"marks_awarded": marksAwarded,
			"auto_graded":   true,
			"graded_at":     gradedAt,
		}).Error
}

func (a *AnswerPostgreSQL) UpdateFeedback(ctx context.Context, examID, questionID uint, feedback string, gradedAt time.Time) error {
	return a.db.WithContext(ctx).Model(&models.StudentAnswer{}).
		Where("practice_exam_id = ? AND question_id = ?", examID, questionID).
		Updates(map[string]any{
			"admin_feedback": feedback,
			"graded_at":      gradedAt,
		}).Error
}

func (a *AnswerPostgreSQL) SumMarksAwarded(ctx context.Context, examID uint) (int, error) {
	var sum int
	if err := a.db.WithContext(ctx).Model(&models.StudentAnswer{}).
		Where("practice_exam_id = ?", examID).
		Select("COALESCE(SUM(marks_awarded), 0)").
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}

func (a *AnswerPostgreSQL) DeleteByExam(ctx context.Context, examID uint) error {
	return a.db.WithContext(ctx).
		Where("practice_exam_id = ?", examID).
		Delete(&models.StudentAnswer{}).Error
}
