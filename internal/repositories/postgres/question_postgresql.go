package postgres

import (
	"context"

	"github.com/springgate/practice-exam-service/internal/models"
	"github.com/springgate/practice-exam-service/internal/repositories"
	"gorm.io/gorm"
)

type QuestionSetPostgreSQL struct {
	db *gorm.DB
}

func (q *QuestionSetPostgreSQL) Create(ctx context.Context, set *models.QuestionSet) error {
	return q.db.WithContext(ctx).Create(set).Error
}

func (q *QuestionSetPostgreSQL) GetByID(ctx context.Context, id uint) (*models.QuestionSet, error) {
	var set models.QuestionSet
	if err := q.db.WithContext(ctx).First(&set, id).Error; err != nil {
		return nil, err
	}
	return &set, nil
}

func (q *QuestionSetPostgreSQL) List(ctx context.Context, filters repositories.QuestionSetFilters) ([]*models.QuestionSet, int64, error) {
	var sets []*models.QuestionSet
	var total int64

	query := q.db.WithContext(ctx).Model(&models.QuestionSet{})
	if filters.Subject != "" {
		query = query.Where("subject = ?", filters.Subject)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Order("created_at DESC").Find(&sets).Error; err != nil {
		return nil, 0, err
	}
	return sets, total, nil
}

func (q *QuestionSetPostgreSQL) GetByShareToken(ctx context.Context, token string) (*models.QuestionSet, error) {
	var set models.QuestionSet
	if err := q.db.WithContext(ctx).
		Where("share_token = ?", token).
		First(&set).Error; err != nil {
		return nil, err
	}
	return &set, nil
}

func (q *QuestionSetPostgreSQL) SetShareToken(ctx context.Context, id uint, token *string) error {
	return q.db.WithContext(ctx).Model(&models.QuestionSet{}).
		Where("id = ?", id).
		Update("share_token", token).Error
}

func (q *QuestionSetPostgreSQL) CreateQuestion(ctx context.Context, question *models.Question) error {
	return q.db.WithContext(ctx).Create(question).Error
}

func (q *QuestionSetPostgreSQL) GetQuestion(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := q.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuestionSetPostgreSQL) GetQuestions(ctx context.Context, setID uint) ([]*models.Question, error) {
	var questions []*models.Question
	if err := q.db.WithContext(ctx).
		Where("question_set_id = ? AND is_active = ?", setID, true).
		Order("question_number ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (q *QuestionSetPostgreSQL) SumMarks(ctx context.Context, setID uint) (int, error) {
	var sum int
	if err := q.db.WithContext(ctx).Model(&models.Question{}).
		Where("question_set_id = ? AND is_active = ?", setID, true).
		Select("COALESCE(SUM(marks), 0)").
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}
