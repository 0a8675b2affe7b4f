package postgres

import (
	"context"

	"github.com/springgate/practice-exam-service/internal/repositories"
	"gorm.io/gorm"
)

// GormRepository aggregates the per-entity repositories over one *gorm.DB.
// Begin returns a child aggregate bound to a transaction; Commit/Rollback on
// the child close it out.
type GormRepository struct {
	db *gorm.DB
	tx bool
}

func NewRepository(db *gorm.DB) repositories.TransactionRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) User() repositories.UserRepository        { return &UserPostgreSQL{db: r.db} }
func (r *GormRepository) Role() repositories.RoleRepository        { return &RolePostgreSQL{db: r.db} }
func (r *GormRepository) Session() repositories.SessionRepository  { return &SessionPostgreSQL{db: r.db} }
func (r *GormRepository) MagicLink() repositories.MagicLinkRepository {
	return &MagicLinkPostgreSQL{db: r.db}
}
func (r *GormRepository) QuestionSet() repositories.QuestionSetRepository {
	return &QuestionSetPostgreSQL{db: r.db}
}
func (r *GormRepository) Exam() repositories.ExamRepository     { return &ExamPostgreSQL{db: r.db} }
func (r *GormRepository) Answer() repositories.AnswerRepository { return &AnswerPostgreSQL{db: r.db} }
func (r *GormRepository) Audit() repositories.AuditRepository   { return &AuditPostgreSQL{db: r.db} }

func (r *GormRepository) Begin(ctx context.Context) (repositories.Repository, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &GormRepository{db: tx, tx: true}, nil
}

func (r *GormRepository) Commit(ctx context.Context) error {
	if !r.tx {
		return nil
	}
	return r.db.Commit().Error
}

func (r *GormRepository) Rollback(ctx context.Context) error {
	if !r.tx {
		return nil
	}
	return r.db.Rollback().Error
}
