package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/springgate/practice-exam-service/internal/models"
	"github.com/springgate/practice-exam-service/internal/repositories"
	"gorm.io/gorm"
)

type UserPostgreSQL struct {
	db *gorm.DB
}

func (u *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return u.db.WithContext(ctx).Create(user).Error
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).Preload("Role").First(&user, id).Error; err != nil {
		return nil, err
	}
	user.RoleName = user.Role.Name
	return &user, nil
}

func (u *UserPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := u.db.WithContext(ctx).Preload("Role").
		Where("email = ?", email).
		First(&user).Error; err != nil {
		return nil, err
	}
	user.RoleName = user.Role.Name
	return &user, nil
}

func (u *UserPostgreSQL) Update(ctx context.Context, user *models.User) error {
	return u.db.WithContext(ctx).Save(user).Error
}

func (u *UserPostgreSQL) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	query := u.db.WithContext(ctx).Model(&models.User{})
	if filters.Role != nil {
		query = query.Joins("JOIN roles ON roles.id = users.role_id").
			Where("roles.name = ?", *filters.Role)
	}
	if filters.IsActive != nil {
		query = query.Where("users.is_active = ?", *filters.IsActive)
	}
	if filters.Search != "" {
		like := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("LOWER(users.full_name) LIKE ? OR LOWER(users.email) LIKE ?", like, like)
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

	if err := query.Preload("Role").Order("users.full_name ASC").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	for _, user := range users {
		user.RoleName = user.Role.Name
	}
	return users, total, nil
}

func (u *UserPostgreSQL) IncrementFailedLogins(ctx context.Context, id uint) (int, error) {
	if err := u.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("failed_login_attempts", gorm.Expr("failed_login_attempts + 1")).Error; err != nil {
		return 0, err
	}

	var count int
	if err := u.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Select("failed_login_attempts").
		Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (u *UserPostgreSQL) LockUntil(ctx context.Context, id uint, until time.Time) error {
	return u.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("locked_until", until).Error
}

func (u *UserPostgreSQL) ResetFailedLogins(ctx context.Context, id uint) error {
	return u.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"failed_login_attempts": 0,
			"locked_until":          nil,
		}).Error
}

func (u *UserPostgreSQL) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return u.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login", at).Error
}

func (u *UserPostgreSQL) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	return u.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}

func (u *UserPostgreSQL) SetActive(ctx context.Context, id uint, active bool) error {
	return u.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}

type RolePostgreSQL struct {
	db *gorm.DB
}

func (r *RolePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).First(&role, id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *RolePostgreSQL) GetByName(ctx context.Context, name models.UserRole) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}
