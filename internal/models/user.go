package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin   UserRole = "Admin"
	RoleStudent UserRole = "Student"
)

// Permissions is the typed capability set carried by a role. The roles table
// stores it as JSON; it is parsed and validated once at load time rather than
// per request.
type Permissions struct {
	ManageStudents bool `json:"manage_students"`
	ManageExams    bool `json:"manage_exams"`
	GradeExams     bool `json:"grade_exams"`
	ViewReports    bool `json:"view_reports"`
	TakeExams      bool `json:"take_exams"`
}

type Role struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        UserRole       `json:"name" gorm:"uniqueIndex;not null;size:50"`
	Permissions datatypes.JSON `json:"permissions" gorm:"type:jsonb"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ParsePermissions decodes the JSON permission blob into the typed set.
// A missing or empty blob yields the zero (deny-all) set.
func (r *Role) ParsePermissions() (Permissions, error) {
	var p Permissions
	if len(r.Permissions) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(r.Permissions, &p); err != nil {
		return p, fmt.Errorf("role %q has malformed permissions: %w", r.Name, err)
	}
	return p, nil
}

type User struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null;size:255" validate:"required,email"`
	PasswordHash string   `json:"-" gorm:"not null;size:255"`
	FullName     string   `json:"full_name" gorm:"not null;size:100" validate:"required,min=1,max=100"`
	RoleID       uint     `json:"role_id" gorm:"not null;index"`
	Role         Role     `json:"role" gorm:"foreignKey:RoleID"`
	RoleName     UserRole `json:"role_name" gorm:"-"`

	IsActive            bool       `json:"is_active" gorm:"default:true"`
	FailedLoginAttempts int        `json:"-" gorm:"default:0"`
	LockedUntil         *time.Time `json:"-"`
	LastLogin           *time.Time `json:"last_login"`

	CreatedBy *uint          `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// IsLockedAt reports whether the account lockout is still in force at the
// given instant. Expired lockouts are cleared lazily by the login path.
func (u *User) IsLockedAt(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}
