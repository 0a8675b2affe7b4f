package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditLoginSuccess           AuditAction = "login_success"
	AuditLoginFailed            AuditAction = "login_failed"
	AuditLoginLocked            AuditAction = "login_locked"
	AuditLogout                 AuditAction = "logout"
	AuditMagicLogin             AuditAction = "magic_login"
	AuditPasswordResetRequested AuditAction = "password_reset_requested"
	AuditPasswordResetCompleted AuditAction = "password_reset_completed"
	AuditPasswordChanged        AuditAction = "password_changed"
	AuditStudentCreated         AuditAction = "student_created"
	AuditStudentUpdated         AuditAction = "student_updated"
	AuditStudentDeactivated     AuditAction = "student_deactivated"
	AuditExamAssigned           AuditAction = "exam_assigned"
	AuditExamStarted            AuditAction = "exam_started"
	AuditExamSubmitted          AuditAction = "exam_submitted"
	AuditGradesSaved            AuditAction = "grades_saved"
	AuditResultsReleased        AuditAction = "results_released"
	AuditExamReset              AuditAction = "exam_reset"
	AuditScheduleUpdated        AuditAction = "schedule_updated"
	AuditSessionRevoked         AuditAction = "session_revoked"
	AuditShareCreated           AuditAction = "share_created"
	AuditShareRevoked           AuditAction = "share_revoked"
)

// AuditLog is append-only: rows are never updated or deleted by the
// application. UserID is nullable so anonymous failures can be recorded.
type AuditLog struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	UserID       *uint          `json:"user_id" gorm:"index"`
	Action       AuditAction    `json:"action" gorm:"not null;size:50;index"`
	ResourceType *string        `json:"resource_type" gorm:"size:50;index"`
	ResourceID   *string        `json:"resource_id" gorm:"size:50"`
	Details      datatypes.JSON `json:"details" gorm:"type:jsonb"`
	IPAddress    string         `json:"ip_address" gorm:"size:45"`
	UserAgent    string         `json:"user_agent" gorm:"type:text"`
	CreatedAt    time.Time      `json:"created_at" gorm:"index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
