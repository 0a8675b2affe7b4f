package models

import "time"

// Session is an opaque high-entropy token bound to a user. A session is valid
// iff now < ExpiresAt and the owning user is active; expired rows are garbage
// collected lazily at validation time, no background sweep.
type Session struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	SessionToken string    `json:"-" gorm:"uniqueIndex;not null;size:64"`
	UserID       uint      `json:"user_id" gorm:"not null;index"`
	IPAddress    string    `json:"ip_address" gorm:"size:45"`
	UserAgent    string    `json:"user_agent" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"not null;index"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (Session) TableName() string {
	return "user_sessions"
}

func (s *Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type MagicLinkPurpose string

const (
	PurposeExamAttempt   MagicLinkPurpose = "exam_attempt"
	PurposePasswordReset MagicLinkPurpose = "password_reset"
)

// MagicLink is a single-use, time-boxed token. Valid iff UsedAt is nil and
// now < ExpiresAt; consumption is an atomic check-and-mark (see the
// repository contract), never a read-then-write pair.
type MagicLink struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	Token     string           `json:"-" gorm:"uniqueIndex;not null;size:64"`
	UserID    uint             `json:"user_id" gorm:"not null;index"`
	ExamID    *uint            `json:"exam_id" gorm:"index"`
	Purpose   MagicLinkPurpose `json:"purpose" gorm:"not null;size:30"`
	ExpiresAt time.Time        `json:"expires_at" gorm:"not null"`
	UsedAt    *time.Time       `json:"used_at"`
	CreatedAt time.Time        `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (MagicLink) TableName() string {
	return "magic_links"
}

func (l *MagicLink) Usable(now time.Time) bool {
	return l.UsedAt == nil && now.Before(l.ExpiresAt)
}
