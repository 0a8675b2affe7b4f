package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventExamAssigned      EventType = "exam.assigned"
	EventExamSubmitted     EventType = "exam.submitted"
	EventResultsReleased   EventType = "results.released"
	EventPasswordResetLink EventType = "auth.password_reset_link"
	EventAccountLocked     EventType = "auth.account_locked"
)

// NotificationEvent is the envelope for every message on the notification
// topic. Data carries the type-specific payload.
type NotificationEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

const eventSource = "practice-exam-service"

type ExamAssignedEvent struct {
	ExamID       uint       `json:"exam_id"`
	StudentID    uint       `json:"student_id"`
	StudentEmail string     `json:"student_email"`
	ExamTitle    string     `json:"exam_title"`
	ExamDate     *time.Time `json:"exam_date,omitempty"`
	MagicLinkURL string     `json:"magic_link_url"`
	LinkExpires  time.Time  `json:"link_expires"`
}

type ExamSubmittedEvent struct {
	ExamID      uint      `json:"exam_id"`
	StudentID   uint      `json:"student_id"`
	ExamTitle   string    `json:"exam_title"`
	SubmittedAt time.Time `json:"submitted_at"`
	IsDelayed   bool      `json:"is_delayed"`
}

type ResultsReleasedEvent struct {
	ExamID       uint      `json:"exam_id"`
	StudentID    uint      `json:"student_id"`
	StudentEmail string    `json:"student_email"`
	ExamTitle    string    `json:"exam_title"`
	TotalScore   int       `json:"total_score"`
	MaxScore     int       `json:"max_score"`
	Percentage   float64   `json:"percentage"`
	ReleasedAt   time.Time `json:"released_at"`
}

type PasswordResetLinkEvent struct {
	UserID       uint      `json:"user_id"`
	Email        string    `json:"email"`
	ResetLinkURL string    `json:"reset_link_url"`
	LinkExpires  time.Time `json:"link_expires"`
}

type AccountLockedEvent struct {
	UserID      uint      `json:"user_id"`
	Email       string    `json:"email"`
	LockedUntil time.Time `json:"locked_until"`
}

func newEnvelope(eventType EventType, data interface{}) *NotificationEvent {
	return &NotificationEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data:      data,
	}
}

func NewExamAssignedEvent(data ExamAssignedEvent) *NotificationEvent {
	return newEnvelope(EventExamAssigned, data)
}

func NewExamSubmittedEvent(data ExamSubmittedEvent) *NotificationEvent {
	return newEnvelope(EventExamSubmitted, data)
}

func NewResultsReleasedEvent(data ResultsReleasedEvent) *NotificationEvent {
	return newEnvelope(EventResultsReleased, data)
}

func NewPasswordResetLinkEvent(data PasswordResetLinkEvent) *NotificationEvent {
	return newEnvelope(EventPasswordResetLink, data)
}

func NewAccountLockedEvent(data AccountLockedEvent) *NotificationEvent {
	return newEnvelope(EventAccountLocked, data)
}
