package services

import (
	"errors"
	"fmt"
	"time"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed   = errors.New("validation failed")
	ErrInternalError      = errors.New("internal server error")
	ErrConflict           = errors.New("resource conflict")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Authentication errors. ErrInvalidCredentials deliberately does not say
	// whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrSessionInvalid     = errors.New("session is invalid or expired")
	ErrLinkInvalid        = errors.New("link is invalid, expired, or already used")
	ErrPasswordTooShort   = errors.New("password does not meet the minimum length")
	ErrEmailTaken         = errors.New("email is already registered")

	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidRole  = errors.New("invalid user role")

	// Session management errors
	ErrSessionNotFound      = errors.New("session not found")
	ErrCannotRevokeCurrent  = errors.New("the current session cannot be revoked")
	ErrPasswordUnchanged    = errors.New("new password must differ from the current one")
	ErrCurrentPasswordWrong = errors.New("current password is incorrect")

	// Public share errors
	ErrShareNotFound = errors.New("shared resource not found")

	// Exam errors
	ErrExamNotFound        = errors.New("exam not found")
	ErrQuestionSetNotFound = errors.New("question set not found")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrExamNotReleased     = errors.New("exam results are not released")
	ErrInvalidTransition   = errors.New("invalid exam status transition")

	// Grading errors
	ErrGradingInvalidScore = errors.New("marks awarded exceed the question's marks")
	ErrNothingToGrade      = errors.New("exam has no answers to grade")
)

// ===== CUSTOM ERROR TYPES =====

// AccountLockedError carries the lockout deadline so callers can tell the
// user when to retry. It is deliberately distinct from ErrInvalidCredentials;
// a locked account rejects even the correct password.
type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account is locked until %s", e.Until.Format(time.RFC3339))
}

func NewAccountLockedError(until time.Time) *AccountLockedError {
	return &AccountLockedError{Until: until}
}

// TransitionError reports a rejected exam status change. It matches
// errors.Is(err, ErrInvalidTransition).
type TransitionError struct {
	ExamID uint
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("exam %d cannot move from %s to %s", e.ExamID, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

func NewTransitionError(examID uint, from, to string) *TransitionError {
	return &TransitionError{ExamID: examID, From: from, To: to}
}

// ValidationError is a single field-level validation failure.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", ve.Field, ve.Message)
}

func (ve *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// PermissionError identifies who was denied what, for audit trails.
type PermissionError struct {
	UserID   uint   `json:"user_id"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Reason   string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %d cannot %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.Reason)
}

func (pe *PermissionError) Is(target error) bool {
	return target == ErrForbidden
}

func NewPermissionError(userID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{UserID: userID, Resource: resource, Action: action, Reason: reason}
}

// ===== CLASSIFICATION HELPERS =====

func IsAccountLocked(err error) bool {
	var locked *AccountLockedError
	return errors.As(err, &locked)
}

func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrAccountInactive) ||
		errors.Is(err, ErrSessionInvalid) ||
		IsAccountLocked(err)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrExamNotFound) ||
		errors.Is(err, ErrQuestionSetNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrShareNotFound)
}
