package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionMCQ       QuestionType = "mcq"
	QuestionFillBlank QuestionType = "fill_blank"
	QuestionWritten   QuestionType = "written"
	QuestionMatching  QuestionType = "matching"
	QuestionDrawing   QuestionType = "drawing"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

type QuestionSet struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	Title           string          `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Subject         string          `json:"subject" gorm:"not null;size:50;index"`
	Description     *string         `json:"description" gorm:"type:text"`
	DurationMinutes int             `json:"duration_minutes" gorm:"default:60" validate:"min=0,max=300"`
	TotalMarks      int             `json:"total_marks" gorm:"default:0"`
	Difficulty      DifficultyLevel `json:"difficulty" gorm:"size:10"`
	IsActive        bool            `json:"is_active" gorm:"default:true"`
	ShareToken      *string         `json:"share_token" gorm:"size:64;index"`

	CreatedBy uint           `json:"created_by" gorm:"index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:QuestionSetID"`
}

func (QuestionSet) TableName() string {
	return "question_sets"
}

// Question is immutable once an exam attempt references it, apart from
// soft-deactivation via IsActive.
type Question struct {
	ID             uint         `json:"id" gorm:"primaryKey"`
	QuestionSetID  uint         `json:"question_set_id" gorm:"not null;uniqueIndex:idx_set_number"`
	QuestionNumber int          `json:"question_number" gorm:"not null;uniqueIndex:idx_set_number"`
	QuestionType   QuestionType `json:"question_type" gorm:"not null;size:20" validate:"required,question_type"`
	QuestionText   string       `json:"question_text" gorm:"type:text;not null" validate:"required"`
	QuestionHTML   *string      `json:"question_html" gorm:"type:text"`
	ImageURL       *string      `json:"image_url" gorm:"size:500"`
	Marks          int          `json:"marks" gorm:"not null" validate:"required,min=1"`
	Hint           *string      `json:"hint" gorm:"type:text"`

	// CorrectAnswer is the canonical string compared against for auto-graded
	// types (mcq, fill_blank).
	CorrectAnswer   string         `json:"correct_answer" gorm:"type:text"`
	Options         datatypes.JSON `json:"options" gorm:"type:jsonb"`          // []string, mcq only
	MatchingPairs   datatypes.JSON `json:"matching_pairs" gorm:"type:jsonb"`   // []MatchPair
	DrawingTemplate datatypes.JSON `json:"drawing_template" gorm:"type:jsonb"` // UI hint blob

	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}

type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

type ExamStatus string

const (
	ExamPending    ExamStatus = "pending"
	ExamInProgress ExamStatus = "in_progress"
	ExamSubmitted  ExamStatus = "submitted"
	ExamGrading    ExamStatus = "grading"
	ExamReleased   ExamStatus = "released"
)

// PracticeExam is one student's attempt at a question set. Status moves
// pending → in_progress → submitted → grading → released, with an
// admin-triggered destructive reset back to pending from any non-pending
// state. MaxScore is snapshotted at assignment and never recomputed from the
// current question set.
type PracticeExam struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	StudentID     uint       `json:"student_id" gorm:"not null;index"`
	QuestionSetID uint       `json:"question_set_id" gorm:"not null;index"`
	Status        ExamStatus `json:"status" gorm:"default:pending;index" validate:"omitempty,exam_status"`

	ExamDate    *time.Time `json:"exam_date"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Deadline    *time.Time `json:"deadline"`

	StartedAt   *time.Time `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at"`
	IsDelayed   bool       `json:"is_delayed" gorm:"default:false"`

	MaxScore        int      `json:"max_score" gorm:"not null"`
	AutoGradedScore *int     `json:"auto_graded_score"`
	TotalScore      *int     `json:"total_score"`
	Percentage      *float64 `json:"percentage"`

	GradedBy        *uint      `json:"graded_by"`
	GradedAt        *time.Time `json:"graded_at"`
	AnswersReleased bool       `json:"answers_released" gorm:"default:false"`
	ReleasedAt      *time.Time `json:"released_at"`

	IsPublic   bool    `json:"is_public" gorm:"default:false"`
	ShareToken *string `json:"share_token" gorm:"size:64;index"`
	ShareViews int     `json:"share_views" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Student     User        `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	QuestionSet QuestionSet `json:"question_set,omitempty" gorm:"foreignKey:QuestionSetID"`
}

func (PracticeExam) TableName() string {
	return "practice_exams"
}

// StudentAnswer is upserted per (exam, question) while the attempt is in
// progress and finalized at submission. IsCorrect and MarksAwarded stay nil
// until graded; AutoGraded marks which rows were scored at submit time.
type StudentAnswer struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	PracticeExamID uint   `json:"practice_exam_id" gorm:"not null;uniqueIndex:idx_exam_question"`
	QuestionID     uint   `json:"question_id" gorm:"not null;uniqueIndex:idx_exam_question"`
	StudentAnswer  string `json:"student_answer" gorm:"type:text"`

	// DrawingData holds data:image payloads for drawing questions so base64
	// blobs never pollute the text answer column.
	DrawingData *string `json:"drawing_data" gorm:"type:text"`

	IsCorrect     *bool      `json:"is_correct"`
	MarksAwarded  *int       `json:"marks_awarded"`
	AutoGraded    bool       `json:"auto_graded" gorm:"default:false"`
	AdminFeedback *string    `json:"admin_feedback" gorm:"type:text"`
	AnsweredAt    *time.Time `json:"answered_at"`
	GradedAt      *time.Time `json:"graded_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Question Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (StudentAnswer) TableName() string {
	return "student_answers"
}
