package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/springgate/practice-exam-service/internal/cache"
	"github.com/springgate/practice-exam-service/internal/models"
	"github.com/springgate/practice-exam-service/internal/repositories"
	"github.com/springgate/practice-exam-service/internal/utils"
	"github.com/xuri/excelize/v2"
)

const (
	dashboardCacheKey = "report:dashboard"
	dashboardCacheTTL = 2 * time.Minute
)

// ReportService produces the admin dashboard summary and the xlsx export of
// released results.
type ReportService interface {
	Dashboard(ctx context.Context) (*DashboardSummary, error)
	ExportResults(ctx context.Context, filters repositories.ExamFilters) ([]byte, error)
}

type DashboardSummary struct {
	TotalStudents  int64 `json:"total_students"`
	ActiveStudents int64 `json:"active_students"`
	PendingExams   int64 `json:"pending_exams"`
	AwaitingGrades int64 `json:"awaiting_grades"`
	ReleasedExams  int64 `json:"released_exams"`

	GeneratedAt time.Time `json:"generated_at"`
}

type reportService struct {
	repo   repositories.Repository
	cache  cache.CacheService
	logger utils.Logger
}

func NewReportService(repo repositories.Repository, cacheService cache.CacheService, logger utils.Logger) ReportService {
	return &reportService{
		repo:   repo,
		cache:  cacheService,
		logger: logger,
	}
}

// Dashboard serves a short-lived cached summary. Cache failures degrade to
// a direct read; they are never surfaced.
func (s *reportService) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	var cached DashboardSummary
	if err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil {
		return &cached, nil
	}

	summary := &DashboardSummary{GeneratedAt: time.Now()}

	role := models.RoleStudent
	if _, total, err := s.repo.User().List(ctx, repositories.UserFilters{Role: &role, Limit: 1}); err == nil {
		summary.TotalStudents = total
	} else if repositories.IsUnavailableError(err) {
		return nil, ErrStorageUnavailable
	}

	active := true
	if _, total, err := s.repo.User().List(ctx, repositories.UserFilters{Role: &role, IsActive: &active, Limit: 1}); err == nil {
		summary.ActiveStudents = total
	}

	counts := []struct {
		statuses []models.ExamStatus
		dest     *int64
	}{
		{[]models.ExamStatus{models.ExamPending, models.ExamInProgress}, &summary.PendingExams},
		{[]models.ExamStatus{models.ExamSubmitted, models.ExamGrading}, &summary.AwaitingGrades},
		{[]models.ExamStatus{models.ExamReleased}, &summary.ReleasedExams},
	}
	for _, c := range counts {
		if _, total, err := s.repo.Exam().List(ctx, repositories.ExamFilters{Statuses: c.statuses, Limit: 1}); err == nil {
			*c.dest = total
		}
	}

	if err := s.cache.Set(ctx, dashboardCacheKey, summary, dashboardCacheTTL); err != nil {
		s.logger.DebugContext(ctx, "dashboard cache write failed", "error", err)
	}
	return summary, nil
}

// ExportResults renders released exams into an xlsx workbook.
func (s *reportService) ExportResults(ctx context.Context, filters repositories.ExamFilters) ([]byte, error) {
	filters.Statuses = []models.ExamStatus{models.ExamReleased}
	exams, _, err := s.repo.Exam().List(ctx, filters)
	if err != nil {
		if repositories.IsUnavailableError(err) {
			return nil, ErrStorageUnavailable
		}
		return nil, fmt.Errorf("failed to load released exams: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Student", "Email", "Exam", "Subject", "Submitted At", "Delayed", "Score", "Max Score", "Percentage", "Released At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for row, exam := range exams {
		values := []interface{}{
			exam.Student.FullName,
			exam.Student.Email,
			exam.QuestionSet.Title,
			exam.QuestionSet.Subject,
			formatTime(exam.SubmittedAt),
			exam.IsDelayed,
			derefInt(exam.TotalScore),
			exam.MaxScore,
			derefFloat(exam.Percentage),
			formatTime(exam.ReleasedAt),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
