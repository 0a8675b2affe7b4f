package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/springgate/practice-exam-service/internal/models"
	"github.com/springgate/practice-exam-service/internal/repositories"
	"github.com/springgate/practice-exam-service/internal/services"
	"github.com/springgate/practice-exam-service/internal/utils"
)

// AdminHandler serves the admin surface: student accounts, question sets,
// exam assignment and scheduling, reports, and the audit trail.
type AdminHandler struct {
	BaseHandler
	users   services.UserService
	sets    services.QuestionSetService
	exams   services.ExamService
	reports services.ReportService
	audits  services.AuditService
}

func NewAdminHandler(
	users services.UserService,
	sets services.QuestionSetService,
	exams services.ExamService,
	reports services.ReportService,
	audits services.AuditService,
	logger utils.Logger,
) *AdminHandler {
	return &AdminHandler{
		BaseHandler: NewBaseHandler(logger),
		users:       users,
		sets:        sets,
		exams:       exams,
		reports:     reports,
		audits:      audits,
	}
}

// ===== STUDENT MANAGEMENT =====

func (h *AdminHandler) CreateStudent(c *gin.Context) {
	admin, _ := CurrentUser(c)

	var req services.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	student, err := h.users.CreateStudent(c.Request.Context(), &req, admin.ID, requestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "student created", student)
}

func (h *AdminHandler) ListStudents(c *gin.Context) {
	filters := repositories.UserFilters{
		Search: c.Query("search"),
		Limit:  parseIntQuery(c, "limit", 50),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if active := c.Query("is_active"); active != "" {
		isActive := active == "true"
		filters.IsActive = &isActive
	}

	students, total, err := h.users.ListStudents(c.Request.Context(), filters)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Data: students, Total: total})
}

func (h *AdminHandler) GetStudent(c *gin.Context) {
	studentID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	student, err := h.users.GetStudent(c.Request.Context(), studentID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	stats, err := h.users.StudentStats(c.Request.Context(), studentID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "ok", gin.H{"student": student, "stats": stats})
}

func (h *AdminHandler) UpdateStudent(c *gin.Context) {
	admin, _ := CurrentUser(c)
	studentID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	student, err := h.users.UpdateStudent(c.Request.Context(), studentID, &req, admin.ID, requestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "student updated", student)
}

type setPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *AdminHandler) SetStudentPassword(c *gin.Context) {
	admin, _ := CurrentUser(c)
	studentID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req setPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.users.SetPassword(c.Request.Context(), studentID, req.Password, admin.ID, requestMeta(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "password updated", nil)
}

func (h *AdminHandler) DeactivateStudent(c *gin.Context) {
	admin, _ := CurrentUser(c)
	studentID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := h.users.Deactivate(c.Request.Context(), studentID, admin.ID, requestMeta(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "student deactivated", nil)
}

// ===== QUESTION SETS =====

func (h *AdminHandler) CreateQuestionSet(c *gin.Context) {
	admin, _ := CurrentUser(c)

	var req services.CreateQuestionSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	set, err := h.sets.Create(c.Request.Context(), &req, admin.ID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "question set created", set)
}

func (h *AdminHandler) ListQuestionSets(c *gin.Context) {
	filters := repositories.QuestionSetFilters{
		Subject: c.Query("subject"),
		Limit:   parseIntQuery(c, "limit", 50),
		Offset:  parseIntQuery(c, "offset", 0),
	}

	sets, total, err := h.sets.List(c.Request.Context(), filters)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Data: sets, Total: total})
}

func (h *AdminHandler) GetQuestionSet(c *gin.Context) {
	setID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	set, questions, err := h.sets.Get(c.Request.Context(), setID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "ok", gin.H{"question_set": set, "questions": questions})
}

func (h *AdminHandler) AddQuestion(c *gin.Context) {
	admin, _ := CurrentUser(c)
	setID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req services.AddQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	question, err := h.sets.AddQuestion(c.Request.Context(), setID, &req, admin.ID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "question added", question)
}

// ShareQuestionSet handles POST /admin/question-sets/:id/share. Sharing again
// rotates the token, so old links stop working.
func (h *AdminHandler) ShareQuestionSet(c *gin.Context) {
	admin, _ := CurrentUser(c)
	setID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	link, err := h.sets.Share(c.Request.Context(), setID, admin.ID, requestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "share link created", link)
}

// UnshareQuestionSet handles DELETE /admin/question-sets/:id/share.
func (h *AdminHandler) UnshareQuestionSet(c *gin.Context) {
	admin, _ := CurrentUser(c)
	setID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := h.sets.RevokeShare(c.Request.Context(), setID, admin.ID, requestMeta(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "share link revoked", nil)
}

// ===== EXAM ADMINISTRATION =====

func (h *AdminHandler) AssignExam(c *gin.Context) {
	admin, _ := CurrentUser(c)

	var req services.AssignExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	exam, err := h.exams.Assign(c.Request.Context(), &req, admin.ID, requestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "exam assigned", exam)
}

func (h *AdminHandler) ListExams(c *gin.Context) {
	filters := repositories.ExamFilters{
		Subject:   c.Query("subject"),
		Limit:     parseIntQuery(c, "limit", 50),
		Offset:    parseIntQuery(c, "offset", 0),
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	if status := c.Query("status"); status != "" {
		filters.Statuses = []models.ExamStatus{models.ExamStatus(status)}
	}
	if studentID := parseIntQuery(c, "student_id", 0); studentID > 0 {
		id := uint(studentID)
		filters.StudentID = &id
	}

	exams, total, err := h.exams.List(c.Request.Context(), filters)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Data: exams, Total: total})
}

func (h *AdminHandler) UpdateExamSchedule(c *gin.Context) {
	admin, _ := CurrentUser(c)
	examID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	exam, err := h.exams.UpdateSchedule(c.Request.Context(), examID, &req, admin.ID, requestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "schedule updated", exam)
}

func (h *AdminHandler) ResetExam(c *gin.Context) {
	admin, _ := CurrentUser(c)
	examID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	exam, err := h.exams.Reset(c.Request.Context(), examID, admin.ID, requestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "exam reset", exam)
}

// ShareExam handles POST /admin/exams/:id/share.
func (h *AdminHandler) ShareExam(c *gin.Context) {
	admin, _ := CurrentUser(c)
	examID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	link, err := h.exams.Share(c.Request.Context(), examID, admin, requestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "share link created", link)
}

// UnshareExam handles DELETE /admin/exams/:id/share.
func (h *AdminHandler) UnshareExam(c *gin.Context) {
	admin, _ := CurrentUser(c)
	examID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := h.exams.RevokeShare(c.Request.Context(), examID, admin, requestMeta(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "share link revoked", nil)
}

// ===== REPORTS AND AUDIT =====

func (h *AdminHandler) Dashboard(c *gin.Context) {
	summary, err := h.reports.Dashboard(c.Request.Context())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "ok", summary)
}

func (h *AdminHandler) ExportResults(c *gin.Context) {
	filters := repositories.ExamFilters{Subject: c.Query("subject")}

	data, err := h.reports.ExportResults(c.Request.Context(), filters)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("results-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *AdminHandler) ListAuditLog(c *gin.Context) {
	filters := repositories.AuditFilters{
		Action: c.Query("action"),
		Limit:  parseIntQuery(c, "limit", 100),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if userID := parseIntQuery(c, "user_id", 0); userID > 0 {
		id := uint(userID)
		filters.UserID = &id
	}

	entries, total, err := h.audits.List(c.Request.Context(), filters)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Data: entries, Total: total})
}
