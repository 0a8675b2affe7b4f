package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/springgate/practice-exam-service/internal/models"
	"github.com/springgate/practice-exam-service/internal/repositories"
	"github.com/springgate/practice-exam-service/internal/services"
	"github.com/springgate/practice-exam-service/internal/utils"
)

// ExamHandler serves the student-facing attempt endpoints.
type ExamHandler struct {
	BaseHandler
	exams services.ExamService
}

func NewExamHandler(exams services.ExamService, logger utils.Logger) *ExamHandler {
	return &ExamHandler{
		BaseHandler: NewBaseHandler(logger),
		exams:       exams,
	}
}

// ListMine handles GET /exams.
func (h *ExamHandler) ListMine(c *gin.Context) {
	user, _ := CurrentUser(c)

	filters := repositories.ExamFilters{
		StudentID: &user.ID,
		Limit:     parseIntQuery(c, "limit", 50),
		Offset:    parseIntQuery(c, "offset", 0),
		SortBy:    "exam_date",
		SortOrder: "desc",
	}
	if status := c.Query("status"); status != "" {
		filters.Statuses = []models.ExamStatus{models.ExamStatus(status)}
	}

	exams, total, err := h.exams.List(c.Request.Context(), filters)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Data: exams, Total: total})
}

// Open handles GET /exams/:id.
func (h *ExamHandler) Open(c *gin.Context) {
	user, _ := CurrentUser(c)
	examID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	view, err := h.exams.Open(c.Request.Context(), examID, user.ID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "ok", view)
}

// Start handles POST /exams/:id/start.
func (h *ExamHandler) Start(c *gin.Context) {
	user, _ := CurrentUser(c)
	examID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	exam, err := h.exams.Start(c.Request.Context(), examID, user.ID, requestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "exam started", exam)
}

// SaveAnswer handles PUT /exams/:id/answers.
func (h *ExamHandler) SaveAnswer(c *gin.Context) {
	user, _ := CurrentUser(c)
	examID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req services.SaveAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.exams.SaveAnswer(c.Request.Context(), examID, user.ID, &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "answer saved", nil)
}

// Submit handles POST /exams/:id/submit.
func (h *ExamHandler) Submit(c *gin.Context) {
	user, _ := CurrentUser(c)
	examID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	exam, err := h.exams.Submit(c.Request.Context(), examID, user.ID, requestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "exam submitted", exam)
}

// Share handles POST /exams/:id/share. A student can share their own
// released result.
func (h *ExamHandler) Share(c *gin.Context) {
	user, _ := CurrentUser(c)
	examID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	link, err := h.exams.Share(c.Request.Context(), examID, user, requestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "share link created", link)
}

// Unshare handles DELETE /exams/:id/share.
func (h *ExamHandler) Unshare(c *gin.Context) {
	user, _ := CurrentUser(c)
	examID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := h.exams.RevokeShare(c.Request.Context(), examID, user, requestMeta(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "share link revoked", nil)
}

// Results handles GET /exams/:id/results.
func (h *ExamHandler) Results(c *gin.Context) {
	user, _ := CurrentUser(c)
	examID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	view, err := h.exams.Results(c.Request.Context(), examID, user.ID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "ok", view)
}
