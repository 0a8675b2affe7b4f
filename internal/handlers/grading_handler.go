package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/springgate/practice-exam-service/internal/services"
	"github.com/springgate/practice-exam-service/internal/utils"
)

type GradingHandler struct {
	BaseHandler
	grading services.GradingService
}

func NewGradingHandler(grading services.GradingService, logger utils.Logger) *GradingHandler {
	return &GradingHandler{
		BaseHandler: NewBaseHandler(logger),
		grading:     grading,
	}
}

// GradingView handles GET /admin/exams/:id/grading.
func (h *GradingHandler) GradingView(c *gin.Context) {
	examID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	view, err := h.grading.GetGradingView(c.Request.Context(), examID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "ok", view)
}

// SaveGrades handles PUT /admin/exams/:id/grades.
func (h *GradingHandler) SaveGrades(c *gin.Context) {
	admin, _ := CurrentUser(c)
	examID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req services.SaveGradesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	exam, err := h.grading.SaveGrades(c.Request.Context(), examID, &req, admin.ID, requestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "grades saved", exam)
}

// Release handles POST /admin/exams/:id/release.
func (h *GradingHandler) Release(c *gin.Context) {
	admin, _ := CurrentUser(c)
	examID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	exam, err := h.grading.Release(c.Request.Context(), examID, admin.ID, requestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "results released", exam)
}
