package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/springgate/practice-exam-service/internal/services"
	"github.com/springgate/practice-exam-service/internal/utils"
)

// PublicHandler serves the unauthenticated share endpoints. Everything here
// is resolved by token alone; a missing or revoked token is a plain 404.
type PublicHandler struct {
	BaseHandler
	exams services.ExamService
	sets  services.QuestionSetService
}

func NewPublicHandler(exams services.ExamService, sets services.QuestionSetService, logger utils.Logger) *PublicHandler {
	return &PublicHandler{
		BaseHandler: NewBaseHandler(logger),
		exams:       exams,
		sets:        sets,
	}
}

// SharedExam handles GET /share/exam/:token.
func (h *PublicHandler) SharedExam(c *gin.Context) {
	view, err := h.exams.SharedResult(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "ok", view)
}

// SharedQuestionSet handles GET /share/question/:token. Canonical answers
// are stripped before the response leaves the service layer.
func (h *PublicHandler) SharedQuestionSet(c *gin.Context) {
	set, questions, err := h.sets.SharedSet(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "ok", gin.H{"question_set": set, "questions": questions})
}
