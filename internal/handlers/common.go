package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/springgate/practice-exam-service/internal/models"
	"github.com/springgate/practice-exam-service/internal/services"
	"github.com/springgate/practice-exam-service/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Data  interface{} `json:"data"`
	Total int64       `json:"total"`
}

// ===== BASE HANDLER =====

// BaseHandler provides shared logging and response helpers.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, message string, err error) {
	if err != nil {
		h.logger.LogError(err, message,
			"status_code", statusCode,
			"method", c.Request.Method,
			"path", c.Request.URL.Path)
	}
	c.JSON(statusCode, ErrorResponse{Message: message})
}

func (h *BaseHandler) RespondWithSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, SuccessResponse{Message: message, Data: data})
}

// HandleServiceError maps service errors onto HTTP responses. Lockouts get
// their retry deadline; validation errors get field detail; everything else
// collapses to a terse message.
func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	var locked *services.AccountLockedError
	if errors.As(err, &locked) {
		c.JSON(http.StatusLocked, ErrorResponse{
			Message: "account is temporarily locked",
			Details: gin.H{"locked_until": locked.Until},
			Code:    "account_locked",
		})
		return
	}

	var validation *services.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: validation.Message,
			Details: gin.H{"field": validation.Field},
			Code:    "validation_failed",
		})
		return
	}

	var transition *services.TransitionError
	if errors.As(err, &transition) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: transition.Error(),
			Code:    "invalid_transition",
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "invalid email or password", Code: "invalid_credentials"})
	case errors.Is(err, services.ErrAccountInactive):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "account is deactivated", Code: "account_inactive"})
	case errors.Is(err, services.ErrSessionInvalid):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "session is invalid or expired", Code: "session_invalid"})
	case errors.Is(err, services.ErrLinkInvalid):
		c.JSON(http.StatusGone, ErrorResponse{Message: "link is invalid, expired, or already used", Code: "link_invalid"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "insufficient permissions", Code: "forbidden"})
	case errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "email is already registered", Code: "email_taken"})
	case errors.Is(err, services.ErrExamNotReleased):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "results are not released", Code: "not_released"})
	case errors.Is(err, services.ErrGradingInvalidScore):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "marks exceed the question's maximum", Code: "invalid_score"})
	case errors.Is(err, services.ErrNothingToGrade):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "exam has no answers to grade", Code: "nothing_to_grade"})
	case errors.Is(err, services.ErrCannotRevokeCurrent):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "the current session cannot be revoked", Code: "current_session"})
	case errors.Is(err, services.ErrCurrentPasswordWrong):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "current password is incorrect", Code: "wrong_password"})
	case errors.Is(err, services.ErrPasswordUnchanged):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "new password must differ from the current one", Code: "password_unchanged"})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "resource not found", Code: "not_found"})
	case errors.Is(err, services.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Message: "service temporarily unavailable", Code: "storage_unavailable"})
	default:
		h.logger.LogError(err, "unhandled service error",
			"method", c.Request.Method,
			"path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal server error", Code: "internal_error"})
	}
}

// ===== CONTEXT HELPERS =====

const (
	contextUserKey = "current_user"
	sessionCookie  = "session_token"
)

// CurrentUser returns the authenticated user placed in the context by the
// auth middleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(contextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

func requestMeta(c *gin.Context) services.RequestMeta {
	return services.RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid " + name, Code: "bad_param"})
		return 0, false
	}
	return uint(value), true
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return value
}
