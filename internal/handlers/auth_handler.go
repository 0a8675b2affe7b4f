package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/springgate/practice-exam-service/internal/services"
	"github.com/springgate/practice-exam-service/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	auth  services.AuthService
	links services.MagicLinkService

	cookieMaxAge int
	secureCookie bool
}

func NewAuthHandler(auth services.AuthService, links services.MagicLinkService, logger utils.Logger, cookieMaxAge int, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		BaseHandler:  NewBaseHandler(logger),
		auth:         auth,
		links:        links,
		cookieMaxAge: cookieMaxAge,
		secureCookie: secureCookie,
	}
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(sessionCookie, token, h.cookieMaxAge, "/", "", h.secureCookie, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", h.secureCookie, true)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	req.Meta = requestMeta(c)

	result, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.setSessionCookie(c, result.SessionToken)
	h.RespondWithSuccess(c, http.StatusOK, "login successful", result)
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), sessionToken(c), requestMeta(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.clearSessionCookie(c)
	h.RespondWithSuccess(c, http.StatusOK, "logged out", nil)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "authentication required", Code: "unauthorized"})
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "ok", user)
}

// CheckSession handles GET /auth/check-session. It reports validity without
// redirecting, so pages can poll it.
func (h *AuthHandler) CheckSession(c *gin.Context) {
	user, err := h.auth.ValidateSession(c.Request.Context(), sessionToken(c))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "user": user})
}

// MagicLogin handles GET /auth/magic?token=... A valid link opens a session
// and points the client at the linked exam.
func (h *AuthHandler) MagicLogin(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		h.RespondWithError(c, http.StatusBadRequest, "missing token", nil)
		return
	}

	result, err := h.links.ConsumeExamLink(c.Request.Context(), token, requestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.setSessionCookie(c, result.SessionToken)
	h.RespondWithSuccess(c, http.StatusOK, "login successful", result)
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ForgotPassword handles POST /auth/forgot-password. The response never
// reveals whether the email exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email, requestMeta(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "if the account exists, a reset link has been sent", nil)
}

// CheckResetToken handles GET /auth/reset-password?token=... without
// consuming the link.
func (h *AuthHandler) CheckResetToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		h.RespondWithError(c, http.StatusBadRequest, "missing token", nil)
		return
	}

	user, err := h.auth.PeekPasswordReset(c.Request.Context(), token)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "token is valid", gin.H{"email": user.Email})
}

// ===== PROFILE SELF-SERVICE =====

// ListSessions handles GET /profile/sessions.
func (h *AuthHandler) ListSessions(c *gin.Context) {
	user, _ := CurrentUser(c)

	sessions, err := h.auth.ListSessions(c.Request.Context(), user.ID, sessionToken(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Data: sessions, Total: int64(len(sessions))})
}

// RevokeSession handles POST /profile/sessions/:id/revoke.
func (h *AuthHandler) RevokeSession(c *gin.Context) {
	user, _ := CurrentUser(c)
	sessionID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := h.auth.RevokeSession(c.Request.Context(), user.ID, sessionID, sessionToken(c), requestMeta(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "session revoked", nil)
}

// RevokeAllSessions handles POST /profile/sessions/revoke-all. The session
// making the request survives.
func (h *AuthHandler) RevokeAllSessions(c *gin.Context) {
	user, _ := CurrentUser(c)

	revoked, err := h.auth.RevokeOtherSessions(c.Request.Context(), user.ID, sessionToken(c), requestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "sessions revoked", gin.H{"revoked": revoked})
}

// ChangePassword handles POST /profile/password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, _ := CurrentUser(c)

	var req services.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), user.ID, &req, requestMeta(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "password changed", nil)
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req services.CompletePasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := h.auth.CompletePasswordReset(c.Request.Context(), &req, requestMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.setSessionCookie(c, result.SessionToken)
	h.RespondWithSuccess(c, http.StatusOK, "password reset", result)
}
