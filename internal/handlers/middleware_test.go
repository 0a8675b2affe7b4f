package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/springgate/practice-exam-service/internal/models"
	"github.com/springgate/practice-exam-service/internal/services"
	"github.com/springgate/practice-exam-service/internal/utils"
	"github.com/stretchr/testify/assert"
)

// stubAuthService returns a fixed error from ValidateSession; the other
// methods are never reached by the middleware.
type stubAuthService struct {
	user *models.User
	err  error
}

func (s *stubAuthService) Login(ctx context.Context, req *services.LoginRequest) (*services.LoginResult, error) {
	return nil, s.err
}

func (s *stubAuthService) Logout(ctx context.Context, sessionToken string, meta services.RequestMeta) error {
	return s.err
}

func (s *stubAuthService) ValidateSession(ctx context.Context, sessionToken string) (*models.User, error) {
	return s.user, s.err
}

func (s *stubAuthService) ListSessions(ctx context.Context, userID uint, currentToken string) ([]*services.SessionInfo, error) {
	return nil, s.err
}

func (s *stubAuthService) RevokeSession(ctx context.Context, userID, sessionID uint, currentToken string, meta services.RequestMeta) error {
	return s.err
}

func (s *stubAuthService) RevokeOtherSessions(ctx context.Context, userID uint, currentToken string, meta services.RequestMeta) (int64, error) {
	return 0, s.err
}

func (s *stubAuthService) ChangePassword(ctx context.Context, userID uint, req *services.ChangePasswordRequest, meta services.RequestMeta) error {
	return s.err
}

func (s *stubAuthService) RequestPasswordReset(ctx context.Context, email string, meta services.RequestMeta) error {
	return s.err
}

func (s *stubAuthService) PeekPasswordReset(ctx context.Context, token string) (*models.User, error) {
	return s.user, s.err
}

func (s *stubAuthService) CompletePasswordReset(ctx context.Context, req *services.CompletePasswordResetRequest, meta services.RequestMeta) (*services.LoginResult, error) {
	return nil, s.err
}

func gatedRouter(auth services.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	middleware := NewAuthMiddleware(auth, logger)

	router := gin.New()
	router.GET("/gated", middleware.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestRequireAuthMapsStorageOutageTo503(t *testing.T) {
	router := gatedRouter(&stubAuthService{err: services.ErrStorageUnavailable})

	// A browser navigation during a database outage must not be bounced
	// to the login page as if the session were bad.
	req := httptest.NewRequest(http.MethodGet, "/gated", nil)
	req.Header.Set("Accept", "text/html")
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "some-token"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "storage_unavailable")
}

func TestRequireAuthInvalidSessionSplitsByClient(t *testing.T) {
	router := gatedRouter(&stubAuthService{err: services.ErrSessionInvalid})

	// API clients get a structured 401.
	req := httptest.NewRequest(http.MethodGet, "/gated", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Browser navigation is redirected to the login page.
	req = httptest.NewRequest(http.MethodGet, "/gated", nil)
	req.Header.Set("Accept", "text/html")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
}

func TestRequireAuthPassesUserThrough(t *testing.T) {
	user := &models.User{ID: 7, Email: "alice@school.test", RoleName: models.RoleStudent}
	router := gatedRouter(&stubAuthService{user: user})

	req := httptest.NewRequest(http.MethodGet, "/gated", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "some-token"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
