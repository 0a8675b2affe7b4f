package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/springgate/practice-exam-service/internal/models"
	"github.com/springgate/practice-exam-service/internal/services"
	"github.com/springgate/practice-exam-service/internal/utils"
)

type HandlerManager struct {
	authHandler    *AuthHandler
	examHandler    *ExamHandler
	adminHandler   *AdminHandler
	gradingHandler *GradingHandler
	publicHandler  *PublicHandler
	authMiddleware *AuthMiddleware
}

type Services struct {
	Auth        services.AuthService
	MagicLinks  services.MagicLinkService
	Users       services.UserService
	QuestionSet services.QuestionSetService
	Exams       services.ExamService
	Grading     services.GradingService
	Reports     services.ReportService
	Audit       services.AuditService
}

func NewHandlerManager(svc Services, logger utils.Logger, cookieMaxAge int, secureCookie bool) *HandlerManager {
	return &HandlerManager{
		authHandler:    NewAuthHandler(svc.Auth, svc.MagicLinks, logger, cookieMaxAge, secureCookie),
		examHandler:    NewExamHandler(svc.Exams, logger),
		adminHandler:   NewAdminHandler(svc.Users, svc.QuestionSet, svc.Exams, svc.Reports, svc.Audit, logger),
		gradingHandler: NewGradingHandler(svc.Grading, logger),
		publicHandler:  NewPublicHandler(svc.Exams, svc.QuestionSet, logger),
		authMiddleware: NewAuthMiddleware(svc.Auth, logger),
	}
}

// SetupRoutes wires all API routes.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := router.Group("/auth")
	{
		auth.POST("/login", hm.authHandler.Login)
		auth.GET("/magic", hm.authHandler.MagicLogin)
		auth.POST("/forgot-password", hm.authHandler.ForgotPassword)
		auth.GET("/reset-password", hm.authHandler.CheckResetToken)
		auth.POST("/reset-password", hm.authHandler.ResetPassword)

		auth.GET("/check-session", hm.authHandler.CheckSession)
		auth.POST("/logout", hm.authMiddleware.RequireAuth(), hm.authHandler.Logout)
		auth.GET("/me", hm.authMiddleware.RequireAuth(), hm.authHandler.Me)
	}

	// Public share links, no auth
	share := router.Group("/share")
	{
		share.GET("/exam/:token", hm.publicHandler.SharedExam)
		share.GET("/question/:token", hm.publicHandler.SharedQuestionSet)
	}

	// Session and password self-service for any authenticated user
	profile := router.Group("/profile", hm.authMiddleware.RequireAuth())
	{
		profile.GET("/sessions", hm.authHandler.ListSessions)
		profile.POST("/sessions/:id/revoke", hm.authHandler.RevokeSession)
		profile.POST("/sessions/revoke-all", hm.authHandler.RevokeAllSessions)
		profile.POST("/password", hm.authHandler.ChangePassword)
	}

	// Student surface
	exams := router.Group("/exams", hm.authMiddleware.RequireAuth(), hm.authMiddleware.RequireRole(models.RoleStudent))
	{
		exams.GET("", hm.examHandler.ListMine)
		exams.GET("/:id", hm.examHandler.Open)
		exams.POST("/:id/start", hm.examHandler.Start)
		exams.PUT("/:id/answers", hm.examHandler.SaveAnswer)
		exams.POST("/:id/submit", hm.examHandler.Submit)
		exams.GET("/:id/results", hm.examHandler.Results)
		exams.POST("/:id/share", hm.examHandler.Share)
		exams.DELETE("/:id/share", hm.examHandler.Unshare)
	}

	// Admin surface
	admin := router.Group("/admin", hm.authMiddleware.RequireAuth(), hm.authMiddleware.RequireRole(models.RoleAdmin))
	{
		students := admin.Group("/students")
		{
			students.POST("", hm.adminHandler.CreateStudent)
			students.GET("", hm.adminHandler.ListStudents)
			students.GET("/:id", hm.adminHandler.GetStudent)
			students.PUT("/:id", hm.adminHandler.UpdateStudent)
			students.PUT("/:id/password", hm.adminHandler.SetStudentPassword)
			students.DELETE("/:id", hm.adminHandler.DeactivateStudent)
		}

		sets := admin.Group("/question-sets")
		{
			sets.POST("", hm.adminHandler.CreateQuestionSet)
			sets.GET("", hm.adminHandler.ListQuestionSets)
			sets.GET("/:id", hm.adminHandler.GetQuestionSet)
			sets.POST("/:id/questions", hm.adminHandler.AddQuestion)
			sets.POST("/:id/share", hm.adminHandler.ShareQuestionSet)
			sets.DELETE("/:id/share", hm.adminHandler.UnshareQuestionSet)
		}

		adminExams := admin.Group("/exams")
		{
			adminExams.POST("", hm.adminHandler.AssignExam)
			adminExams.GET("", hm.adminHandler.ListExams)
			adminExams.PUT("/:id/schedule", hm.adminHandler.UpdateExamSchedule)
			adminExams.POST("/:id/reset", hm.adminHandler.ResetExam)
			adminExams.POST("/:id/share", hm.adminHandler.ShareExam)
			adminExams.DELETE("/:id/share", hm.adminHandler.UnshareExam)

			adminExams.GET("/:id/grading", hm.gradingHandler.GradingView)
			adminExams.PUT("/:id/grades", hm.gradingHandler.SaveGrades)
			adminExams.POST("/:id/release", hm.gradingHandler.Release)
		}

		admin.GET("/dashboard", hm.adminHandler.Dashboard)
		admin.GET("/reports/results.xlsx", hm.adminHandler.ExportResults)
		admin.GET("/audit-log", hm.adminHandler.ListAuditLog)
	}
}
