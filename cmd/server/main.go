package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/springgate/practice-exam-service/internal/cache"
	"github.com/springgate/practice-exam-service/internal/config"
	"github.com/springgate/practice-exam-service/internal/events"
	"github.com/springgate/practice-exam-service/internal/handlers"
	"github.com/springgate/practice-exam-service/internal/models"
	"github.com/springgate/practice-exam-service/internal/repositories/postgres"
	"github.com/springgate/practice-exam-service/internal/services"
	"github.com/springgate/practice-exam-service/internal/utils"
	"github.com/springgate/practice-exam-service/pkg"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.NewDefaultLogger().Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
		gin.SetMode(gin.ReleaseMode)
	} else {
		logger = utils.NewDevelopmentLogger()
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := migrate(db); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	if err := seedRoles(db); err != nil {
		logger.Error("failed to seed roles", "error", err)
		os.Exit(1)
	}

	var cacheService cache.CacheService = cache.NoopCache{}
	if redisClient, err := pkg.NewRedisClient(cfg); err != nil {
		logger.Warn("redis unavailable, caching disabled", "error", err)
	} else {
		cacheService = cache.NewRedisCache(redisClient, logger)
		defer redisClient.Close()
	}

	var publisher events.EventPublisher
	publisher, err = events.NewKafkaEventPublisher(events.PublisherConfig{
		KafkaBrokers: cfg.KafkaBrokers,
		TopicName:    cfg.NotificationTopic,
		Logger:       utils.ToSlogLogger(logger),
	})
	if err != nil {
		logger.Warn("kafka unavailable, using in-memory publisher", "error", err)
		publisher = events.NewMockEventPublisher()
	}
	defer publisher.Close()

	repo := postgres.NewRepository(db)
	validate := utils.NewValidator()

	audit := services.NewAuditService(repo, logger)
	auth := services.NewAuthService(repo, logger, validate, audit, publisher, cfg)
	links := services.NewMagicLinkService(repo, logger, audit, cfg)

	svc := handlers.Services{
		Auth:        auth,
		MagicLinks:  links,
		Users:       services.NewUserService(repo, logger, validate, audit, cfg),
		QuestionSet: services.NewQuestionSetService(repo, logger, validate, audit, cfg),
		Exams:       services.NewExamService(repo, logger, validate, audit, links, publisher, cfg),
		Grading:     services.NewGradingService(repo, logger, validate, audit, publisher, cfg),
		Reports:     services.NewReportService(repo, cacheService, logger),
		Audit:       audit,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	manager := handlers.NewHandlerManager(svc, logger,
		int(cfg.SessionDuration.Seconds()), cfg.Environment == "production")
	manager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Session{},
		&models.MagicLink{},
		&models.QuestionSet{},
		&models.Question{},
		&models.PracticeExam{},
		&models.StudentAnswer{},
		&models.AuditLog{},
	)
}

// seedRoles ensures the two built-in roles exist with their permission sets.
func seedRoles(db *gorm.DB) error {
	roles := []models.Role{
		{
			Name:        models.RoleAdmin,
			Permissions: datatypes.JSON(`{"manage_students":true,"manage_exams":true,"grade_exams":true,"view_reports":true,"take_exams":false}`),
		},
		{
			Name:        models.RoleStudent,
			Permissions: datatypes.JSON(`{"manage_students":false,"manage_exams":false,"grade_exams":false,"view_reports":false,"take_exams":true}`),
		},
	}
	for _, role := range roles {
		var existing models.Role
		err := db.Where("name = ?", role.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&role).Error; err != nil {
			return err
		}
	}
	return nil
}
