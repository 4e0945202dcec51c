package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campusgate/campusgate-api/api/swagger"
	"github.com/campusgate/campusgate-api/internal/handler"
	"github.com/campusgate/campusgate-api/internal/middleware"
	"github.com/campusgate/campusgate-api/internal/repository"
	"github.com/campusgate/campusgate-api/internal/service"
	"github.com/campusgate/campusgate-api/pkg/cache"
	"github.com/campusgate/campusgate-api/pkg/config"
	"github.com/campusgate/campusgate-api/pkg/database"
	"github.com/campusgate/campusgate-api/pkg/jobs"
	"github.com/campusgate/campusgate-api/pkg/logger"
	corsmiddleware "github.com/campusgate/campusgate-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusgate/campusgate-api/pkg/middleware/requestid"
	"github.com/campusgate/campusgate-api/pkg/storage"
)

// @title CampusGate API
// @version 1.0.0
// @description Multi-tenant school and college administration backend
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	exportSigner := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	classRepo := repository.NewClassRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authService := service.NewAuthService(userRepo, studentRepo, teacherRepo, settingsRepo, validate, logr, service.AuthConfig{
		SessionSecret: cfg.Session.Secret,
		SessionTTL:    cfg.Session.TTL,
	})
	classService := service.NewClassService(classRepo, sectionRepo, studentRepo, validate, logr)
	sectionService := service.NewSectionService(sectionRepo, classRepo, studentRepo, validate, logr)
	studentService := service.NewStudentService(studentRepo, userRepo, authService, validate, logr)
	teacherService := service.NewTeacherService(teacherRepo, userRepo, authService, validate, logr)
	courseService := service.NewCourseService(courseRepo, teacherRepo, validate, logr)
	scheduleService := service.NewScheduleService(scheduleRepo, courseRepo, teacherRepo, sectionRepo, validate, logr)
	announcementService := service.NewAnnouncementService(announcementRepo, cacheRepo, cfg.Cache.AnnouncementTTL, validate, logr)
	materialService := service.NewMaterialService(materialRepo, scheduleRepo, uploadStore, logr)
	submissionService := service.NewSubmissionService(submissionRepo, scheduleRepo, studentRepo, uploadStore, validate, logr)
	attendanceService := service.NewAttendanceService(attendanceRepo, scheduleRepo, studentRepo, exportStore, exportSigner, validate, logr)
	leaveService := service.NewLeaveService(leaveRepo, scheduleRepo, studentRepo, validate, logr)
	settingsService := service.NewSettingsService(settingsRepo, cacheRepo, cfg.Cache.SettingsTTL, validate, logr)
	metricsService := service.NewMetricsService()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exportPool := jobs.NewPool("attendance-exports", attendanceService.ProcessExport, jobs.PoolConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	attendanceService.SetPool(exportPool)
	exportPool.Start(ctx)
	defer exportPool.Stop()

	if cfg.Cleanup.Enabled {
		go leaveService.RunWeeklyCleanup(ctx)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r, cfg.APIPrefix, handler.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Class:        handler.NewClassHandler(classService),
		Section:      handler.NewSectionHandler(sectionService),
		Student:      handler.NewStudentHandler(studentService),
		Teacher:      handler.NewTeacherHandler(teacherService),
		Course:       handler.NewCourseHandler(courseService),
		Schedule:     handler.NewScheduleHandler(scheduleService),
		Announcement: handler.NewAnnouncementHandler(announcementService),
		Material:     handler.NewMaterialHandler(materialService, cfg.Uploads.MaxFileSizeBytes),
		Submission:   handler.NewSubmissionHandler(submissionService, cfg.Uploads.MaxFileSizeBytes),
		Attendance:   handler.NewAttendanceHandler(attendanceService),
		Leave:        handler.NewLeaveHandler(leaveService),
		Settings:     handler.NewSettingsHandler(settingsService),
		Metrics:      handler.NewMetricsHandler(metricsService),
	}, authService)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
