package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/fitdesk/coach-ops-api/api/swagger"
	"github.com/fitdesk/coach-ops-api/internal/handler"
	"github.com/fitdesk/coach-ops-api/internal/middleware"
	"github.com/fitdesk/coach-ops-api/internal/models"
	"github.com/fitdesk/coach-ops-api/internal/repository"
	"github.com/fitdesk/coach-ops-api/internal/service"
	"github.com/fitdesk/coach-ops-api/pkg/cache"
	"github.com/fitdesk/coach-ops-api/pkg/config"
	"github.com/fitdesk/coach-ops-api/pkg/database"
	"github.com/fitdesk/coach-ops-api/pkg/jobs"
	"github.com/fitdesk/coach-ops-api/pkg/logger"
	corsmiddleware "github.com/fitdesk/coach-ops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/fitdesk/coach-ops-api/pkg/middleware/requestid"
	"github.com/fitdesk/coach-ops-api/pkg/storage"
)

// @title Coach Ops API
// @version 1.0.0
// @description Operational dashboard API for fitness coaching teams.
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Analytics.CacheTTL, logr, false)
	} else {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close()
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, logr, cfg.Analytics.Enabled)
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)
	workoutRepo := repository.NewWorkoutRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "coach-ops-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, validate, logr, cfg.Timeline)
	challengeSvc := service.NewChallengeService(challengeRepo, validate, logr)
	workoutSvc := service.NewWorkoutService(workoutRepo, validate, logr)
	analyticsSvc := service.NewAnalyticsService(sessionRepo, cacheSvc, metricsSvc, logr, cfg.Analytics.CacheTTL)

	var reportSvc *service.ReportService
	var reportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		exportStore, err := storage.NewLocalStorage(cfg.Exports.Dir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Exports.ResultTTL)
		reportRepo := repository.NewReportRepository(db)
		exportSvc := service.NewExportService(sessionRepo, challengeRepo, exportStore, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.ResultTTL,
		}, logr, nil, nil)
		worker := service.NewReportWorker(reportRepo, exportSvc, cfg.Exports.MaxRetries, logr)
		reportQueue = jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.Workers,
			BufferSize: 64,
			MaxRetries: cfg.Exports.MaxRetries,
			RetryDelay: 5 * time.Second,
			Logger:     logr,
		})
		reportSvc = service.NewReportService(reportRepo, reportQueue, exportSvc, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Exports.ResultTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
			MaxRetries:      cfg.Exports.MaxRetries,
		})
	}

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	challengeHandler := handler.NewChallengeHandler(challengeSvc)
	workoutHandler := handler.NewWorkoutHandler(workoutSvc)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		payload := gin.H{"status": "ready"}
		if reportQueue != nil {
			payload["report_queue_depth"] = reportQueue.Depth()
		}
		c.JSON(http.StatusOK, payload)
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	users := protected.Group("/users")
	users.Use(middleware.RequireRoles(models.RoleAdmin))
	users.Use(middleware.Audit(userRepo, models.AuditActionManageUsers, "users"))
	{
		users.GET("", userHandler.List)
		users.GET("/:id", userHandler.Get)
		users.POST("", userHandler.Create)
		users.PUT("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Delete)
	}

	sessions := protected.Group("/sessions")
	{
		sessions.GET("", sessionHandler.List)
		sessions.GET("/timeline", sessionHandler.Timeline)
		sessions.GET("/:id", sessionHandler.Get)
		sessions.PUT("/:id/attendance", sessionHandler.SetAttendance)

		staff := sessions.Group("")
		staff.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleCoach))
		staff.Use(middleware.Audit(userRepo, models.AuditActionManageSessions, "sessions"))
		{
			staff.POST("", sessionHandler.Create)
			staff.PUT("/:id", sessionHandler.Update)
			staff.DELETE("/:id", sessionHandler.Delete)
		}
	}

	challenges := protected.Group("/challenges")
	{
		challenges.GET("", challengeHandler.List)
		challenges.GET("/active", challengeHandler.Active)
		challenges.GET("/:id", challengeHandler.Get)
		challenges.GET("/:id/enrollments", challengeHandler.Enrollments)
		challenges.POST("/:id/enroll", challengeHandler.Enroll)
		challenges.DELETE("/:id/enroll", challengeHandler.Withdraw)

		staff := challenges.Group("")
		staff.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleCoach))
		staff.Use(middleware.Audit(userRepo, models.AuditActionManageChallenges, "challenges"))
		{
			staff.POST("", challengeHandler.Create)
			staff.PUT("/:id", challengeHandler.Update)
			staff.DELETE("/:id", challengeHandler.Delete)
		}
	}

	workouts := protected.Group("/workouts")
	{
		workouts.GET("", workoutHandler.List)
		workouts.GET("/assignments", workoutHandler.Assignments)
		workouts.POST("/assignments/:assignmentId/complete", workoutHandler.Complete)
		workouts.GET("/:id", workoutHandler.Get)

		staff := workouts.Group("")
		staff.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleCoach))
		staff.Use(middleware.Audit(userRepo, models.AuditActionManageWorkouts, "workouts"))
		{
			staff.POST("", workoutHandler.Create)
			staff.PUT("/:id", workoutHandler.Update)
			staff.DELETE("/:id", workoutHandler.Delete)
			staff.POST("/:id/assign", workoutHandler.Assign)
		}
	}

	if cfg.Analytics.Enabled {
		analytics := protected.Group("/analytics")
		analytics.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleCoach))
		{
			analytics.GET("/attendance", analyticsHandler.Attendance)
			analytics.GET("/system", analyticsHandler.System)
			if cfg.Exports.Enabled {
				analytics.GET("/attendance/export", analyticsHandler.ExportAttendance)
			}
		}
	}

	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	if reportSvc != nil {
		reportQueue.Start(serverCtx)
		defer reportQueue.Stop()
		reportSvc.RecoverPendingJobs(serverCtx)
		reportSvc.StartCleanup(serverCtx)

		reportHandler := handler.NewReportHandler(reportSvc)
		reports := protected.Group("/reports")
		reports.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleCoach))
		{
			reports.POST("", reportHandler.Create)
			reports.GET("/:id", reportHandler.Status)
		}
		// Token carries its own auth; the link must work from a browser.
		api.GET("/export/:token", reportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
