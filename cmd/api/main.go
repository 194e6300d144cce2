package main

import (
	"context"
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

	_ "github.com/acadsys/class-record-api/api/swagger"
	"github.com/acadsys/class-record-api/internal/handler"
	"github.com/acadsys/class-record-api/internal/middleware"
	"github.com/acadsys/class-record-api/internal/models"
	"github.com/acadsys/class-record-api/internal/repository"
	"github.com/acadsys/class-record-api/internal/service"
	"github.com/acadsys/class-record-api/pkg/cache"
	"github.com/acadsys/class-record-api/pkg/config"
	"github.com/acadsys/class-record-api/pkg/database"
	"github.com/acadsys/class-record-api/pkg/jobs"
	"github.com/acadsys/class-record-api/pkg/logger"
	corsmiddleware "github.com/acadsys/class-record-api/pkg/middleware/cors"
	reqidmiddleware "github.com/acadsys/class-record-api/pkg/middleware/requestid"
	"github.com/acadsys/class-record-api/pkg/storage"
)

// @title Class Record API
// @version 1.0.0
// @description Role-based academic records and grade computation service
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, grade cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	teachingLoadRepo := repository.NewTeachingLoadRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	termRepo := repository.NewTermRepository(db)
	compositionRepo := repository.NewCompositionRepository(db)
	baseGradeRepo := repository.NewBaseGradeRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// Observability and cache.
	metricsService := service.NewMetricsService()
	var gradeCache *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		gradeCache = service.NewCacheService(cacheRepo, metricsService, cfg.Cache.GradeTTL, logr, cfg.Cache.Enabled)
	} else {
		gradeCache = service.NewCacheService(nil, metricsService, cfg.Cache.GradeTTL, logr, false)
	}

	// Services.
	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "class-record-api",
		Audience:           []string{"class-record-clients"},
	})
	userService := service.NewUserService(userRepo, validate, logr)
	studentService := service.NewStudentService(studentRepo, courseRepo, validate, logr)
	catalogService := service.NewCatalogService(courseRepo, subjectRepo, validate, logr)
	teachingLoadService := service.NewTeachingLoadService(teachingLoadRepo, userRepo, subjectRepo, validate, logr)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, studentRepo, teachingLoadRepo, gradeCache, validate, logr)
	referenceService := service.NewReferenceService(categoryRepo, termRepo, logr)
	compositionService := service.NewCompositionService(compositionRepo, categoryRepo, teachingLoadRepo, gradeCache, validate, logr)
	baseGradeService := service.NewBaseGradeService(baseGradeRepo, teachingLoadRepo, gradeCache, validate, logr)
	activityService := service.NewActivityService(activityRepo, categoryRepo, termRepo, teachingLoadRepo, scoreRepo, gradeCache, validate, logr)
	scoreService := service.NewScoreService(scoreRepo, activityRepo, enrollmentRepo, gradeCache, validate, logr)
	termGradeService := service.NewTermGradeService(compositionRepo, activityRepo, scoreRepo, enrollmentRepo, termRepo, gradeCache, metricsService, cfg.Grading.PassingGrade, logr)
	semesterGradeService := service.NewSemesterGradeService(baseGradeRepo, termGradeService, termRepo, gradeCache, metricsService, logr)

	// Handlers independent of reports.
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	studentHandler := handler.NewStudentHandler(studentService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	teachingLoadHandler := handler.NewTeachingLoadHandler(teachingLoadService)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService, teachingLoadService)
	referenceHandler := handler.NewReferenceHandler(referenceService)
	compositionHandler := handler.NewCompositionHandler(compositionService, teachingLoadService)
	baseGradeHandler := handler.NewBaseGradeHandler(baseGradeService, teachingLoadService)
	activityHandler := handler.NewActivityHandler(activityService, teachingLoadService)
	scoreHandler := handler.NewScoreHandler(scoreService, activityService, teachingLoadService)
	gradeHandler := handler.NewGradeHandler(termGradeService, semesterGradeService, teachingLoadService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Asynchronous report pipeline.
	var reportHandler *handler.ReportHandler
	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		fileStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportService := service.NewExportService(
			termGradeService, semesterGradeService,
			activityRepo, scoreRepo, enrollmentRepo, teachingLoadRepo, termRepo,
			fileStore, signer,
			service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Reports.SignedURLTTL},
			logr, nil, nil,
		)
		reportWorker := service.NewReportWorker(reportRepo, exportService, cfg.Reports.WorkerRetries, logr)
		reportQueue = jobs.NewQueue("reports", reportWorker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportService := service.NewReportService(reportRepo, teachingLoadRepo, reportQueue, exportService, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		reportHandler = handler.NewReportHandler(reportService, logr)

		reportQueue.Start(rootCtx)
		reportService.RecoverPendingJobs(rootCtx)
		reportService.StartCleanup(rootCtx)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Session endpoints. Login and refresh are unauthenticated; the export
	// download carries its own signed token.
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	if reportHandler != nil {
		api.GET("/export/:token", reportHandler.DownloadReport)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authService))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.POST("/auth/change-password", authHandler.ChangePassword)
	authed.GET("/auth/me", authHandler.Me)

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	anyRole := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)

	users := authed.Group("/users")
	users.GET("", adminOnly, userHandler.List)
	users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), userHandler.Get)
	users.POST("", adminOnly, middleware.Audit(userRepo, models.AuditActionCreate, "user"), userHandler.Create)
	users.PUT("/:id", adminOnly, middleware.Audit(userRepo, models.AuditActionUpdate, "user"), userHandler.Update)
	users.DELETE("/:id", adminOnly, middleware.Audit(userRepo, models.AuditActionDelete, "user"), userHandler.Delete)

	students := authed.Group("/students")
	students.GET("", anyRole, studentHandler.List)
	students.GET("/:id", anyRole, studentHandler.Get)
	students.POST("", adminOnly, middleware.Audit(userRepo, models.AuditActionCreate, "student"), studentHandler.Create)
	students.PUT("/:id", adminOnly, middleware.Audit(userRepo, models.AuditActionUpdate, "student"), studentHandler.Update)
	students.DELETE("/:id", adminOnly, middleware.Audit(userRepo, models.AuditActionDelete, "student"), studentHandler.Delete)

	courses := authed.Group("/courses")
	courses.GET("", anyRole, catalogHandler.ListCourses)
	courses.GET("/:id", anyRole, catalogHandler.GetCourse)
	courses.POST("", adminOnly, catalogHandler.CreateCourse)
	courses.PUT("/:id", adminOnly, catalogHandler.UpdateCourse)
	courses.DELETE("/:id", adminOnly, catalogHandler.DeleteCourse)

	subjects := authed.Group("/subjects")
	subjects.GET("", anyRole, catalogHandler.ListSubjects)
	subjects.GET("/:id", anyRole, catalogHandler.GetSubject)
	subjects.POST("", adminOnly, catalogHandler.CreateSubject)
	subjects.PUT("/:id", adminOnly, catalogHandler.UpdateSubject)
	subjects.DELETE("/:id", adminOnly, catalogHandler.DeleteSubject)

	loads := authed.Group("/teaching-loads")
	loads.GET("", anyRole, teachingLoadHandler.List)
	loads.GET("/:id", anyRole, teachingLoadHandler.Get)
	loads.POST("", adminOnly, teachingLoadHandler.Create)
	loads.POST("/:id/sections", adminOnly, teachingLoadHandler.AddSection)

	authed.GET("/categories", anyRole, referenceHandler.ListCategories)
	authed.GET("/terms", anyRole, referenceHandler.ListTerms)

	enrollments := authed.Group("/enrollments")
	enrollments.GET("", adminOnly, enrollmentHandler.List)
	enrollments.POST("", adminOnly, middleware.Audit(userRepo, models.AuditActionCreate, "enrollment"), enrollmentHandler.Enroll)
	enrollments.DELETE("/:id", adminOnly, middleware.Audit(userRepo, models.AuditActionDelete, "enrollment"), enrollmentHandler.Drop)

	sections := authed.Group("/sections")
	sections.Use(anyRole)
	sections.GET("/:id", teachingLoadHandler.GetSection)
	sections.GET("/:id/roster", enrollmentHandler.Roster)
	sections.GET("/:id/composition", compositionHandler.Get)
	sections.PUT("/:id/composition", middleware.Audit(userRepo, models.AuditActionUpdate, "composition"), compositionHandler.Save)
	sections.PATCH("/:id/composition/:categoryId", middleware.Audit(userRepo, models.AuditActionUpdate, "composition"), compositionHandler.UpdateEntry)
	sections.GET("/:id/base-grade", baseGradeHandler.Get)
	sections.PUT("/:id/base-grade", middleware.Audit(userRepo, models.AuditActionUpdate, "base_grade"), baseGradeHandler.Save)
	sections.GET("/:id/grades/term", gradeHandler.TermGrades)
	sections.GET("/:id/grades/semester", gradeHandler.SemesterGrades)

	activities := authed.Group("/activities")
	activities.Use(anyRole)
	activities.GET("", activityHandler.List)
	activities.GET("/:id", activityHandler.Get)
	activities.POST("", middleware.Audit(userRepo, models.AuditActionCreate, "activity"), activityHandler.Create)
	activities.PUT("/:id", middleware.Audit(userRepo, models.AuditActionUpdate, "activity"), activityHandler.Update)
	activities.DELETE("/:id", middleware.Audit(userRepo, models.AuditActionDelete, "activity"), activityHandler.Delete)
	activities.GET("/:id/scores", scoreHandler.Sheet)
	activities.PUT("/:id/scores", middleware.Audit(userRepo, models.AuditActionUpdate, "score"), scoreHandler.Record)
	activities.PUT("/:id/scores/batch", middleware.Audit(userRepo, models.AuditActionUpdate, "score"), scoreHandler.RecordBatch)

	if reportHandler != nil {
		reports := authed.Group("/reports")
		reports.Use(anyRole)
		reports.POST("/generate", reportHandler.GenerateReport)
		reports.GET("", reportHandler.ListReports)
		reports.GET("/status/:id", reportHandler.ReportStatus)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	if reportQueue != nil {
		reportQueue.Stop()
	}
}
