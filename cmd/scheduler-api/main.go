package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/meridian-sis/scheduler-api/api/swagger"
	"github.com/meridian-sis/scheduler-api/internal/handler"
	"github.com/meridian-sis/scheduler-api/internal/middleware"
	"github.com/meridian-sis/scheduler-api/internal/models"
	"github.com/meridian-sis/scheduler-api/internal/repository"
	"github.com/meridian-sis/scheduler-api/internal/service"
	"github.com/meridian-sis/scheduler-api/pkg/cache"
	"github.com/meridian-sis/scheduler-api/pkg/config"
	"github.com/meridian-sis/scheduler-api/pkg/database"
	"github.com/meridian-sis/scheduler-api/pkg/jobs"
	"github.com/meridian-sis/scheduler-api/pkg/logger"
	corsmiddleware "github.com/meridian-sis/scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/meridian-sis/scheduler-api/pkg/middleware/requestid"
)

// @title Meridian Scheduler API
// @version 1.0.0
// @description Resource assignment and conflict resolution engine for school timetables
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

	weights := constraintWeights(cfg)
	if err := weights.Validate(); err != nil {
		logr.Sugar().Fatalw("invalid constraint weights", "error", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, conflict cache disabled", "error", err)
		redisClient = nil
	}

	assignmentRepo := repository.NewRoomAssignmentRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	overrideRepo := repository.NewOverrideRepository(db)
	waveRepo := repository.NewLunchWaveRepository(db)
	lunchRepo := repository.NewLunchAssignmentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Analyzer.CacheTTL, logr, redisClient != nil)

	var conflictSvc *service.ConflictService
	refreshQueue := jobs.NewQueue("conflict_refresh", func(ctx context.Context, job jobs.Job) error {
		return conflictSvc.RefreshWorker(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Analyzer.RefreshWorkers,
		MaxRetries: cfg.Analyzer.RefreshRetries,
		Logger:     logr,
	})
	conflictSvc = service.NewConflictService(
		slotRepo, assignmentRepo, courseRepo, teacherRepo, roomRepo,
		cacheSvc, refreshQueue, weights, cfg.Analyzer.CacheTTL, logr,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	refreshQueue.Start(ctx)
	defer refreshQueue.Stop()

	invalidator := service.NewConflictInvalidator(conflictSvc, scheduleRepo, logr)

	assignmentSvc := service.NewAssignmentService(assignmentRepo, courseRepo, roomRepo, db, invalidator, nil, logr)
	lunchSvc := service.NewLunchService(waveRepo, lunchRepo, studentRepo, teacherRepo, db, nil, logr)
	overrideSvc := service.NewOverrideService(slotRepo, overrideRepo, teacherRepo, roomRepo, db, nil, logr)
	analyticsSvc := service.NewAnalyticsService(slotRepo, teacherRepo, courseRepo, logr)
	recommendationSvc := service.NewRecommendationService(slotRepo, courseRepo, teacherRepo, roomRepo, assignmentRepo, weights, logr)
	advisorySvc := service.NewAdvisoryService(cfg.Advisory, logr)
	exportSvc := service.NewExportService(conflictSvc, waveRepo, lunchRepo, studentRepo, logr, nil, nil)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.Actor(cfg.Auth.TokenSecret))

	routes := &handler.Routes{
		Assignments:     handler.NewAssignmentHandler(assignmentSvc),
		Lunch:           handler.NewLunchHandler(lunchSvc, metricsSvc),
		Overrides:       handler.NewOverrideHandler(overrideSvc, metricsSvc),
		Conflicts:       handler.NewConflictHandler(conflictSvc, advisorySvc, metricsSvc),
		Analytics:       handler.NewAnalyticsHandler(analyticsSvc, metricsSvc),
		Recommendations: handler.NewRecommendationHandler(recommendationSvc),
		Exports:         handler.NewExportHandler(exportSvc),
		Metrics:         handler.NewMetricsHandler(metricsSvc),
		ExportsEnabled:  cfg.Exports.Enabled,
	}
	routes.Register(r, cfg.APIPrefix, middleware.RequireActor())

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func constraintWeights(cfg *config.Config) models.ConstraintWeightSet {
	w := models.ConstraintWeightSet{
		TeacherConflict:      cfg.Weights.TeacherConflict,
		RoomConflict:         cfg.Weights.RoomConflict,
		Capacity:             cfg.Weights.Capacity,
		WorkloadBalance:      cfg.Weights.WorkloadBalance,
		TeacherQualification: cfg.Weights.TeacherQualification,
		StudentPreference:    cfg.Weights.StudentPreference,
	}
	if w == (models.ConstraintWeightSet{}) {
		return models.DefaultWeights()
	}
	return w
}
