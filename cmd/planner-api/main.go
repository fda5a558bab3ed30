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
	"go.uber.org/zap"

	"github.com/noah-isme/student-planner-api/internal/handler"
	"github.com/noah-isme/student-planner-api/internal/repository"
	"github.com/noah-isme/student-planner-api/internal/service"
	"github.com/noah-isme/student-planner-api/pkg/cache"
	"github.com/noah-isme/student-planner-api/pkg/config"
	"github.com/noah-isme/student-planner-api/pkg/database"
	"github.com/noah-isme/student-planner-api/pkg/jobs"
	"github.com/noah-isme/student-planner-api/pkg/logger"
	"github.com/noah-isme/student-planner-api/pkg/storage"
)

// @title Student Planner API
// @version 1.0.0
// @description Subjects, recurring class schedules, grades, attendance, tasks and day agendas.
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

	logr, err := logger.New(cfg, "planner-api")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	loc := cfg.Calendar.Location()
	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Agenda.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, agenda cache disabled", zap.Error(err))
		} else {
			redisRepo := repository.NewCacheRepository(client, logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Agenda.CacheTTL, logr, cfg.Agenda.CacheEnabled)

	subjectRepo := repository.NewSubjectRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	termRepo := repository.NewTermRepository(db)

	calendarSvc := service.NewCalendarService(termRepo, cacheSvc, cfg.Calendar.ActiveTermID, loc, nil, logr)
	agendaSvc := service.NewAgendaService(service.AgendaServiceParams{
		Subjects: subjectRepo,
		Calendar: calendarSvc,
		Cache:    cacheSvc,
		Metrics:  metrics,
		Logger:   logr,
		Config: service.AgendaServiceConfig{
			CacheTTL:    cfg.Agenda.CacheTTL,
			DefaultMode: cfg.Agenda.DefaultMode,
			Location:    loc,
		},
	})

	widgetParams := service.WidgetServiceParams{
		Agenda:  agendaSvc,
		Tasks:   taskRepo,
		Owners:  subjectRepo,
		Metrics: metrics,
		Logger:  logr,
		Config: service.WidgetServiceConfig{
			Enabled:     cfg.Widgets.Enabled,
			Concurrency: cfg.Widgets.Concurrency,
			Location:    loc,
		},
	}
	if cfg.Widgets.Enabled {
		store, err := storage.OpenBolt(cfg.Widgets.SnapshotPath, service.WidgetSnapshotBucket)
		if err != nil {
			logr.Warn("widget snapshot store unavailable, widgets disabled", zap.String("path", cfg.Widgets.SnapshotPath), zap.Error(err))
		} else {
			defer store.Close() //nolint:errcheck
			widgetParams.Store = store
		}
	}
	widgetSvc := service.NewWidgetService(widgetParams)

	notifier := service.NewChangeNotifier(cacheSvc, nil, logr)
	var refreshQueue *jobs.Queue
	if widgetSvc.Enabled() {
		refreshQueue = jobs.NewQueue("widget-refresh", widgetSvc.HandleJob, jobs.QueueConfig{
			Workers:    cfg.Widgets.QueueWorkers,
			MaxRetries: cfg.Widgets.QueueRetries,
			Logger:     logr,
		})
		refreshQueue.Start(ctx)
		defer refreshQueue.Stop()
		notifier = service.NewChangeNotifier(cacheSvc, refreshQueue, logr)
	}

	handlers := routeHandlers{
		subjects:   handler.NewSubjectHandler(service.NewSubjectService(subjectRepo, notifier, nil, logr)),
		grades:     handler.NewGradeHandler(service.NewGradeService(gradeRepo, subjectRepo, notifier, nil, logr)),
		attendance: handler.NewAttendanceHandler(service.NewAttendanceService(attendanceRepo, subjectRepo, agendaSvc, loc, nil, logr)),
		tasks:      handler.NewTaskHandler(service.NewTaskService(taskRepo, subjectRepo, notifier, nil, logr)),
		terms:      handler.NewTermHandler(calendarSvc),
		agenda:     handler.NewAgendaHandler(agendaSvc, service.NewExportService(agendaSvc, logr)),
		summary:    handler.NewSummaryHandler(service.NewSummaryService(subjectRepo, gradeRepo, attendanceRepo, taskRepo, logr)),
		widgets:    handler.NewWidgetHandler(widgetSvc, nil),
		metrics:    handler.NewMetricsHandler(metrics, db),
	}
	if refreshQueue != nil {
		handlers.widgets = handler.NewWidgetHandler(widgetSvc, refreshQueue)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	tokens := service.NewTokenService(cfg.JWT.Secret)
	r := newRouter(cfg, logr, tokens, metrics, handlers)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
