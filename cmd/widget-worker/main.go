package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/student-planner-api/internal/repository"
	"github.com/noah-isme/student-planner-api/internal/service"
	"github.com/noah-isme/student-planner-api/pkg/config"
	"github.com/noah-isme/student-planner-api/pkg/database"
	"github.com/noah-isme/student-planner-api/pkg/logger"
	"github.com/noah-isme/student-planner-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg, "widget-worker")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if !cfg.Widgets.Enabled {
		logr.Info("widgets disabled, nothing to do")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	store, err := storage.OpenBolt(cfg.Widgets.SnapshotPath, service.WidgetSnapshotBucket)
	if err != nil {
		logr.Fatal("widget snapshot store unavailable", zap.String("path", cfg.Widgets.SnapshotPath), zap.Error(err))
	}
	defer store.Close() //nolint:errcheck

	loc := cfg.Calendar.Location()
	metrics := service.NewMetricsService()
	subjectRepo := repository.NewSubjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	calendarSvc := service.NewCalendarService(repository.NewTermRepository(db), nil, cfg.Calendar.ActiveTermID, loc, nil, logr)
	agendaSvc := service.NewAgendaService(service.AgendaServiceParams{
		Subjects: subjectRepo,
		Calendar: calendarSvc,
		Metrics:  metrics,
		Logger:   logr,
		Config:   service.AgendaServiceConfig{DefaultMode: cfg.Agenda.DefaultMode, Location: loc},
	})
	widgetSvc := service.NewWidgetService(service.WidgetServiceParams{
		Agenda:  agendaSvc,
		Tasks:   taskRepo,
		Owners:  subjectRepo,
		Store:   store,
		Metrics: metrics,
		Logger:  logr,
		Config: service.WidgetServiceConfig{
			Enabled:     true,
			Concurrency: cfg.Widgets.Concurrency,
			Location:    loc,
		},
	})

	tick := refreshTick(ctx, widgetSvc, cfg.Widgets.RefreshTimeout, logr)
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(zap.NewStdLog(logr)))),
	)
	if _, err := c.AddFunc(cfg.Widgets.RefreshCron, tick); err != nil {
		logr.Fatal("invalid refresh schedule", zap.String("cron", cfg.Widgets.RefreshCron), zap.Error(err))
	}

	logr.Info("widget worker started",
		zap.String("cron", cfg.Widgets.RefreshCron),
		zap.Duration("timeout", cfg.Widgets.RefreshTimeout),
		zap.String("snapshot_path", cfg.Widgets.SnapshotPath),
	)
	tick()
	c.Start()

	<-ctx.Done()
	logr.Info("shutting down")
	<-c.Stop().Done()
}
