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
	"go.uber.org/zap"

	_ "github.com/noah-isme/lesson-planner-api/api/swagger"
	"github.com/noah-isme/lesson-planner-api/internal/handler"
	"github.com/noah-isme/lesson-planner-api/internal/repository"
	"github.com/noah-isme/lesson-planner-api/internal/service"
	"github.com/noah-isme/lesson-planner-api/pkg/cache"
	"github.com/noah-isme/lesson-planner-api/pkg/config"
	"github.com/noah-isme/lesson-planner-api/pkg/database"
	"github.com/noah-isme/lesson-planner-api/pkg/export"
	"github.com/noah-isme/lesson-planner-api/pkg/jobs"
	"github.com/noah-isme/lesson-planner-api/pkg/logger"
)

// @title Lesson Planner API
// @version 1.0.0
// @description Generates lesson schedules over a teaching calendar and shifts lessons around special events.
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
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching and drafts disabled", zap.Error(err))
	} else {
		repo := repository.NewCacheRepository(redisClient, logr)
		defer repo.Close() //nolint:errcheck
		cacheRepo = repo
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Planner.CacheTTL, logr, cacheRepo != nil)
	drafts := service.NewDraftStore(cacheRepo, cfg.Planner.DraftTTL, logr)

	planner := service.NewLessonScheduleService(
		repository.NewLessonScheduleRepository(db),
		repository.NewScheduleEventRepository(db),
		repository.NewPeriodAssignmentRepository(db),
		repository.NewLessonRepository(db),
		db,
		cacheSvc,
		drafts,
		metrics,
		validator.New(),
		logr,
		service.LessonScheduleConfig{
			CacheTTL:             cfg.Planner.CacheTTL,
			Autosave:             cfg.Planner.Autosave,
			DefaultPeriodsPerDay: cfg.Planner.DefaultPeriodsPerDay,
			DefaultTeachingDays:  cfg.Planner.DefaultTeachingDays,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var autosave *jobs.Queue
	if cfg.Planner.Autosave {
		autosave = jobs.NewQueue("planner-autosave", planner.AutosaveHandler, jobs.QueueConfig{
			Workers: cfg.Planner.Workers,
			Logger:  logr,
		})
		autosave.Start(ctx)
		planner.UseAutosaveQueue(autosave)
	}

	exporter := service.NewExportService(planner, logr, export.NewCSVExporter(export.WithByteOrderMark()), export.NewPDFExporter())

	r := newRouter(cfg, logr, routeDeps{
		metrics:  metrics,
		tokens:   service.NewTokenVerifier(cfg.JWT.Secret, cfg.JWT.Issuer),
		planner:  handler.NewLessonScheduleHandler(planner, exporter),
		observer: handler.NewMetricsHandler(metrics, autosave),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("server shutdown failed", zap.Error(err))
	}
	autosave.Stop()
}
