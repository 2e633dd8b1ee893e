package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/mail"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/bps-routine/api/swagger"
	"github.com/noah-isme/bps-routine/internal/handler"
	internalmiddleware "github.com/noah-isme/bps-routine/internal/middleware"
	"github.com/noah-isme/bps-routine/internal/notify"
	"github.com/noah-isme/bps-routine/internal/repository"
	"github.com/noah-isme/bps-routine/internal/service"
	"github.com/noah-isme/bps-routine/pkg/cache"
	"github.com/noah-isme/bps-routine/pkg/config"
	"github.com/noah-isme/bps-routine/pkg/database"
	"github.com/noah-isme/bps-routine/pkg/export"
	"github.com/noah-isme/bps-routine/pkg/jobs"
	"github.com/noah-isme/bps-routine/pkg/logger"
	corsmiddleware "github.com/noah-isme/bps-routine/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/bps-routine/pkg/middleware/requestid"
	"github.com/noah-isme/bps-routine/pkg/storage"
)

// @title BPS Routine API
// @version 1.0.0
// @description Timetable lookups, leave records and substitute planning for a school day.
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	// Queues run on their own context so shutdown can drain them after the server stops.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck
	if cfg.Database.AutoMigrate {
		if err := database.EnsureSchema(ctx, db); err != nil {
			logr.Fatal("failed to prepare schema", zap.Error(err))
		}
	}

	var redisClient redis.UniversalClient
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, resolver cache disabled", zap.Error(err))
		} else {
			redisClient = client
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Routine.CacheTTL, logr, redisClient != nil)

	rosterSvc := service.NewRosterService(repository.NewTeacherRepository(db), logr)
	rosterFile := cfg.Routine.RosterFile
	if _, statErr := os.Stat(rosterFile); rosterFile != "" && statErr != nil {
		logr.Warn("roster file not found, loading teachers from database", zap.String("path", rosterFile))
		rosterFile = ""
	}
	if err := rosterSvc.Load(ctx, rosterFile); err != nil {
		logr.Fatal("failed to load roster", zap.Error(err))
	}
	school := cfg.Notifications.SchoolName
	if school == "" {
		school = rosterSvc.School()
	}

	timetableSvc := service.NewTimetableService(repository.NewScheduleRepository(db), rosterSvc, cacheSvc, metricsSvc, cfg.Routine.MaxImportBytes, logr)
	if _, err := timetableSvc.Current(ctx); err != nil {
		logr.Warn("no timetable loaded yet", zap.Error(err))
	}

	notificationSvc := service.NewNotificationService(newSender(cfg.Notifications, logr), school, logr)
	noticeQueue := jobs.NewQueue("duty-notices", notificationSvc.Handle, jobs.QueueConfig{
		Workers:    1,
		BufferSize: cfg.Notifications.QueueSize,
		MaxRetries: cfg.Notifications.WorkerRetries,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	})
	noticeQueue.Start(context.Background())

	leaveSvc := service.NewLeaveService(repository.NewAbsenceRepository(db), rosterSvc, timetableSvc, cacheSvc, noticeQueue, validate, logr)
	routineSvc := service.NewRoutineService(rosterSvc, timetableSvc, leaveSvc, cacheSvc, metricsSvc, validate, logr, service.RoutineConfig{
		Location: cfg.Routine.Location(),
		CacheTTL: cfg.Routine.CacheTTL,
	})

	var exportHandler *handler.ExportHandler
	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("failed to prepare export storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc := service.NewExportService(routineSvc, fileStore, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.SignedURLTTL,
			School:    school,
		}, logr, export.NewCSVExporter(), export.NewPDFExporter())

		exportJobRepo := repository.NewExportJobRepository(db)
		worker := service.NewExportWorker(exportJobRepo, exportSvc, cfg.Exports.WorkerRetries, logr)
		exportQueue = jobs.NewQueue("duty-sheets", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		exportQueue.Start(context.Background())

		exportJobSvc := service.NewExportJobService(exportJobRepo, exportQueue, exportSvc, logr, service.ExportJobConfig{
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
			Location:        cfg.Routine.Location(),
		})
		exportJobSvc.RecoverPendingJobs(ctx)
		exportJobSvc.StartCleanup(ctx)
		exportHandler = handler.NewExportHandler(exportJobSvc)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	timetableLoaded := func(ctx context.Context) error {
		_, err := timetableSvc.Current(ctx)
		return err
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.ReadinessProbe{
		"database":  db.PingContext,
		"redis":     cacheRepo.Ping,
		"timetable": timetableLoaded,
	})
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	registerRoutes(api, routeHandlers{
		roster:    handler.NewRosterHandler(rosterSvc),
		timetable: handler.NewTimetableHandler(timetableSvc),
		absences:  handler.NewAbsenceHandler(leaveSvc),
		routine:   handler.NewRoutineHandler(routineSvc),
		exports:   exportHandler,
		metrics:   metricsHandler,
	}, cfg.Routine.MaxImportBytes)

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
		logr.Error("server shutdown failed", zap.Error(err))
	}
	shutdownQueue(shutdownCtx, noticeQueue, logr)
	if exportQueue != nil {
		shutdownQueue(shutdownCtx, exportQueue, logr)
	}
}

type routeHandlers struct {
	roster    *handler.RosterHandler
	timetable *handler.TimetableHandler
	absences  *handler.AbsenceHandler
	routine   *handler.RoutineHandler
	exports   *handler.ExportHandler
	metrics   *handler.MetricsHandler
}

func registerRoutes(api *gin.RouterGroup, h routeHandlers, maxUpload int64) {
	upload := internalmiddleware.BodyLimit(maxUpload + 1<<20)

	api.GET("/teachers", h.roster.List)
	api.GET("/teachers/:code", h.roster.Get)

	timetable := api.Group("/timetable")
	timetable.GET("", h.timetable.ScheduledFor)
	timetable.GET("/busy", h.timetable.BusyAt)
	timetable.GET("/revision", h.timetable.Revision)
	timetable.POST("/import", upload, h.timetable.Import)

	absences := api.Group("/absences")
	absences.GET("", h.absences.List)
	absences.POST("", h.absences.Record)
	absences.POST("/import", upload, h.absences.Import)

	routine := api.Group("/routine")
	routine.GET("/current", h.routine.Current)
	routine.GET("/plan", h.routine.Plan)
	routine.GET("/overview", h.routine.Overview)

	if h.exports != nil {
		exports := api.Group("/exports")
		exports.POST("", h.exports.Create)
		exports.GET("/download", h.exports.Download)
		exports.GET("/:id", h.exports.Status)
	}

	api.GET("/metrics/summary", h.metrics.Summary)
}

func newSender(cfg config.NotificationsConfig, logr *zap.Logger) notify.Sender {
	if !cfg.Enabled || cfg.SendGridAPIKey == "" {
		return notify.NewLogSender(logr)
	}
	from := mail.Address{Name: cfg.FromName, Address: cfg.FromAddress}
	return notify.NewSendGridSender(cfg.SendGridAPIKey, "", from, cfg.SchoolName)
}

func shutdownQueue(ctx context.Context, q *jobs.Queue, logr *zap.Logger) {
	if err := q.Drain(ctx); err != nil {
		logr.Warn("job queue did not drain", zap.String("queue", q.Name()), zap.Error(err))
	}
	q.Stop()
}
