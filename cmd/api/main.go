package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/aastu-platform/facility-reports/internal/api/http"
	"github.com/aastu-platform/facility-reports/internal/api/http/handlers"
	"github.com/aastu-platform/facility-reports/internal/auth"
	"github.com/aastu-platform/facility-reports/internal/config"
	"github.com/aastu-platform/facility-reports/internal/duplicate"
	"github.com/aastu-platform/facility-reports/internal/events"
	"github.com/aastu-platform/facility-reports/internal/observability"
	"github.com/aastu-platform/facility-reports/internal/persistence"
	"github.com/aastu-platform/facility-reports/internal/repository"
	"github.com/aastu-platform/facility-reports/internal/scheduler"
	"github.com/aastu-platform/facility-reports/internal/service"
	"github.com/aastu-platform/facility-reports/internal/sla"
	"github.com/aastu-platform/facility-reports/internal/ticketcode"
	"github.com/aastu-platform/facility-reports/internal/worker"
	"github.com/aastu-platform/facility-reports/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	reportRepo := repository.NewReportRepository(pool)
	historyRepo := repository.NewReportHistoryRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	notificationService := service.NewNotificationService(notificationRepo, dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	policy := sla.NewPolicy(cfg.SLA.Durations())
	reportService := service.NewReportService(service.ReportDependencies{
		ReportRepo:  reportRepo,
		HistoryRepo: historyRepo,
		UserRepo:    userRepo,
		Engine:      workflow.NewEngine(),
		Detector: duplicate.NewDetector(duplicate.Config{
			SimilarityThreshold:  cfg.Duplicate.SimilarityThreshold,
			TimeWindowDays:       cfg.Duplicate.TimeWindowDays,
			MaxCandidatesChecked: cfg.Duplicate.MaxCandidatesChecked,
		}),
		Policy:     policy,
		Codes:      ticketcode.NewGenerator(redis.Client, logger),
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})

	complianceService := service.NewComplianceService(service.ComplianceDependencies{
		ReportRepo:         reportRepo,
		NotificationRepo:   notificationRepo,
		Policy:             policy,
		Dispatcher:         dispatcher,
		Metrics:            metrics,
		Logger:             logger,
		NotificationMaxAge: cfg.Scheduler.NotificationMaxAge,
	})

	jobs := scheduler.New(logger)
	if cfg.Scheduler.Enabled {
		if err := jobs.Register("sla-scan", cfg.Scheduler.SLAScanInterval, complianceService.ScanSLA); err != nil {
			logger.Fatal("failed to register sla scan", zap.Error(err))
		}
		if err := jobs.Register("notification-sweep", cfg.Scheduler.RetentionSweepInterval, complianceService.PurgeNotifications); err != nil {
			logger.Fatal("failed to register notification sweep", zap.Error(err))
		}
		jobs.Start(ctx)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, 0)
	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)

	app := fiber.New(fiber.Config{DisableStartupMessage: cfg.App.Env == "production"})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Reports:        handlers.NewReportsHandler(reportService),
		Workflow:       handlers.NewWorkflowHandler(reportService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	jobs.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
