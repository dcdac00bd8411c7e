package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"paytrack/internal/analysis"
	"paytrack/internal/cloudsync"
	"paytrack/internal/config"
	"paytrack/internal/database"
	"paytrack/internal/handlers"
	"paytrack/internal/logger"
	"paytrack/internal/middleware"
	"paytrack/internal/notify"
	"paytrack/internal/repository"
	"paytrack/internal/router"
	"paytrack/internal/services"
	"paytrack/internal/validator"

	_ "paytrack/internal/docs" // Import swagger docs
)

// @title           Paytrack API
// @version         1.0
// @description     Paytrack tracks bills, loans, credit cards and subscriptions, moves due dates off weekends and schedules the next occurrence when a payment is confirmed.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig(appConfig)
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	// Repositories and services
	db := dbManager.DB()
	paymentRepo := repository.NewPaymentRepository(db)
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	paymentService := services.NewPaymentService(paymentRepo, appConfig.Timezone)
	analysisService := analysis.NewService(analysis.NewRuleAnalyzer(), appConfig.AnalysisCacheTTL, appConfig.Timezone)

	var syncService *cloudsync.Service
	var syncer handlers.Syncer
	if appConfig.SyncDir != "" {
		transport, err := cloudsync.NewFileTransport(appConfig.SyncDir)
		if err != nil {
			return fmt.Errorf("failed to open sync directory: %w", err)
		}
		syncService = cloudsync.NewService(paymentRepo, transport)
		syncer = syncService
	} else {
		log.Info("SYNC_DIR not set, cloud sync disabled")
	}

	watcher := notify.NewWatcher(notify.Config{
		ReminderHour: appConfig.ReminderHour,
		PollInterval: appConfig.ReminderPollInterval,
		Location:     appConfig.Timezone,
	}, paymentRepo, notify.LogNotifier{})

	// Handlers and routes
	engine := router.New(router.Handlers{
		Auth:     handlers.NewAuthHandler(userService, auditService),
		Payment:  handlers.NewPaymentHandler(paymentService, auditService),
		Analysis: handlers.NewAnalysisHandler(paymentService, analysisService),
		Sync:     handlers.NewSyncHandler(syncer, auditService),
		Pipeline: handlers.NewPipelineHandler(paymentService, paymentRepo),
	}, router.Options{
		PipelineAPIKey:  appConfig.PipelineAPIKey,
		AnalysisLimiter: middleware.NewRateLimiter(appConfig.AnalysisRatePerMin),
		RequestLogging:  true,
		Swagger:         appConfig.Env != "production",
	})

	server := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Starting Paytrack server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return ignoreCanceled(watcher.Start(gctx))
	})
	if syncService != nil {
		g.Go(func() error {
			return ignoreCanceled(syncService.Run(gctx))
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
