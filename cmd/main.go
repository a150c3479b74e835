package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payment-config/internal/api"
	"github.com/akylbek/payment-system/payment-config/internal/config"
	"github.com/akylbek/payment-system/payment-config/internal/events"
	"github.com/akylbek/payment-system/payment-config/internal/handlers"
	"github.com/akylbek/payment-system/payment-config/internal/interfaces"
	"github.com/akylbek/payment-system/payment-config/internal/repository"
	"github.com/akylbek/payment-system/payment-config/internal/service"
	"github.com/akylbek/payment-system/payment-config/internal/telemetry"
)

type repositories struct {
	sets         interfaces.PaymentSetRepository
	displayLogs  interfaces.DisplayLogRepository
	transactions interfaces.TransactionRepository
	templates    interfaces.TemplateRepository
	close        func() error
}

func openRepositories(cfg *config.Config) (*repositories, error) {
	switch cfg.StorageDriver {
	case "postgres":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := repository.InitDB(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("initialize database: %w", err)
		}
		return &repositories{
			sets:         repository.NewPostgresPaymentSetRepository(db),
			displayLogs:  repository.NewPostgresDisplayLogRepository(db),
			transactions: repository.NewPostgresTransactionRepository(db),
			templates:    repository.NewPostgresTemplateRepository(db),
			close:        db.Close,
		}, nil
	case "file":
		fs, err := repository.NewFileStorage(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return &repositories{
			sets:         fs.Sets,
			displayLogs:  fs.DisplayLogs,
			transactions: fs.Transactions,
			templates:    fs.Templates,
			close:        func() error { return nil },
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func main() {
	envErr := config.LoadEnv()
	cfg := config.Load()

	if err := telemetry.InitTelemetry("payment-config", cfg.JaegerEndpoint, cfg.LogFile); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	if envErr != nil {
		telemetry.Logger.Debug("No .env file loaded", zap.Error(envErr))
	}

	telemetry.Logger.Info("Starting Payment Config service", zap.String("storage", cfg.StorageDriver))

	repos, err := openRepositories(cfg)
	if err != nil {
		telemetry.Logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer repos.close()

	var (
		dedup       interfaces.DedupCache
		redisClient *redis.Client
	)
	if cfg.RedisURL != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.RedisURL,
		})
		defer redisClient.Close()
		dedup = service.NewRedisDedupCache(redisClient)
	} else {
		dedup = service.NewMemoryDedupCache(nil)
	}

	publisher, err := events.New(cfg.EventsBackend, cfg.KafkaBrokers, cfg.NatsURL)
	if err != nil {
		telemetry.Logger.Fatal("Failed to set up event publisher", zap.Error(err))
	}
	defer publisher.Close()

	store := service.NewConfigStore(repos.sets, publisher, nil)
	resolver := service.NewResolver(store)
	displayLogger := service.NewDisplayLogger(repos.displayLogs, dedup, cfg.DisplayLogLimit, nil)
	ledger := service.NewLedger(repos.transactions, publisher, nil)
	templates := service.NewTemplates(repos.templates, store, cfg.TemplateRetention, nil)

	paymentHandler := handlers.NewPaymentHandler(resolver, displayLogger, ledger, nil)
	adminHandler := handlers.NewAdminHandler(store, resolver, displayLogger, templates, ledger, nil)

	submitLimit, err := api.SubmissionLimiter(cfg.SubmitRateLimit, redisClient)
	if err != nil {
		telemetry.Logger.Fatal("Failed to set up rate limiting", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.NewRouter(paymentHandler, adminHandler, submitLimit),
	}

	go func() {
		telemetry.Logger.Info("Payment Config service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	telemetry.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	telemetry.Logger.Info("Server exited")
}
