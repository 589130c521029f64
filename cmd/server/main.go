package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"inspection-service/internal/cache"
	"inspection-service/internal/classifier"
	"inspection-service/internal/config"
	"inspection-service/internal/detector"
	"inspection-service/internal/handler"
	"inspection-service/internal/ml_client"
	"inspection-service/internal/models"
	"inspection-service/internal/notifier"
	"inspection-service/internal/repository"
	"inspection-service/internal/server"
	"inspection-service/internal/service"
)

func main() {
	configPath := flag.String("config", "configs/config.yml", "path to the YAML config file")
	flag.Parse()

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Log.Development || cfg.Server.Mode != "release" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting inspection service...", zap.String("database_driver", cfg.Database.Driver))

	// Alert store
	var repo repository.AlertRepository
	if cfg.Database.Driver == "memory" {
		logger.Warn("Using in-memory alert store; alerts are lost on restart")
		repo = repository.NewMemoryAlertRepository()
	} else {
		db, err := repository.Open(cfg.Database.Driver, cfg.Database.URL, cfg.Database.Migrations, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		repo = repository.NewAlertRepository(db, logger)
	}

	// Stats cache: Redis when configured, process memory otherwise
	var statsCache cache.Cache
	if cfg.Cache.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(context.Background(), cfg.Cache.RedisURL, "inspection:")
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		statsCache = redisCache
		logger.Info("Stats cache backed by Redis")
	} else {
		statsCache = cache.NewMemoryCache()
	}
	defer statsCache.Close()

	// Spam model
	var spamModel service.SpamModel
	var modelState handler.BreakerState
	if cfg.MLService.Enabled {
		mlClient := ml_client.NewClient(cfg.MLService.URL, ml_client.Options{
			Timeout:        cfg.MLService.Timeout,
			RequestsPerSec: cfg.MLService.RequestsPerSec,
			Burst:          cfg.MLService.Burst,
		}, logger)
		spamModel = mlClient
		modelState = mlClient

		if health, err := mlClient.HealthCheck(context.Background()); err != nil {
			logger.Warn("Spam model service is not reachable yet; falling back to indicators until it is", zap.Error(err))
		} else {
			logger.Info("Spam model service is healthy", zap.String("status", health.Status), zap.Bool("model_loaded", health.ModelLoaded))
		}
	} else {
		logger.Info("Spam model disabled; spam scoring uses indicators only")
	}

	// Operator notifier
	operatorNotifier, err := notifier.NewTelegramNotifier(cfg.Notifier.Enabled, cfg.Notifier.TelegramBotToken, cfg.Notifier.ChatID, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Telegram notifier", zap.Error(err))
	}

	// Services
	versions := service.NewStatsVersions(statsCache, logger)
	inspector := service.NewInspector(
		classifier.NewClassifier(detector.NewSet(), cfg.Classifier.MaxTextBytes),
		repo,
		spamModel,
		operatorNotifier,
		versions,
		service.InspectorConfig{
			ModelTimeout:   cfg.MLService.Timeout,
			NotifyMinLevel: models.RiskLevel(cfg.Notifier.MinRiskLevel),
		},
		logger,
	)
	alertService := service.NewAlertService(repo, versions, logger)
	statsService := service.NewStatsService(repo, statsCache, versions, cfg.Stats.CacheTTL, logger)

	srv := server.NewServer(fmt.Sprintf(":%s", cfg.Server.Port), server.Handlers{
		Classify: handler.NewClassifyHandler(inspector, logger),
		Alerts:   handler.NewAlertHandler(alertService, logger),
		Stats:    handler.NewStatsHandler(statsService, logger),
		Health:   handler.NewHealthHandler(repo, modelState, logger),
	}, server.Options{
		Mode:           cfg.Server.Mode,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		JWTSecret:      cfg.Auth.JWTSecret,
	}, logger)

	go func() {
		if err := srv.Run(); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Inspection service is running", zap.String("port", cfg.Server.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
