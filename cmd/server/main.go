package main

import (
	"fmt"
	"log"

	"go.uber.org/zap"

	"github.com/scancart/backend/config"
	httpDelivery "github.com/scancart/backend/internal/delivery/http"
	"github.com/scancart/backend/internal/domain"
	"github.com/scancart/backend/internal/infrastructure/cache"
	"github.com/scancart/backend/internal/infrastructure/openfoodfacts"
	"github.com/scancart/backend/internal/infrastructure/persistence"
	"github.com/scancart/backend/internal/logging"
	"github.com/scancart/backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Server.Environment, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting scancart backend",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("catalog", cfg.Catalog.BaseURL))

	productCache := cache.NewLRUCache(cfg.Cache.Capacity)

	catalogClient := openfoodfacts.NewClient(openfoodfacts.ClientConfig{
		BaseURL:           cfg.Catalog.BaseURL,
		UserAgent:         cfg.Catalog.UserAgent,
		Username:          cfg.Catalog.Username,
		Password:          cfg.Catalog.Password,
		RequestsPerMinute: cfg.Catalog.RequestsPerMinute,
	}, logger)

	var gateway domain.PersistenceGateway
	if cfg.Persistence.Endpoint != "" {
		gateway = persistence.NewWebhookGateway(cfg.Persistence.Endpoint, logger)
	} else {
		logger.Warn("no persistence endpoint configured, results will only be logged")
		gateway = persistence.NewLogGateway(logger)
	}

	catalogSync := usecase.NewCatalogSync(catalogClient, cfg.Sync.Enabled, cfg.Sync.Timeout, logger)
	defer catalogSync.Wait()

	sessions := usecase.NewSessionManager(usecase.WorkflowDeps{
		Lookup:  usecase.NewLookupService(productCache, catalogClient, logger),
		Sync:    catalogSync,
		Gateway: gateway,
		Scanner: usecase.NewScannerGate(),
		Log:     logger,
	})

	handler := httpDelivery.NewHandler(sessions, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("server listening", zap.String("addr", addr))

	if err := router.Run(addr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
