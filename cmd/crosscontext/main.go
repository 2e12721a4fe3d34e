package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/crosscontext/crosscontext-backend/internal/api/rest"
	"github.com/crosscontext/crosscontext-backend/internal/connectors"
	"github.com/crosscontext/crosscontext-backend/internal/domain/access"
	"github.com/crosscontext/crosscontext-backend/internal/domain/classification"
	"github.com/crosscontext/crosscontext-backend/internal/domain/redaction"
	"github.com/crosscontext/crosscontext-backend/internal/infrastructure/auditstore"
	"github.com/crosscontext/crosscontext-backend/internal/infrastructure/config"
	"github.com/crosscontext/crosscontext-backend/internal/infrastructure/telemetry"
	"github.com/crosscontext/crosscontext-backend/internal/metrics"
	consentsvc "github.com/crosscontext/crosscontext-backend/internal/service/consent"
	"github.com/crosscontext/crosscontext-backend/internal/service/mediation"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("service exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Rule tables were validated at load time; these cannot fail now except
	// on a programming error.
	classifier, err := classification.NewClassifier(cfg.Classification)
	if err != nil {
		return err
	}
	controller, err := access.NewController(cfg.Clearance)
	if err != nil {
		return err
	}

	store, err := auditstore.NewStore(cfg.Audit.Path, logger.Named("auditstore"))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	m := metrics.New()
	coordinator := consentsvc.NewCoordinator(logger.Named("consent"), cfg.Consent.Timeout)
	go coordinator.RunSweeper(ctx, cfg.Consent.SweepInterval)

	svc := mediation.NewService(logger.Named("mediation"), classifier, redaction.NewRedactor(),
		controller, coordinator, store, m, cfg.Redaction.PreserveContactSources)
	for sourceType, connector := range connectors.All() {
		svc.RegisterSource(sourceType, connector)
	}

	handlers := rest.NewHandlers(logger.Named("api"), svc, coordinator, store, cfg.Version)
	server := rest.NewServer(cfg, logger.Named("http"), handlers, m)

	logger.Info("crosscontext mediation backend starting",
		zap.String("version", cfg.Version),
		zap.String("environment", cfg.Environment),
		zap.Int("port", cfg.Server.Port),
		zap.String("audit_log", cfg.Audit.Path),
	)
	return server.Run(ctx)
}
