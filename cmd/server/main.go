package main

import (
	"PropDesk/internal/adapters/backend"
	"PropDesk/internal/adapters/eventbus"
	"PropDesk/internal/adapters/httpapi"
	"PropDesk/internal/adapters/metrics"
	"PropDesk/internal/adapters/postgres"
	"PropDesk/internal/adapters/security"
	"PropDesk/internal/adapters/telegram"
	"PropDesk/internal/core/domain"
	"PropDesk/internal/core/ports"
	"PropDesk/internal/core/services/lifecycle"
	"PropDesk/internal/core/services/notify"
	"PropDesk/internal/core/services/reconcile"
	"PropDesk/internal/shared/config"
	"PropDesk/internal/shared/logger"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize Logger
	baseLogger := logger.New(cfg.IsDev(), cfg.LogLevel)
	baseLogger.Info().
		Str("app_env", cfg.AppEnv).
		Bool("bolt", cfg.Databases.BoltURL != "").
		Bool("old", cfg.Databases.OldURL != "").
		Bool("backend", cfg.Backend.URL != "").
		Bool("telegram", cfg.Telegram.Enabled()).
		Bool("sealing", cfg.EncryptionKey != "").
		Msg("Configuration loaded")

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Initialize the password sealer (optional)
	var sealer ports.SecretSealer
	keyBytes, err := cfg.EncryptionKeyBytes()
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to decode ENCRYPTION_KEY. It must be hex-encoded.")
	}
	if keyBytes != nil {
		sealer, err = security.NewAESSealer(keyBytes, &baseLogger)
		if err != nil {
			baseLogger.Fatal().Err(err).Msg("Failed to initialize password sealer")
		}
	}

	// 4. Initialize Metrics
	registry, err := metrics.New(metrics.Options{})
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// 5. Connect every configured source. PRIMARY is required; BOLT and OLD
	// stay unavailable when unset or unreachable.
	primaryDB, err := postgres.NewDB(ctx, domain.SourcePrimary, cfg.Databases.PrimaryURL, cfg.Databases.MaxConns, &baseLogger)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to initialize PRIMARY database")
	}
	defer primaryDB.Close()

	if cfg.IsDev() {
		if err := primaryDB.ApplySchema(ctx); err != nil {
			baseLogger.Fatal().Err(err).Msg("Failed to apply schema")
		}
	}

	dbs := []*postgres.DB{primaryDB}
	optional := []struct {
		name domain.Source
		url  string
	}{
		{domain.SourceBolt, cfg.Databases.BoltURL},
		{domain.SourceOld, cfg.Databases.OldURL},
	}
	for _, o := range optional {
		if o.url == "" {
			baseLogger.Info().Str("source", o.name.String()).Msg("Source not configured, running without it")
			continue
		}
		db, err := postgres.NewDB(ctx, o.name, o.url, cfg.Databases.MaxConns, &baseLogger)
		if err != nil {
			baseLogger.Error().Err(err).Str("source", o.name.String()).Msg("Source unreachable at startup, running without it")
			continue
		}
		defer db.Close()
		dbs = append(dbs, db)
	}

	// 6. Initialize Repositories, one Source per pool, in precedence order.
	// A source without a pool is kept so it is reported as unavailable.
	sources := make(ports.SourceSet, 0, len(domain.SourceOrder))
	checks := make(map[string]httpapi.Pinger, len(dbs))
	for _, name := range domain.SourceOrder {
		src := &ports.Source{Name: name}
		for _, db := range dbs {
			if db.Name() == name {
				src.Profiles = postgres.NewProfileRepository(db, &baseLogger)
				src.Challenges = postgres.NewChallengeRepository(db, sealer, &baseLogger)
				checks[name.String()] = db
			}
		}
		sources = append(sources, src)
	}
	authDir := postgres.NewAuthDirectory(primaryDB, &baseLogger)

	// 7. Initialize the event bus and notification subscriber
	bus := eventbus.NewInMemoryEventBus(&baseLogger)
	defer bus.Wait()

	var backendClient ports.Backend
	if cfg.Backend.URL != "" {
		backendClient = backend.NewClient(cfg.Backend.URL, cfg.Backend.APIKey, cfg.Backend.Timeout, &baseLogger)
	} else {
		baseLogger.Warn().Msg("BACKEND_URL not set, trader emails are disabled")
	}
	adminNotifier := newAdminNotifier(cfg, &baseLogger)
	notify.NewService(backendClient, adminNotifier, &baseLogger).Register(bus)

	// 8. Initialize Core Services
	reconciler := reconcile.NewService(sources, authDir, reconcile.Config{
		FetchTimeout: cfg.FetchTimeout,
		Policy:       reconcile.LastWriteWinsWholeRow,
	}, registry, &baseLogger)
	lifecycleSvc := lifecycle.NewService(sources, bus, registry, &baseLogger)

	baseLogger.Info().Int("sources", len(dbs)).Msg("All services initialized successfully")

	// 9. Start the HTTP API (blocks until SIGINT/SIGTERM)
	handler := httpapi.NewHandler(reconciler, lifecycleSvc, checks, &baseLogger)
	router := httpapi.NewRouter(handler, httpapi.RouterOptions{
		AdminToken:     cfg.AdminToken,
		Metrics:        registry,
		MetricsHandler: registry.Handler(),
	}, &baseLogger)

	if err := httpapi.NewServer(cfg.HTTPAddr, router, &baseLogger).Run(ctx); err != nil {
		baseLogger.Error().Err(err).Msg("HTTP server exited with error")
	}
	baseLogger.Info().Msg("Application stopped")
}

// newAdminNotifier connects the Telegram admin channel, or returns nil when
// it is not configured or the bot token is rejected.
func newAdminNotifier(cfg *config.Config, baseLogger *zerolog.Logger) ports.AdminNotifier {
	if !cfg.Telegram.Enabled() {
		return nil
	}
	api, err := telegram.NewBotAPI(cfg.Telegram.BotToken, baseLogger)
	if err != nil {
		baseLogger.Error().Err(err).Msg("Failed to connect Telegram bot, admin alerts are disabled")
		return nil
	}
	return telegram.NewAdminChannel(api, cfg.Telegram.AdminChatID, baseLogger)
}
