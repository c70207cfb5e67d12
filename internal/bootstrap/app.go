// Package bootstrap handles application initialization and lifecycle
// management for the storefront admin service.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/storefront-admin/internal/api"
	"github.com/jonesrussell/storefront-admin/internal/auth"
	"github.com/jonesrussell/storefront-admin/internal/cdn"
	"github.com/jonesrussell/storefront-admin/internal/config"
	"github.com/jonesrussell/storefront-admin/internal/database"
	"github.com/jonesrussell/storefront-admin/internal/images"
	"github.com/jonesrussell/storefront-admin/internal/logger"
	"github.com/jonesrussell/storefront-admin/internal/metrics"
	"github.com/jonesrussell/storefront-admin/internal/search"
	"github.com/jonesrussell/storefront-admin/internal/session"
)

// Start initializes and runs the admin service until interrupted.
func Start() error {
	// Phase 1: Load config and create logger
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Development: cfg.Debug})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting storefront admin service",
		logger.String("version", api.Version),
		logger.String("host", cfg.Server.Host),
		logger.Int("port", cfg.Server.Port),
	)

	// Phase 2: Wire integrations. Each one is optional; a missing bundle
	// degrades its endpoints instead of failing startup.
	opts := api.HandlerOptions{
		Log:     log,
		Metrics: metrics.New(),
		Config:  cfg,
	}

	var db *sqlx.DB
	if cfg.Database != nil {
		db, err = database.Connect(cfg.Database)
		if err != nil {
			// Startup proceeds; the connectivity endpoint reports the
			// classified failure on demand.
			log.Error("Database connection failed", logger.Error(err))
		}
	}
	if db != nil {
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				log.Error("Failed to close database connection", logger.Error(closeErr))
			}
		}()
		opts.DB = db
		opts.Products = database.NewProductStore(db, log)
		opts.Posts = database.NewPostStore(db, log)
		log.Info("Database connection established")
	} else {
		log.Warn("Database not configured; content endpoints degraded")
	}

	if cfg.Purge != nil {
		opts.Purge = cdn.NewClient(cfg.Purge, cdn.NewBatchStore(), log)
		log.Info("Cache purge client initialized")
	} else {
		log.Warn("Cache purging not configured")
	}

	if cfg.Images != nil {
		opts.Images = images.NewClient(cfg.Images, log)
	}

	if cfg.Search != nil {
		searchClient, searchErr := search.NewClient(cfg.Search, log)
		if searchErr != nil {
			log.Error("Search client initialization failed", logger.Error(searchErr))
		} else {
			opts.Search = searchClient
		}
	}

	// Phase 3: Auth plumbing. Without admin credentials the API answers
	// everything with missing_env, which is still worth serving: /health
	// and /metrics stay useful.
	var (
		codec  *session.Codec
		tokens *auth.TokenManager
	)
	if cfg.Admin != nil {
		codec = session.NewCodec(cfg.Admin.SessionSecret)
		tokens = auth.NewTokenManager(cfg.Admin.SessionSecret, api.AutomationTokenTTL)
	} else {
		codec = session.NewCodec("")
		tokens = auth.NewTokenManager("", api.AutomationTokenTTL)
		log.Warn("Admin credentials not configured; API access disabled")
	}
	opts.Tokens = tokens

	// Phase 4: Assemble and run the HTTP server
	handler := api.NewHandler(opts)
	router := api.NewRouter(handler, opts.Metrics, log, codec, tokens)
	server := api.NewServer(&cfg.Server, router, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		return err
	}

	log.Info("Storefront admin service stopped")
	return nil
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "config.yml"
}
