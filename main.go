package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"p9e.in/workorders/config"
	"p9e.in/workorders/handlers"
	"p9e.in/workorders/middleware"
	"p9e.in/workorders/pkg/geocode"
	"p9e.in/workorders/pkg/metrics"
	"p9e.in/workorders/pkg/storage"
	"p9e.in/workorders/routes"
)

var (
	Version   = "dev"
	BuildTime = ""
)

func main() {
	if err := rootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "workorders",
		Short:        "Work order (radni nalog) service",
		SilenceUsage: true,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run migrations and start the HTTP API",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, db, _, err := setup()
				if err != nil {
					return err
				}
				return config.Migrations(db)
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Create the first admin account and default settings",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, db, log, err := setup()
				if err != nil {
					return err
				}
				if err := config.Migrations(db); err != nil {
					return err
				}
				return config.Seed(cmd.Context(), db, cfg.Seed, cfg.Auth.BcryptCost, log)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version info",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Version:   %s\n", Version)
				fmt.Fprintf(cmd.OutOrStdout(), "BuildTime: %s\n", BuildTime)
			},
		},
	)
	return root
}

func setup() (*config.Config, *gorm.DB, *slog.Logger, error) {
	cfg := config.Load()
	log := config.NewLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	db, err := config.Connect(cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, db, log, nil
}

func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, func() error, error) {
	switch cfg.Backend {
	case "gcs":
		g, err := storage.NewGCS(ctx, cfg.GCSBucket, cfg.GCSCredentials)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	default:
		l, err := storage.NewLocal(cfg.LocalDir, cfg.URLPrefix)
		if err != nil {
			return nil, nil, err
		}
		return l, func() error { return nil }, nil
	}
}

func serve(ctx context.Context) error {
	cfg, db, log, err := setup()
	if err != nil {
		return err
	}
	if err := config.Migrations(db); err != nil {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := metrics.New()
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	sessions := middleware.NewSessions(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	deps := handlers.Deps{
		DB:             db,
		Sessions:       sessions,
		Store:          store,
		FontDir:        cfg.PDF.FontDir,
		Metrics:        m,
		Logger:         log,
		BcryptCost:     cfg.Auth.BcryptCost,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
	}
	if cfg.Geocoding.Enabled {
		deps.Geocoder = geocode.New(geocode.Options{
			Endpoint:          cfg.Geocoding.Endpoint,
			UserAgent:         cfg.Geocoding.UserAgent,
			Timeout:           cfg.Geocoding.Timeout,
			RequestsPerSecond: cfg.Geocoding.RequestsPerSecond,
			CacheTTL:          cfg.Geocoding.CacheTTL,
			Logger:            log,
			Metrics:           m,
		})
	}

	proxies, err := middleware.ParseTrustedProxies(cfg.RateLimit.TrustedProxies)
	if err != nil {
		return err
	}
	opts := routes.Options{
		Handler:     handlers.New(deps),
		Sessions:    sessions,
		Metrics:     m,
		Logger:      log,
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window).TrustProxies(proxies),
		CORSOrigins: cfg.CORS.AllowedOrigins,
	}
	if cfg.Storage.Backend == "local" {
		opts.UploadDir = cfg.Storage.LocalDir
		opts.UploadURLPrefix = cfg.Storage.URLPrefix
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           routes.RegisterRoutes(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", srv.Addr, "version", Version, "storage", cfg.Storage.Backend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	return nil
}
