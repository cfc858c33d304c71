package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/avollmer/stammdaten/internal/config"
	"github.com/avollmer/stammdaten/internal/logging"
	_ "github.com/avollmer/stammdaten/internal/schema" // Register entities
	"github.com/avollmer/stammdaten/internal/store"
	"github.com/avollmer/stammdaten/internal/store/memstore"
	"github.com/avollmer/stammdaten/internal/store/pbrest"
	"github.com/avollmer/stammdaten/internal/store/postgres"
	"github.com/avollmer/stammdaten/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"backend", cfg.Store.Backend,
		"import_max_file_size", cfg.Import.MaxFileSize,
	)

	ctx := context.Background()
	st, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	server := web.NewServer(st, web.Options{
		MaxImportSize:  cfg.Import.MaxFileSize,
		ImportTimeout:  cfg.Import.Timeout,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(cfg.Server.Addr(), cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

// openStore builds the configured store backend. The returned cleanup
// closes whatever the backend holds open.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case "postgres":
		poolConfig, err := pgxpool.ParseConfig(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse database URL: %w", err)
		}
		poolConfig.MaxConns = int32(cfg.Store.MaxConns)
		poolConfig.MinConns = int32(cfg.Store.MinConns)

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("connect: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping: %w", err)
		}
		if u, err := url.Parse(cfg.Store.DatabaseURL); err == nil {
			slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
		}
		st := postgres.New(pool, postgres.WithAutoIncrement("members", "identification"))
		return st, pool.Close, nil

	case "pocketbase":
		st := pbrest.New(cfg.Store.PocketBaseURL,
			pbrest.WithAuthToken(cfg.Store.PocketBaseToken),
			pbrest.WithAutoIncrement("members", "identification"),
		)
		slog.Info("using REST backend", "url", cfg.Store.PocketBaseURL)
		return st, func() {}, nil

	case "memory":
		st := memstore.New(memstore.WithAutoIncrement("members", "identification"))
		slog.Info("using in-memory store")
		return st, func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
