package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/stockfolio/stockfolio/params"
	"github.com/stockfolio/stockfolio/pkg/api"
	"github.com/stockfolio/stockfolio/pkg/auth"
	"github.com/stockfolio/stockfolio/pkg/portfolio"
	"github.com/stockfolio/stockfolio/pkg/storage"
	"github.com/stockfolio/stockfolio/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLoggerWithFile(cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.LogFile)

	// ---- Storage ----
	store, err := storage.Open(cfg.Store.Path)
	if err != nil {
		sugar.Fatalw("store_open_failed", "path", cfg.Store.Path, "err", err)
	}
	defer store.Close()
	sugar.Infow("store_opened", "path", cfg.Store.Path)

	if cfg.Store.SeedDemo {
		if err := store.SeedDemoPositions(); err != nil {
			sugar.Fatalw("seed_positions_failed", "err", err)
		}
	}

	// ---- Collaborators ----
	proc := portfolio.NewProcessor(store, store)
	authMgr := auth.NewManager(store, store, cfg.Session.TTL)

	// ---- API server ----
	server := api.NewServer(proc, store, authMgr, cfg, sugar)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.HTTP.Addr)
	}()

	sugar.Infow("server_started",
		"addr", cfg.HTTP.Addr,
		"allowed_origins", cfg.HTTP.AllowedOrigins,
		"session_ttl", cfg.Session.TTL)

	select {
	case <-ctx.Done():
		sugar.Info("shutdown_signal_received")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("server_failed", "err", err)
		}
	}
}
