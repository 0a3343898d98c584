package main

import (
	"context"
	"github.com/Gish2003/mock-bank-app/internal/api"
	"github.com/Gish2003/mock-bank-app/internal/config"
	"github.com/Gish2003/mock-bank-app/internal/services/account"
	"github.com/Gish2003/mock-bank-app/internal/services/auth"
	"github.com/Gish2003/mock-bank-app/internal/services/transfer"
	"github.com/Gish2003/mock-bank-app/internal/storage/memory"
	"github.com/Gish2003/mock-bank-app/internal/storage/postgres"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

type ledgerStorage interface {
	auth.UserSaver
	auth.UserProvider
	account.AccountProvider
	transfer.Ledger
	Stop() error
}

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting application",
		slog.String("env", cfg.Env),
		slog.String("host", cfg.ApiHost),
		slog.Int("port", cfg.ApiPort),
		slog.String("storage", cfg.Storage),
	)

	storage, err := setupStorage(cfg)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := storage.Stop(); err != nil {
			log.Error("Failed to close storage", "error", err)
		}
	}()

	authService := auth.New(log, storage, storage, cfg.Auth)
	accountService := account.New(log, storage)
	transferService := transfer.New(log, storage)

	apiServer := api.New(cfg, log, authService, accountService, transferService)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		apiServer.MustStart()
	}()

	<-sigChan
	log.Info("Got signal to shutdown server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()
	if err := apiServer.Stop(ctx); err != nil {
		log.Error("Stopping server error", "error", err)
	}
}

func setupStorage(cfg *config.Config) (ledgerStorage, error) {
	if cfg.Storage == config.StorageMemory {
		return memory.New(), nil
	}

	storage, err := postgres.New(cfg.Postgres.DSN())
	if err != nil {
		return nil, err
	}
	return storage, nil
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}
	return log
}
