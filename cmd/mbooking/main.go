package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cupkappu/mbooking-sub001/internal/core/services"
	"github.com/cupkappu/mbooking-sub001/internal/platform/config"
	"github.com/cupkappu/mbooking-sub001/internal/platform/logger"
	"github.com/cupkappu/mbooking-sub001/internal/repositories/database/pgsql"
	"github.com/cupkappu/mbooking-sub001/pkg/database"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(os.Stdout, cfg.IsProduction, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		log.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)

	log.Info("Running database migrations...", slog.String("source", cfg.MigrationsPath))
	applied, err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath)
	if err != nil {
		log.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if applied {
		log.Info("Database migrations applied successfully.")
	} else {
		log.Info("No new migrations to apply.")
	}

	repos := pgsql.NewRepositoryProvider(dbPool, cfg.AccountPathSeparator)
	container := services.NewServiceContainer(cfg, repos)
	if container.Account == nil || container.Journal == nil || container.Budget == nil {
		log.Error("Service container is incomplete")
		os.Exit(1)
	}

	log.Info("Ledger core ready",
		slog.String("path_separator", cfg.AccountPathSeparator),
		slog.Duration("rate_cache_ttl", cfg.RateCacheTTL),
		slog.Int("default_page_size", cfg.DefaultPageSize),
	)

	<-ctx.Done()
	log.Info("Shutting down")
}
