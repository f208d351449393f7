// Command migrate applies pending database migrations and exits.
//
// The DSN is taken from DATABASE_DSN; when it is unset the full
// configuration is loaded instead.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/memorycare-backend/internal/adapter/postgres"
	"github.com/heartmarshall/memorycare-backend/internal/app"
	"github.com/heartmarshall/memorycare-backend/internal/config"
)

func main() {
	logCfg := config.LogConfig{Level: "info", Format: "json"}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		dsn = cfg.Database.DSN
		logCfg = cfg.Log
	}

	logger := app.NewLogger(logCfg)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	version, err := postgres.Migrate(ctx, dsn)
	if err != nil {
		logger.Error("migration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("migrations applied", slog.Int64("version", version))
}
