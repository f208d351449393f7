// Command release-image returns a reference image to the free pool. It is
// the operator escape hatch for images reserved by a session that no
// longer references them; images still linked to a session are refused.
//
// Usage:
//
//	release-image --image=<uuid> --actor=<admin profile uuid>
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/adapter/postgres"
	"github.com/heartmarshall/memorycare-backend/internal/adapter/postgres/audit"
	"github.com/heartmarshall/memorycare-backend/internal/adapter/postgres/image"
	"github.com/heartmarshall/memorycare-backend/internal/app"
	"github.com/heartmarshall/memorycare-backend/internal/config"
	"github.com/heartmarshall/memorycare-backend/internal/domain"
	"github.com/heartmarshall/memorycare-backend/internal/service/imagepool"
	"github.com/heartmarshall/memorycare-backend/pkg/ctxutil"
)

func main() {
	imageFlag := flag.String("image", "", "id of the image to release")
	actorFlag := flag.String("actor", "", "id of the administrator recorded in the audit log")
	flag.Parse()

	imageID, err := uuid.Parse(*imageFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Usage: release-image --image=<uuid> --actor=<uuid>")
		os.Exit(1)
	}
	actorID, err := uuid.Parse(*actorFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "--actor must be a profile id")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	svc := imagepool.NewService(logger, image.New(pool), nil, audit.New(pool), postgres.NewTxManager(pool), cfg.Storage.Timeout)

	ctx = ctxutil.WithUserRole(ctxutil.WithUserID(ctx, actorID), domain.RoleAdmin)
	if err := svc.Release(ctx, imageID); err != nil {
		logger.Error("release failed",
			slog.String("image_id", imageID.String()),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	logger.Info("image released", slog.String("image_id", imageID.String()))
}
