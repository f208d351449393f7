package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/memorycare-backend/internal/adapter/cache"
	"github.com/heartmarshall/memorycare-backend/internal/adapter/notify"
	"github.com/heartmarshall/memorycare-backend/internal/adapter/postgres"
	assignmentrepo "github.com/heartmarshall/memorycare-backend/internal/adapter/postgres/assignment"
	"github.com/heartmarshall/memorycare-backend/internal/adapter/postgres/audit"
	"github.com/heartmarshall/memorycare-backend/internal/adapter/postgres/description"
	"github.com/heartmarshall/memorycare-backend/internal/adapter/postgres/image"
	profilerepo "github.com/heartmarshall/memorycare-backend/internal/adapter/postgres/profile"
	sessionrepo "github.com/heartmarshall/memorycare-backend/internal/adapter/postgres/session"
	"github.com/heartmarshall/memorycare-backend/internal/adapter/scorer"
	"github.com/heartmarshall/memorycare-backend/internal/adapter/storage"
	"github.com/heartmarshall/memorycare-backend/internal/auth"
	"github.com/heartmarshall/memorycare-backend/internal/config"
	"github.com/heartmarshall/memorycare-backend/internal/domain"
	"github.com/heartmarshall/memorycare-backend/internal/service/assignment"
	"github.com/heartmarshall/memorycare-backend/internal/service/imagepool"
	"github.com/heartmarshall/memorycare-backend/internal/service/profile"
	"github.com/heartmarshall/memorycare-backend/internal/service/report"
	"github.com/heartmarshall/memorycare-backend/internal/service/session"
	"github.com/heartmarshall/memorycare-backend/internal/transport/middleware"
	"github.com/heartmarshall/memorycare-backend/internal/transport/rest"
)

// deps holds everything Run must release on shutdown.
type deps struct {
	handler http.Handler

	pool    *pgxpool.Pool
	redis   *redis.Client
	fanout  *notify.Fanout
	limiter *middleware.RateLimiter
	log     *slog.Logger
}

// Close releases resources in reverse dependency order. Notifications in
// flight are drained before the pool closes.
func (d *deps) Close() {
	if d.limiter != nil {
		d.limiter.Stop()
	}
	if d.fanout != nil {
		if err := d.fanout.Close(); err != nil {
			d.log.Warn("close notification sinks", slog.String("error", err.Error()))
		}
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			d.log.Warn("close redis", slog.String("error", err.Error()))
		}
	}
	if d.pool != nil {
		d.pool.Close()
	}
}

func buildDeps(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *deps, err error) {
	d := &deps{log: logger}
	defer func() {
		if err != nil {
			d.Close()
		}
	}()

	// Database
	d.pool, err = postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Info("database connected",
		slog.Int("max_conns", int(cfg.Database.MaxConns)),
	)

	txm := postgres.NewTxManager(d.pool)
	auditRepo := audit.New(d.pool)
	profileRepo := profilerepo.New(d.pool)
	assignmentRepo := assignmentrepo.New(d.pool)
	imageRepo := image.New(d.pool)
	sessionRepo := sessionrepo.New(d.pool)
	descriptionRepo := description.New(d.pool)

	// Object storage (optional)
	var objectStorage *storage.S3
	if cfg.Storage.Enabled {
		objectStorage, err = storage.NewS3(ctx, cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		logger.Info("object storage enabled", slog.String("bucket", cfg.Storage.Bucket))
	}

	// Baseline cache (optional)
	var baselineCache *cache.BaselineCache
	if cfg.Redis.Addr != "" {
		d.redis = cache.NewRedisClient(cfg.Redis)
		baselineCache = cache.NewBaselineCache(d.redis, cfg.Redis.BaselineTTL)
		if pingErr := baselineCache.Ping(ctx); pingErr != nil {
			logger.Warn("baseline cache unreachable, reports will read through",
				slog.String("addr", cfg.Redis.Addr),
				slog.String("error", pingErr.Error()),
			)
		}
	}

	// Notifications
	var hub *notify.Hub
	d.fanout = notify.NewFanout(cfg.Notify.Timeout, logger)
	if cfg.Notify.WebSocketEnabled {
		hub = notify.NewHub(logger)
		d.fanout.Add("websocket", hub)
	}
	if cfg.Notify.SQSQueueURL != "" {
		q, sqsErr := notify.NewSQS(ctx, cfg.Notify.SQSRegion, cfg.Notify.SQSEndpoint, cfg.Notify.SQSQueueURL)
		if sqsErr != nil {
			return nil, fmt.Errorf("notify sqs: %w", sqsErr)
		}
		d.fanout.Add("sqs", q)
	}
	if len(cfg.Notify.KafkaBrokers) > 0 {
		d.fanout.Add("kafka", notify.NewKafka(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic))
	}
	logger.Info("notification sinks", slog.Any("sinks", d.fanout.Sinks()))

	// Services
	profileService := profile.NewService(logger, profileRepo, auditRepo, txm)
	assignmentService := assignment.NewService(logger, assignmentRepo, auditRepo, txm)
	imageService := imagepool.NewService(logger, imageRepo, optionalStorage(objectStorage), auditRepo, txm, cfg.Storage.Timeout)
	sessionService := session.NewService(
		logger,
		sessionRepo, descriptionRepo, imageRepo,
		imageService, assignmentService,
		scorer.NewClient(cfg.Scorer, logger),
		d.fanout,
		optionalSessionCache(baselineCache),
		auditRepo, txm,
		cfg.Session, cfg.Scorer,
	)
	reportService := report.NewService(logger, sessionRepo, profileRepo, sessionService, optionalReportCache(baselineCache), cfg.Report.FetchTimeout)

	// Transport
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)

	health := rest.NewHealthHandler(d.pool, BuildVersion())
	if baselineCache != nil {
		health.WithCache(baselineCache)
	}

	handlers := rest.Handlers{
		Health:     health,
		Profile:    rest.NewProfileHandler(profileService, logger),
		Assignment: rest.NewAssignmentHandler(assignmentService, logger),
		Image:      rest.NewImageHandler(imageService, logger),
		Session:    rest.NewSessionHandler(sessionService, assignmentService, logger),
		Report:     rest.NewReportHandler(reportService, logger),
	}
	if hub != nil {
		handlers.WS = rest.NewWSHandler(hub, jwtManager, middleware.OriginChecker(cfg.CORS), logger)
	}

	d.limiter = middleware.NewRateLimiter(cfg.RateLimit.CleanupInterval)

	d.handler = middleware.Chain(
		middleware.RequestID,
		middleware.Recovery(logger),
		middleware.Logger(logger),
		middleware.CORS(cfg.CORS),
		middleware.Auth(jwtManager),
		d.limiter.Limit(cfg.RateLimit.RequestsPerMinute),
	)(rest.NewRouter(handlers))

	return d, nil
}

// The services take optional dependencies as interfaces; a nil pointer
// must become an untyped nil so their nil checks hold.

func optionalStorage(s *storage.S3) interface {
	PresignUpload(ctx context.Context, objectKey, contentType string) (domain.UploadTicket, error)
	PublicURL(objectKey string) string
} {
	if s == nil {
		return nil
	}
	return s
}

func optionalSessionCache(c *cache.BaselineCache) interface {
	Invalidate(ctx context.Context, patientID uuid.UUID) error
} {
	if c == nil {
		return nil
	}
	return c
}

func optionalReportCache(c *cache.BaselineCache) interface {
	Get(ctx context.Context, patientID uuid.UUID) (*domain.SessionDetail, bool, error)
	Set(ctx context.Context, patientID uuid.UUID, detail *domain.SessionDetail) error
} {
	if c == nil {
		return nil
	}
	return c
}
