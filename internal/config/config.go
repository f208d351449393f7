package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Session   SessionConfig   `yaml:"session"`
	Scorer    ScorerConfig    `yaml:"scorer"`
	Storage   StorageConfig   `yaml:"storage"`
	Notify    NotifyConfig    `yaml:"notify"`
	Redis     RedisConfig     `yaml:"redis"`
	Report    ReportConfig    `yaml:"report"`
	Audit     AuditConfig     `yaml:"audit"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// AuthConfig holds bearer token settings. Tokens are issued by the identity
// provider; this service only validates them.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"       env:"AUTH_JWT_SECRET"       env-required:"true"`
	JWTIssuer      string        `yaml:"jwt_issuer"       env:"AUTH_JWT_ISSUER"       env-default:"memorycare"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"AUTH_ACCESS_TOKEN_TTL" env-default:"15m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// RateLimitConfig holds per-IP request limits.
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" env:"RATE_LIMIT_RPM"              env-default:"300"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"    env:"RATE_LIMIT_CLEANUP_INTERVAL" env-default:"5m"`
}

// SessionConfig holds assessment session lifecycle settings.
type SessionConfig struct {
	// ScoringClaimTTL is how long a scoring claim blocks a retry. It must
	// outlive the scorer timeout so a slow call is never duplicated.
	ScoringClaimTTL time.Duration `yaml:"scoring_claim_ttl" env:"SESSION_SCORING_CLAIM_TTL" env-default:"2m"`
}

// ScorerConfig holds settings of the external description scorer.
type ScorerConfig struct {
	BaseURL         string        `yaml:"base_url"         env:"SCORER_BASE_URL"`
	APIKey          string        `yaml:"api_key"          env:"SCORER_API_KEY"`
	Timeout         time.Duration `yaml:"timeout"          env:"SCORER_TIMEOUT"          env-default:"30s"`
	ConcludeTimeout time.Duration `yaml:"conclude_timeout" env:"SCORER_CONCLUDE_TIMEOUT" env-default:"10s"`
}

// StorageConfig holds S3-compatible object storage settings for image uploads.
type StorageConfig struct {
	Enabled       bool          `yaml:"enabled"         env:"STORAGE_ENABLED"          env-default:"false"`
	Bucket        string        `yaml:"bucket"          env:"STORAGE_BUCKET"`
	Region        string        `yaml:"region"          env:"STORAGE_REGION"           env-default:"us-east-1"`
	Endpoint      string        `yaml:"endpoint"        env:"STORAGE_ENDPOINT"`
	PublicBaseURL string        `yaml:"public_base_url" env:"STORAGE_PUBLIC_BASE_URL"`
	UsePathStyle  bool          `yaml:"use_path_style"  env:"STORAGE_USE_PATH_STYLE"   env-default:"false"`
	PresignTTL    time.Duration `yaml:"presign_ttl"     env:"STORAGE_PRESIGN_TTL"      env-default:"15m"`
	Timeout       time.Duration `yaml:"timeout"         env:"STORAGE_TIMEOUT"          env-default:"5s"`
}

// NotifyConfig holds settings of the notification sinks. A sink with
// empty connection settings is disabled.
type NotifyConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled" env:"NOTIFY_WEBSOCKET_ENABLED" env-default:"true"`
	SQSQueueURL      string        `yaml:"sqs_queue_url"     env:"NOTIFY_SQS_QUEUE_URL"`
	SQSRegion        string        `yaml:"sqs_region"        env:"NOTIFY_SQS_REGION"        env-default:"us-east-1"`
	SQSEndpoint      string        `yaml:"sqs_endpoint"      env:"NOTIFY_SQS_ENDPOINT"`
	KafkaBrokersRaw  string        `yaml:"kafka_brokers"     env:"NOTIFY_KAFKA_BROKERS"`
	KafkaTopic       string        `yaml:"kafka_topic"       env:"NOTIFY_KAFKA_TOPIC"       env-default:"memorycare.events"`
	Timeout          time.Duration `yaml:"timeout"           env:"NOTIFY_TIMEOUT"           env-default:"5s"`

	// KafkaBrokers is parsed from KafkaBrokersRaw during validation.
	KafkaBrokers []string `yaml:"-" env:"-"`
}

// RedisConfig holds the baseline cache connection. Empty Addr disables caching.
type RedisConfig struct {
	Addr        string        `yaml:"addr"         env:"REDIS_ADDR"`
	Password    string        `yaml:"password"     env:"REDIS_PASSWORD"`
	DB          int           `yaml:"db"           env:"REDIS_DB"           env-default:"0"`
	BaselineTTL time.Duration `yaml:"baseline_ttl" env:"REDIS_BASELINE_TTL" env-default:"24h"`
}

// ReportConfig holds report assembly settings.
type ReportConfig struct {
	FetchTimeout time.Duration `yaml:"fetch_timeout" env:"REPORT_FETCH_TIMEOUT" env-default:"10s"`
}

// AuditConfig holds audit log retention used by the cleanup command.
type AuditConfig struct {
	RetentionDays int `yaml:"retention_days" env:"AUDIT_RETENTION_DAYS" env-default:"365"`
}
