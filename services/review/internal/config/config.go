package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/utafrali/bookreview/pkg/config"
	"github.com/utafrali/bookreview/pkg/database"
	"github.com/utafrali/bookreview/pkg/middleware"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Book lookup modes.
const (
	LookupSingle = "single"
	LookupList   = "list"
)

// Config holds all configuration for the review service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	HTTPPort int `env:"REVIEW_HTTP_PORT" envDefault:"8001"`

	StorageBackend   string `env:"STORAGE_BACKEND" envDefault:"memory"`
	RatingValidation bool   `env:"REVIEW_RATING_VALIDATION" envDefault:"true"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"bookreview"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"bookreview_secret"`
	PostgresDB   string `env:"REVIEW_DB_NAME" envDefault:"review_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`
	SlowQueryThresholdMs  int   `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Book service
	BookServiceURL     string        `env:"BOOK_SERVICE_URL" envDefault:"http://localhost:8000"`
	BookServiceTimeout time.Duration `env:"BOOK_SERVICE_TIMEOUT" envDefault:"3s"`
	BookLookupMode     string        `env:"BOOK_LOOKUP_MODE" envDefault:"single"`

	// Redis existence cache
	BookCacheEnabled bool          `env:"BOOK_CACHE_ENABLED" envDefault:"false"`
	BookCacheTTL     time.Duration `env:"BOOK_CACHE_TTL" envDefault:"30s"`
	RedisHost        string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort        int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword    string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB          int           `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaEnabled       bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers       []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"review-service"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Per-client rate limit on the API routes; 0 disables it.
	RateLimitRPS        float64 `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst      int     `env:"RATE_LIMIT_BURST" envDefault:"100"`
	RateLimitTrustProxy bool    `env:"RATE_LIMIT_TRUST_PROXY" envDefault:"false"`

	PprofAllowedCIDRs  []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,::1/128" envSeparator:","`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load review config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid REVIEW_HTTP_PORT: %d", c.HTTPPort)
	}
	switch c.StorageBackend {
	case StorageMemory:
	case StoragePostgres:
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required when STORAGE_BACKEND=postgres")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required when STORAGE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", StorageMemory, StoragePostgres, c.StorageBackend)
	}

	u, err := url.Parse(c.BookServiceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BOOK_SERVICE_URL must be an absolute URL, got %q", c.BookServiceURL)
	}
	if c.BookServiceTimeout <= 0 {
		return fmt.Errorf("BOOK_SERVICE_TIMEOUT must be positive, got %s", c.BookServiceTimeout)
	}
	if c.BookLookupMode != LookupSingle && c.BookLookupMode != LookupList {
		return fmt.Errorf("BOOK_LOOKUP_MODE must be %q or %q, got %q", LookupSingle, LookupList, c.BookLookupMode)
	}

	if c.BookCacheEnabled && c.BookCacheTTL <= 0 {
		return fmt.Errorf("BOOK_CACHE_TTL must be positive when BOOK_CACHE_ENABLED=true")
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED=true")
		}
		if c.KafkaConsumerGroup == "" {
			return fmt.Errorf("KAFKA_CONSUMER_GROUP is required when KAFKA_ENABLED=true")
		}
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %g", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when RATE_LIMIT_RPS is set, got %d", c.RateLimitBurst)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// Postgres returns the connection settings for the review database.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the connection settings for the existence cache.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// RateLimit returns the per-client limiter settings for the API routes.
func (c *Config) RateLimit() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		RPS:               c.RateLimitRPS,
		Burst:             c.RateLimitBurst,
		TrustForwardedFor: c.RateLimitTrustProxy,
	}
}
