package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Logger     LoggerConfig
	Pagination PaginationConfig
	Tickets    TicketsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	LookupTTLSecond int
}

// KafkaConfig controls the ticket event sink.
type KafkaConfig struct {
	Enabled           bool
	Brokers           []string
	TicketEventsTopic string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Development bool
	Service     string
}

// PaginationConfig bounds list requests.
type PaginationConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// TicketsConfig holds ticket workflow defaults.
type TicketsConfig struct {
	DefaultEnvironmentID int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:            getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:        os.Getenv("REDIS_PASSWORD"),
			DB:              redisDB,
			LookupTTLSecond: getEnvAsInt("CACHE_LOOKUP_TTL_SECONDS", 300),
		},
		Kafka: KafkaConfig{
			Enabled:           getEnvAsBool("KAFKA_ENABLED", false),
			Brokers:           getEnvAsList("KAFKA_BROKERS", []string{"127.0.0.1:9092"}),
			TicketEventsTopic: getEnv("KAFKA_TICKET_EVENTS_TOPIC", "helpdesk.ticket-events"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Pagination: PaginationConfig{
			DefaultPageSize: getEnvAsInt("PAGINATION_DEFAULT_PAGE_SIZE", 10),
			MaxPageSize:     getEnvAsInt("PAGINATION_MAX_PAGE_SIZE", 100),
		},
		Tickets: TicketsConfig{
			DefaultEnvironmentID: getEnvAsInt("TICKETS_DEFAULT_ENVIRONMENT_ID", 1),
		},
	}

	cfg.Logger.Development = cfg.App.Env == "development"
	cfg.Logger.Service = cfg.App.Name

	if cfg.Pagination.DefaultPageSize <= 0 {
		return nil, fmt.Errorf("PAGINATION_DEFAULT_PAGE_SIZE must be positive")
	}
	if cfg.Pagination.MaxPageSize < cfg.Pagination.DefaultPageSize {
		return nil, fmt.Errorf("PAGINATION_MAX_PAGE_SIZE must be >= PAGINATION_DEFAULT_PAGE_SIZE")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// LookupTTL returns how long lookup tables stay cached. Zero disables caching.
func (r RedisConfig) LookupTTL() time.Duration {
	if r.LookupTTLSecond <= 0 {
		return 0
	}
	return time.Duration(r.LookupTTLSecond) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var items []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
