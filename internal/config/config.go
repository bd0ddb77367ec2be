package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	AppPort    string
	AppEnv     string
	CORSOrigin string

	JWTSecret string
	JWTTTL    time.Duration

	FeedTimeout  time.Duration
	FeedMaxBytes int64

	KafkaBrokers   []string
	KafkaTopic     string
	OutboxInterval time.Duration
	OutboxBatch    int

	MigrationsPath    string
	AutoMigrate       bool
	InternalSecretKey string
}

var ErrMissingEnv = errors.New("required environment variable not set")

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:            os.Getenv("DB_HOST"),
		DBUser:            os.Getenv("DB_USER"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBName:            os.Getenv("DB_NAME"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBSSLMode:         getEnv("DB_SSLMODE", "disable"),
		AppPort:           getEnv("APP_PORT", "8080"),
		AppEnv:            getEnv("APP_ENV", "development"),
		CORSOrigin:        getEnv("CORS_ORIGIN", "*"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		KafkaBrokers:      splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "orders.events"),
		MigrationsPath:    getEnv("MIGRATIONS_PATH", "./migrations"),
		AutoMigrate:       getEnv("AUTO_MIGRATE", "true") == "true",
		InternalSecretKey: os.Getenv("INTERNAL_SECRET_KEY"),
	}

	if cfg.DBHost == "" {
		return nil, fmt.Errorf("%w: DB_HOST", ErrMissingEnv)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET", ErrMissingEnv)
	}

	var err error
	if cfg.JWTTTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.FeedTimeout, err = getDuration("FEED_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.OutboxInterval, err = getDuration("OUTBOX_INTERVAL", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.FeedMaxBytes, err = getInt64("FEED_MAX_BYTES", 10<<20); err != nil {
		return nil, err
	}
	batch, err := getInt64("OUTBOX_BATCH", 50)
	if err != nil {
		return nil, err
	}
	cfg.OutboxBatch = int(batch)

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
