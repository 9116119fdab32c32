package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Server   ServerConfig
	Chart    ChartConfig
	Env      string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string //nolint:gosec // G117: DB connection config
	DBName      string
	SSLMode     string
	MaxConns    int
	AutoMigrate bool
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// JWTConfig holds the token verification secret. Tokens are issued elsewhere.
type JWTConfig struct {
	Secret string //nolint:gosec // G117: JWT signing secret config
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// ChartConfig tunes the seating-chart store.
type ChartConfig struct {
	ItemTTL             time.Duration
	ListTTL             time.Duration
	SnapshotOnSeatPatch bool
	MaxVersions         int
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password) must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("SEATMAP_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("SEATMAP_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	autoMigrate, err := getEnvBool("SEATMAP_DB_AUTO_MIGRATE", true)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("SEATMAP_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("SEATMAP_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("SEATMAP_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateRPS, err := getEnvFloat("SEATMAP_RATE_LIMIT_RPS", 50)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateBurst, err := getEnvInt("SEATMAP_RATE_LIMIT_BURST", 100)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	itemTTL, err := getEnvDuration("SEATMAP_CHART_ITEM_TTL", 600*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	listTTL, err := getEnvDuration("SEATMAP_CHART_LIST_TTL", 300*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	snapshotSeats, err := getEnvBool("SEATMAP_CHART_SNAPSHOT_ON_SEAT_PATCH", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	maxVersions, err := getEnvInt("SEATMAP_CHART_MAX_VERSIONS", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("SEATMAP_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Database: DatabaseConfig{
			Host:        getEnv("SEATMAP_DB_HOST", "localhost"),
			Port:        dbPort,
			User:        getEnv("SEATMAP_DB_USER", "seatmap"),
			Password:    getEnv("SEATMAP_DB_PASSWORD", ""),
			DBName:      getEnv("SEATMAP_DB_NAME", "seatmap_dev"),
			SSLMode:     getEnv("SEATMAP_DB_SSLMODE", "disable"),
			MaxConns:    dbMaxConns,
			AutoMigrate: autoMigrate,
		},
		Redis: RedisConfig{
			Addr:     getEnv("SEATMAP_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("SEATMAP_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret: getEnv("SEATMAP_JWT_SECRET", ""),
		},
		Server: ServerConfig{
			Addr:           getEnv("SEATMAP_SERVER_ADDR", ":8080"),
			ReadTimeout:    readTimeout,
			WriteTimeout:   writeTimeout,
			CORSOrigins:    corsOrigins,
			RateLimitRPS:   rateRPS,
			RateLimitBurst: rateBurst,
		},
		Chart: ChartConfig{
			ItemTTL:             itemTTL,
			ListTTL:             listTTL,
			SnapshotOnSeatPatch: snapshotSeats,
			MaxVersions:         maxVersions,
		},
		Env: getEnv("SEATMAP_ENV", "development"),
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("SEATMAP_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("SEATMAP_JWT_SECRET must be at least 32 characters")
	}

	if c.Database.SSLMode == "disable" && c.Env != "development" {
		log.Warn().Str("env", c.Env).Msg("SEATMAP_DB_SSLMODE=disable is insecure outside development; set to 'require' or 'verify-full'")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("SEATMAP_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("SEATMAP_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("SEATMAP_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("SEATMAP_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.RateLimitRPS <= 0 {
		return fmt.Errorf("SEATMAP_RATE_LIMIT_RPS must be positive, got %g", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("SEATMAP_RATE_LIMIT_BURST must be >= 1, got %d", c.Server.RateLimitBurst)
	}
	if c.Chart.ItemTTL <= 0 {
		return fmt.Errorf("SEATMAP_CHART_ITEM_TTL must be positive, got %s", c.Chart.ItemTTL)
	}
	if c.Chart.ListTTL <= 0 {
		return fmt.Errorf("SEATMAP_CHART_LIST_TTL must be positive, got %s", c.Chart.ListTTL)
	}
	if c.Chart.MaxVersions < 0 {
		return fmt.Errorf("SEATMAP_CHART_MAX_VERSIONS must be >= 0, got %d", c.Chart.MaxVersions)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
