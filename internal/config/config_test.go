package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

const testSecret = "test-secret-that-is-at-least-32ch"

// ---------------------------------------------------------------------------
// Helper function tests
// ---------------------------------------------------------------------------

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string // nil = don't set; pointer to distinguish "" from unset
		fallback string
		want     string
	}{
		{name: "returns fallback when unset", key: "SEATMAP_TEST_GETENV_UNSET", setVal: nil, fallback: "default", want: "default"},
		{name: "returns env value when set", key: "SEATMAP_TEST_GETENV_SET", setVal: strPtr("custom"), fallback: "default", want: "custom"},
		{name: "returns fallback when empty string", key: "SEATMAP_TEST_GETENV_EMPTY", setVal: strPtr(""), fallback: "default", want: "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			assert.Equal(t, tc.want, getEnv(tc.key, tc.fallback))
		})
	}
}

func TestGetEnvFloat(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback float64
		want     float64
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "SEATMAP_TEST_FLOAT_UNSET", fallback: 2.5, want: 2.5},
		{name: "parses integer", key: "SEATMAP_TEST_FLOAT_INT", setVal: strPtr("10"), want: 10},
		{name: "parses fraction", key: "SEATMAP_TEST_FLOAT_FRAC", setVal: strPtr("0.5"), want: 0.5},
		{name: "errors on text", key: "SEATMAP_TEST_FLOAT_BAD", setVal: strPtr("fast"), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvFloat(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 0)
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback bool
		want     bool
		wantErr  bool
	}{
		{name: "fallback true when unset", key: "SEATMAP_TEST_BOOL_UNSETTRUE", fallback: true, want: true},
		{name: "parses true", key: "SEATMAP_TEST_BOOL_TRUE", setVal: strPtr("true"), want: true},
		{name: "parses 0", key: "SEATMAP_TEST_BOOL_ZERO", setVal: strPtr("0"), fallback: true, want: false},
		{name: "errors on invalid", key: "SEATMAP_TEST_BOOL_INV", setVal: strPtr("yes"), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvBool(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("SEATMAP_TEST_LIST", " http://a.test , ,http://b.test")

	assert.Equal(t, []string{"http://a.test", "http://b.test"}, getEnvList("SEATMAP_TEST_LIST", nil))
	assert.Equal(t, []string{"x"}, getEnvList("SEATMAP_TEST_LIST_UNSET", []string{"x"}))
}

// ---------------------------------------------------------------------------
// Load() error cases
// ---------------------------------------------------------------------------

func TestLoad_MissingJWTSecret(t *testing.T) {
	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "SEATMAP_JWT_SECRET")
}

func TestLoad_ShortJWTSecret(t *testing.T) {
	t.Setenv("SEATMAP_JWT_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 characters")
}

func TestLoad_InvalidEnvVars(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
	}{
		{name: "DB_PORT not a number", envKey: "SEATMAP_DB_PORT", envVal: "abc"},
		{name: "DB_PORT too high", envKey: "SEATMAP_DB_PORT", envVal: "65536"},
		{name: "DB_MAX_CONNS zero", envKey: "SEATMAP_DB_MAX_CONNS", envVal: "0"},
		{name: "DB_AUTO_MIGRATE not a bool", envKey: "SEATMAP_DB_AUTO_MIGRATE", envVal: "maybe"},
		{name: "REDIS_DB not a number", envKey: "SEATMAP_REDIS_DB", envVal: "abc"},
		{name: "SERVER_READ_TIMEOUT zero", envKey: "SEATMAP_SERVER_READ_TIMEOUT", envVal: "0s"},
		{name: "SERVER_WRITE_TIMEOUT invalid", envKey: "SEATMAP_SERVER_WRITE_TIMEOUT", envVal: "soon"},
		{name: "RATE_LIMIT_RPS zero", envKey: "SEATMAP_RATE_LIMIT_RPS", envVal: "0"},
		{name: "RATE_LIMIT_BURST zero", envKey: "SEATMAP_RATE_LIMIT_BURST", envVal: "0"},
		{name: "CHART_ITEM_TTL negative", envKey: "SEATMAP_CHART_ITEM_TTL", envVal: "-1s"},
		{name: "CHART_LIST_TTL invalid", envKey: "SEATMAP_CHART_LIST_TTL", envVal: "300"},
		{name: "CHART_SNAPSHOT_ON_SEAT_PATCH invalid", envKey: "SEATMAP_CHART_SNAPSHOT_ON_SEAT_PATCH", envVal: "sometimes"},
		{name: "CHART_MAX_VERSIONS negative", envKey: "SEATMAP_CHART_MAX_VERSIONS", envVal: "-1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("SEATMAP_JWT_SECRET", testSecret)
			t.Setenv(tc.envKey, tc.envVal)

			cfg, err := Load()
			require.Error(t, err, "expected error for %s=%q", tc.envKey, tc.envVal)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tc.envKey)
		})
	}
}

// ---------------------------------------------------------------------------
// Load() happy paths
// ---------------------------------------------------------------------------

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SEATMAP_JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "seatmap", cfg.Database.User)
	assert.Equal(t, "seatmap_dev", cfg.Database.DBName)
	assert.Equal(t, 25, cfg.Database.MaxConns)
	assert.True(t, cfg.Database.AutoMigrate)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.InDelta(t, 50.0, cfg.Server.RateLimitRPS, 0)
	assert.Equal(t, 100, cfg.Server.RateLimitBurst)

	assert.Equal(t, 600*time.Second, cfg.Chart.ItemTTL)
	assert.Equal(t, 300*time.Second, cfg.Chart.ListTTL)
	assert.False(t, cfg.Chart.SnapshotOnSeatPatch)
	assert.Equal(t, 0, cfg.Chart.MaxVersions)
	assert.Equal(t, "development", cfg.Env)
}

func TestLoad_AllCustomValues(t *testing.T) {
	envs := map[string]string{
		"SEATMAP_DB_HOST":                      "db.prod.internal",
		"SEATMAP_DB_PORT":                      "5433",
		"SEATMAP_DB_PASSWORD":                  "s3cret!",
		"SEATMAP_DB_SSLMODE":                   "require",
		"SEATMAP_DB_AUTO_MIGRATE":              "false",
		"SEATMAP_REDIS_ADDR":                   "redis.prod:6380",
		"SEATMAP_REDIS_DB":                     "3",
		"SEATMAP_JWT_SECRET":                   "prod-jwt-secret-256-bits-long!!!",
		"SEATMAP_SERVER_ADDR":                  ":9090",
		"SEATMAP_CORS_ORIGINS":                 "https://seats.example.com",
		"SEATMAP_RATE_LIMIT_RPS":               "7.5",
		"SEATMAP_RATE_LIMIT_BURST":             "15",
		"SEATMAP_CHART_ITEM_TTL":               "1m",
		"SEATMAP_CHART_LIST_TTL":               "30s",
		"SEATMAP_CHART_SNAPSHOT_ON_SEAT_PATCH": "true",
		"SEATMAP_CHART_MAX_VERSIONS":           "50",
		"SEATMAP_ENV":                          "production",
	}
	for k, v := range envs {
		t.Setenv(k, v)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.prod.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.False(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "redis.prod:6380", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"https://seats.example.com"}, cfg.Server.CORSOrigins)
	assert.InDelta(t, 7.5, cfg.Server.RateLimitRPS, 0)
	assert.Equal(t, 15, cfg.Server.RateLimitBurst)
	assert.Equal(t, time.Minute, cfg.Chart.ItemTTL)
	assert.Equal(t, 30*time.Second, cfg.Chart.ListTTL)
	assert.True(t, cfg.Chart.SnapshotOnSeatPatch)
	assert.Equal(t, 50, cfg.Chart.MaxVersions)
	assert.Equal(t, "production", cfg.Env)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Parallel()

	c := DatabaseConfig{Host: "h", Port: 5, User: "u", Password: "p", DBName: "d", SSLMode: "require"}
	assert.Equal(t, "host=h port=5 user=u password=p dbname=d sslmode=require", c.DSN())
}
