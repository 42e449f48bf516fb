package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "smartspace-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.True(t, cfg.App.SeedDemo)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.True(t, cfg.Database.AutoMigrate)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 30*time.Second, cfg.Processor.Interval)
		assert.Equal(t, 60*time.Second, cfg.Processor.RetryDelay)
		assert.True(t, cfg.Processor.Enabled)
		assert.Equal(t, uint64(42), cfg.Analytics.Seed)
		assert.Equal(t, byte(1), cfg.MQTT.QoS)
		assert.False(t, cfg.MQTT.Enabled)
		assert.False(t, cfg.ClickHouse.Enabled)
		assert.Equal(t, "smartspace-backend", cfg.Telemetry.ServiceName)
		assert.True(t, cfg.Telemetry.PrometheusEnabled)
		assert.False(t, cfg.Swagger.Enabled)
	})

	t.Run("loads values from environment variables with SMARTSPACE prefix", func(t *testing.T) {
		t.Setenv("SMARTSPACE_APP_PORT", "9000")
		t.Setenv("SMARTSPACE_DATABASE_DRIVER", "postgres")
		t.Setenv("SMARTSPACE_DATABASE_HOST", "testdb.local")
		t.Setenv("SMARTSPACE_DATABASE_PORT", "5433")
		t.Setenv("SMARTSPACE_PROCESSOR_INTERVAL", "10s")
		t.Setenv("SMARTSPACE_PROCESSOR_ENABLED", "false")
		t.Setenv("SMARTSPACE_MQTT_ENABLED", "true")
		t.Setenv("SMARTSPACE_ANALYTICS_SEED", "7")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 10*time.Second, cfg.Processor.Interval)
		assert.False(t, cfg.Processor.Enabled)
		assert.True(t, cfg.MQTT.Enabled)
		assert.Equal(t, uint64(7), cfg.Analytics.Seed)
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		t.Setenv("SMARTSPACE_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("SMARTSPACE_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("SMARTSPACE_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects default secret in production", func(t *testing.T) {
		t.Setenv("SMARTSPACE_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret")
	})

	t.Run("accepts production with strong secret", func(t *testing.T) {
		t.Setenv("SMARTSPACE_APP_ENV", "production")
		t.Setenv("SMARTSPACE_JWT_SECRET", "0123456789abcdef0123456789abcdef")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("rejects unprotected swagger in production", func(t *testing.T) {
		t.Setenv("SMARTSPACE_APP_ENV", "production")
		t.Setenv("SMARTSPACE_JWT_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("SMARTSPACE_SWAGGER_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "swagger endpoint")
	})

	t.Run("accepts swagger behind auth in production", func(t *testing.T) {
		t.Setenv("SMARTSPACE_APP_ENV", "production")
		t.Setenv("SMARTSPACE_JWT_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("SMARTSPACE_SWAGGER_ENABLED", "true")
		t.Setenv("SMARTSPACE_SWAGGER_REQUIRE_AUTH", "true")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Swagger.Enabled)
		assert.True(t, cfg.Swagger.RequireAuth)
	})

	t.Run("rejects sampling ratio out of range", func(t *testing.T) {
		t.Setenv("SMARTSPACE_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "smart",
		Password: "p@ss word",
		DBName:   "smartspace",
		SSLMode:  "disable",
	}
	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://smart:p%40ss%20word@db:5432/smartspace")
	assert.Contains(t, dsn, "sslmode=disable")
	assert.False(t, d.IsSQLite())
}
