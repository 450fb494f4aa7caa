package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestLoad_RejectsShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "too-short")

	_, err := Load()
	assert.ErrorIs(t, err, ErrSecretTooShort)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("JWT_ACCESS_EXPIRY", "")
	t.Setenv("SESSION_SWEEP_INTERVAL", "")
	t.Setenv("COOKIE_NAME", "")
	t.Setenv("COOKIE_SAME_SITE", "")
	t.Setenv("CLIENT_REQUEST_TIMEOUT", "")
	t.Setenv("SOCKET_MAX_IN_FLIGHT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []byte(testSecret), cfg.JWT.Secret)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTokenExpiry)
	assert.Equal(t, 10*time.Second, cfg.Session.SweepInterval)
	assert.Equal(t, 16, cfg.Session.MaxInFlight)
	assert.Equal(t, 10*time.Second, cfg.Client.RequestTimeout)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "token", cfg.Cookie.Name)
	assert.Equal(t, "None", cfg.Cookie.SameSite)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("JWT_ACCESS_EXPIRY", "90s")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("SESSION_ID_BYTES", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 90*time.Second, cfg.JWT.AccessTokenExpiry)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 32, cfg.Session.IDBytes)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("STORAGE_DRIVER", "sqlite")

	_, err := Load()
	assert.ErrorIs(t, err, ErrUnknownStorage)
}

func TestDatabaseConfig_URL(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "shop", SSLMode: "disable"}

	assert.Equal(t, "postgres://u:p@db:5432/shop?sslmode=disable", c.URL())
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=shop sslmode=disable", c.DSN())
}

func TestLoadClient_NeedsNoSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CLIENT_URL", "ws://shop.local/ws")
	t.Setenv("CLIENT_REQUEST_TIMEOUT", "3s")
	t.Setenv("CLIENT_SESSION_FILE", "")

	cfg := LoadClient()

	assert.Equal(t, "ws://shop.local/ws", cfg.URL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, ".goldshop-session.json", cfg.SessionFile)
}
