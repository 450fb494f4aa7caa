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

const minSecretLength = 32

var (
	ErrMissingSecret     = errors.New("JWT_SECRET is required")
	ErrSecretTooShort    = fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLength)
	ErrUnknownStorage    = errors.New("STORAGE_DRIVER must be postgres or memory")
	ErrInvalidSameSite   = errors.New("COOKIE_SAME_SITE must be Strict, Lax or None")
	ErrNonPositiveExpiry = errors.New("JWT_ACCESS_EXPIRY must be positive")
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Session  SessionConfig
	Cookie   CookieConfig
	Client   ClientConfig
	Setup    SetupConfig
}

type ServerConfig struct {
	Port           string
	Environment    string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	BodyLimit      int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type StorageConfig struct {
	Driver      string
	AutoMigrate bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            []byte
	AccessTokenExpiry time.Duration
	Issuer            string
}

type SessionConfig struct {
	SweepInterval      time.Duration
	IDBytes            int
	TombstoneRetention time.Duration
	MaxInFlight        int
}

type CookieConfig struct {
	Name     string
	Secure   bool
	SameSite string
}

// ClientConfig drives the socket client CLI. It is loaded separately so the
// client never needs server secrets.
type ClientConfig struct {
	URL            string
	RequestTimeout time.Duration
	SessionFile    string
}

// SetupConfig optionally creates the first admin at startup when the user
// table is empty.
type SetupConfig struct {
	AdminUsername string
	AdminPassword string
	AdminName     string
}

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "5000"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			AllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:8081"}),
			BodyLimit:      getIntEnv("SERVER_BODY_LIMIT", 10*1024*1024),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "goldshop"),
			Password: getEnv("DB_PASSWORD", "goldshop"),
			DBName:   getEnv("DB_NAME", "goldshop"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(getEnv("STORAGE_DRIVER", "postgres")),
			AutoMigrate: getBoolEnv("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:            []byte(os.Getenv("JWT_SECRET")),
			AccessTokenExpiry: getDurationEnv("JWT_ACCESS_EXPIRY", 5*time.Minute),
			Issuer:            getEnv("JWT_ISSUER", "goldshop-manager"),
		},
		Session: SessionConfig{
			SweepInterval:      getDurationEnv("SESSION_SWEEP_INTERVAL", 10*time.Second),
			IDBytes:            getIntEnv("SESSION_ID_BYTES", 32),
			TombstoneRetention: getDurationEnv("SESSION_TOMBSTONE_RETENTION", time.Hour),
			MaxInFlight:        getIntEnv("SOCKET_MAX_IN_FLIGHT", 16),
		},
		Cookie: CookieConfig{
			Name:     getEnv("COOKIE_NAME", "token"),
			Secure:   getBoolEnv("COOKIE_SECURE", true),
			SameSite: getEnv("COOKIE_SAME_SITE", "None"),
		},
		Client: loadClient(),
		Setup: SetupConfig{
			AdminUsername: getEnv("SETUP_ADMIN_USERNAME", ""),
			AdminPassword: getEnv("SETUP_ADMIN_PASSWORD", ""),
			AdminName:     getEnv("SETUP_ADMIN_NAME", "Administrator"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadClient reads only the client section.
func LoadClient() ClientConfig {
	_ = godotenv.Load()
	return loadClient()
}

func loadClient() ClientConfig {
	return ClientConfig{
		URL:            getEnv("CLIENT_URL", "ws://localhost:5000/ws"),
		RequestTimeout: getDurationEnv("CLIENT_REQUEST_TIMEOUT", 10*time.Second),
		SessionFile:    getEnv("CLIENT_SESSION_FILE", ".goldshop-session.json"),
	}
}

// Validate rejects configurations the server must not start with.
func (c *Config) Validate() error {
	switch {
	case len(c.JWT.Secret) == 0:
		return ErrMissingSecret
	case len(c.JWT.Secret) < minSecretLength:
		return ErrSecretTooShort
	case c.JWT.AccessTokenExpiry <= 0:
		return ErrNonPositiveExpiry
	}

	if c.Storage.Driver != "postgres" && c.Storage.Driver != "memory" {
		return ErrUnknownStorage
	}

	switch c.Cookie.SameSite {
	case "Strict", "Lax", "None":
	default:
		return ErrInvalidSameSite
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL is the postgres:// form golang-migrate expects.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
