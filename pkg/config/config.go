package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Geolocation GeolocationConfig
	Auth        AuthConfig
	Uploads     UploadsConfig
	OTEL        OTELConfig
	Log         LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	Database  string
	SSLMode   string
	TxTimeout time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled   bool
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// GeolocationConfig holds geocoder configuration
type GeolocationConfig struct {
	Provider  string
	APIKey    string
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// AuthConfig holds token signing configuration
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// UploadsConfig controls where uploaded images live and how they are served
type UploadsConfig struct {
	Dir       string
	URLPrefix string
	MaxBytes  int64
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// LogConfig holds logger configuration
type LogConfig struct {
	Env   string
	Level string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 5000),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		},
		Database: LoadDatabase(),
		Redis: RedisConfig{
			Enabled:   getEnvAsBool("REDIS_ENABLED", true),
			Host:      getEnv("REDIS_HOST", "localhost"),
			Port:      getEnvAsInt("REDIS_PORT", 6379),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "discover-places:"),
		},
		Geolocation: GeolocationConfig{
			Provider:  getEnv("GEOLOCATION_PROVIDER", "nominatim"),
			APIKey:    getEnv("GEOLOCATION_API_KEY", ""),
			BaseURL:   getEnv("GEOLOCATION_BASE_URL", ""),
			UserAgent: getEnv("GEOLOCATION_USER_AGENT", "discover-places-backend/1.0"),
			Timeout:   getEnvAsDuration("GEOLOCATION_TIMEOUT", 8*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET_KEY", ""),
			TokenTTL:  getEnvAsDuration("JWT_TTL", time.Hour),
		},
		Uploads: UploadsConfig{
			Dir:       getEnv("UPLOADS_DIR", "uploads/images"),
			URLPrefix: getEnv("UPLOADS_URL_PREFIX", "/uploads/images/"),
			MaxBytes:  int64(getEnvAsInt("UPLOAD_MAX_BYTES", 5<<20)),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "discover-places"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Log: LogConfig{
			Env:   getEnv("APP_ENV", "development"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase reads only the DB_* settings. The migration runner uses it
// so it does not need the server's secrets.
func LoadDatabase() DatabaseConfig {
	return DatabaseConfig{
		Host:      getEnv("DB_HOST", "localhost"),
		Port:      getEnvAsInt("DB_PORT", 5432),
		User:      getEnv("DB_USER", "postgres"),
		Password:  getEnv("DB_PASSWORD", ""),
		Database:  getEnv("DB_NAME", "discover_places"),
		SSLMode:   getEnv("DB_SSLMODE", "disable"),
		TxTimeout: getEnvAsDuration("DB_TX_TIMEOUT", 5*time.Second),
	}
}

// Validate checks settings the server cannot start without
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Uploads.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// DatabaseURL returns the connection string in URL form, as expected by
// the migration runner.
func (c *DatabaseConfig) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
