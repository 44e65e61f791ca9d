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

const devSecret = "dev-secret"

// Config aggregates runtime configuration for the service.
type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Logger        LoggerConfig
	Auth          AuthConfig
	Impersonation ImpersonationConfig
	Notification  NotificationConfig
	Sweeper       SweeperConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	PublicURL             string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values. The DSN carries the
// service-role credential and never leaves the server.
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
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	CookieName            string
}

// ImpersonationConfig tunes the admin impersonation flow.
type ImpersonationConfig struct {
	// SigningKey signs the impersonation cookie. It falls back to the
	// login token secret when unset.
	SigningKey           string
	TokenTTLMinutes      int
	SessionMaxAgeMinutes int
	CookieName           string
	LandingPath          string
	StopRedirectPath     string
	RateLimitPerMinute   int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// SweeperConfig controls the stale token sweeper.
type SweeperConfig struct {
	RetentionHours int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))
	jwtSecret := getEnv("AUTH_JWT_SECRET", devSecret)

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "storefront-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			PublicURL:             strings.TrimRight(getEnv("APP_PUBLIC_URL", "http://localhost:8080"), "/"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             jwtSecret,
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			CookieName:            getEnv("AUTH_COOKIE_NAME", "sf_auth"),
		},
		Impersonation: ImpersonationConfig{
			SigningKey:           getEnv("IMPERSONATION_SIGNING_KEY", jwtSecret),
			TokenTTLMinutes:      getEnvAsInt("IMPERSONATION_TOKEN_TTL_MINUTES", 5),
			SessionMaxAgeMinutes: getEnvAsInt("IMPERSONATION_SESSION_MAX_AGE_MINUTES", 60),
			CookieName:           getEnv("IMPERSONATION_COOKIE_NAME", "impersonation_session"),
			LandingPath:          getEnv("IMPERSONATION_LANDING_PATH", "/account"),
			StopRedirectPath:     getEnv("IMPERSONATION_STOP_REDIRECT_PATH", "/admin/customers"),
			RateLimitPerMinute:   getEnvAsInt("IMPERSONATION_RATE_LIMIT_PER_MINUTE", 20),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		Sweeper: SweeperConfig{
			RetentionHours: getEnvAsInt("SWEEPER_RETENTION_HOURS", 24),
		},
	}

	if err := cfg.validateSecrets(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validateSecrets refuses to run production on the development secret.
func (c *Config) validateSecrets() error {
	if !c.App.IsProduction() {
		return nil
	}
	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == devSecret {
		return errors.New("AUTH_JWT_SECRET must be set in production")
	}
	if c.Impersonation.SigningKey == "" || c.Impersonation.SigningKey == devSecret {
		return errors.New("IMPERSONATION_SIGNING_KEY must not be the development secret in production")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProduction reports whether cookies should be marked Secure.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL returns how long an issued impersonation token stays redeemable.
func (i ImpersonationConfig) TokenTTL() time.Duration {
	if i.TokenTTLMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(i.TokenTTLMinutes) * time.Minute
}

// SessionMaxAge returns the lifetime of the impersonation cookie.
func (i ImpersonationConfig) SessionMaxAge() time.Duration {
	if i.SessionMaxAgeMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(i.SessionMaxAgeMinutes) * time.Minute
}

// Retention returns how long used or expired tokens are kept.
func (s SweeperConfig) Retention() time.Duration {
	if s.RetentionHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.RetentionHours) * time.Hour
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
