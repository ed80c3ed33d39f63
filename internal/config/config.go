package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries every runtime knob. It is built once at process start
// and passed down explicitly; nothing reads the environment after Load.
type Config struct {
	AppEnv     string
	HTTPAddr   string
	PublicURL  string
	FrontendURL string

	DatabaseDriver string // sqlite | postgres
	DatabaseDSN    string

	JWTIssuer            string
	JWTAccessSecret      string
	JWTRefreshSecret     string
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	RefreshRotation      bool
	RefreshTokenPepper   string
	PasswordResetTTL     time.Duration
	BcryptCost           int

	SMTPAddr string
	SMTPFrom string

	RedisAddr                  string
	APIRateLimitRPM            int
	AuthRateLimitRPM           int
	PasswordForgotRateLimitRPM int

	OTELEnabled               bool
	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration

	ShutdownTimeout          time.Duration
	ShutdownHTTPDrainTimeout time.Duration

	SessionCleanupInterval time.Duration
}

// Load reads the configuration from the environment and validates it.
func Load(ctx context.Context) (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		PublicURL:   getEnv("PUBLIC_URL", "http://localhost:8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseDSN:    getEnv("DATABASE_DSN", "momentum.db"),

		JWTIssuer:          getEnv("JWT_ISSUER", "momentum-app"),
		JWTAccessSecret:    os.Getenv("JWT_SECRET"),
		JWTRefreshSecret:   os.Getenv("JWT_REFRESH_SECRET"),
		AccessTokenTTL:     getDuration("JWT_ACCESS_TTL", 7*24*time.Hour),
		RefreshTokenTTL:    getDuration("JWT_REFRESH_TTL", 30*24*time.Hour),
		RefreshRotation:    getBool("AUTH_REFRESH_ROTATION", false),
		RefreshTokenPepper: os.Getenv("REFRESH_TOKEN_PEPPER"),
		PasswordResetTTL:   getDuration("PASSWORD_RESET_TTL", 10*time.Minute),
		BcryptCost:         getInt("BCRYPT_COST", 12),

		SMTPAddr: getEnv("SMTP_ADDR", ""),
		SMTPFrom: getEnv("SMTP_FROM", "no-reply@momentum.app"),

		RedisAddr:                  getEnv("REDIS_ADDR", ""),
		APIRateLimitRPM:            getInt("API_RATE_LIMIT_RPM", 300),
		AuthRateLimitRPM:           getInt("AUTH_RATE_LIMIT_RPM", 20),
		PasswordForgotRateLimitRPM: getInt("PASSWORD_FORGOT_RATE_LIMIT_RPM", 5),

		OTELEnabled:               getBool("OTEL_ENABLED", false),
		OTELServiceName:           getEnv("OTEL_SERVICE_NAME", "momentum-backend"),
		OTELEnvironment:           getEnv("OTEL_ENVIRONMENT", "development"),
		OTELExporterOTLPEndpoint:  getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure:  getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELMetricsExportInterval: getDuration("OTEL_METRICS_EXPORT_INTERVAL", 30*time.Second),

		ShutdownTimeout:          getDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		ShutdownHTTPDrainTimeout: getDuration("SHUTDOWN_HTTP_DRAIN_TIMEOUT", 10*time.Second),

		SessionCleanupInterval: getDuration("SESSION_CLEANUP_INTERVAL", time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		recordConfigValidationEvent(ctx, cfg.AppEnv, "failure", classifyConfigError(err))
		return nil, fmt.Errorf("validate config: %w", err)
	}
	recordConfigValidationEvent(ctx, cfg.AppEnv, "success", "none")
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if len(c.JWTAccessSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters"))
	}
	if len(c.JWTRefreshSecret) < 32 {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET must be at least 32 characters"))
	}
	if c.JWTAccessSecret != "" && c.JWTAccessSecret == c.JWTRefreshSecret {
		errs = append(errs, errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ"))
	}
	if len(c.RefreshTokenPepper) < 16 {
		errs = append(errs, errors.New("REFRESH_TOKEN_PEPPER must be at least 16 characters"))
	}
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST %d out of range", c.BcryptCost))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.PasswordResetTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.AccessTokenTTL >= c.RefreshTokenTTL {
		errs = append(errs, errors.New("JWT_ACCESS_TTL must be shorter than JWT_REFRESH_TTL"))
	}
	return errors.Join(errs...)
}

// IsProduction selects production behavior such as hiding error detail.
func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
