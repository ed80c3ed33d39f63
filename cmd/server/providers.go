package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/momentum-app/momentum-backend/internal/config"
	"github.com/momentum-app/momentum-backend/internal/health"
	"github.com/momentum-app/momentum-backend/internal/http/handler"
	"github.com/momentum-app/momentum-backend/internal/http/middleware"
	"github.com/momentum-app/momentum-backend/internal/http/router"
	"github.com/momentum-app/momentum-backend/internal/notify"
	"github.com/momentum-app/momentum-backend/internal/repository"
	"github.com/momentum-app/momentum-backend/internal/security"
	"github.com/momentum-app/momentum-backend/internal/service"
)

func provideJWTManager(cfg *config.Config) *security.JWTManager {
	return security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAccessSecret, cfg.JWTRefreshSecret)
}

// provideMailer falls back to logging the reset link when no SMTP
// relay is configured, which is what local development wants.
func provideMailer(cfg *config.Config, logger *slog.Logger) notify.Mailer {
	if cfg.SMTPAddr == "" {
		return notify.NewLogMailer(logger)
	}
	return notify.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom)
}

func provideRedisClient(cfg *config.Config) redis.UniversalClient {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
}

func provideAuthService(
	cfg *config.Config,
	users repository.UserRepository,
	sessions repository.SessionRepository,
	jwtMgr *security.JWTManager,
	mailer notify.Mailer,
	logger *slog.Logger,
) *service.AuthService {
	return service.NewAuthService(users, sessions, jwtMgr, mailer, logger, service.AuthServiceOptions{
		Pepper:        cfg.RefreshTokenPepper,
		BcryptCost:    cfg.BcryptCost,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		ResetTTL:      cfg.PasswordResetTTL,
		RotateRefresh: cfg.RefreshRotation,
		FrontendURL:   cfg.FrontendURL,
	})
}

func provideReadiness(db *gorm.DB, redisClient redis.UniversalClient) *health.ProbeRunner {
	probe := health.NewProbeRunner(2*time.Second, 3*time.Second)
	probe.Register(health.NewDatabaseChecker(db))
	if redisClient != nil {
		probe.Register(health.NewRedisChecker(redisClient))
	}
	return probe
}

func provideRouter(
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	jwtMgr *security.JWTManager,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
) http.Handler {
	dep := router.Dependencies{
		AuthHandler:                authHandler,
		UserHandler:                userHandler,
		JWTManager:                 jwtMgr,
		CORSOrigins:                []string{cfg.FrontendURL},
		APIRateLimitRPM:            cfg.APIRateLimitRPM,
		AuthRateLimitRPM:           cfg.AuthRateLimitRPM,
		PasswordForgotRateLimitRPM: cfg.PasswordForgotRateLimitRPM,
		Readiness:                  readiness,
		EnableOTelHTTP:             cfg.OTELEnabled,
	}
	if redisClient != nil {
		limiter := middleware.NewRedisFixedWindowLimiter(redisClient, "momentum:rate")
		dep.GlobalRateLimiter = middleware.NewDistributedRateLimiter(
			limiter, cfg.APIRateLimitRPM, time.Minute, middleware.FailOpen, "api").Middleware()
		dep.AuthRateLimiter = middleware.NewDistributedRateLimiter(
			limiter, cfg.AuthRateLimitRPM, time.Minute, middleware.FailClosed, "auth").Middleware()
		dep.ForgotRateLimiter = middleware.NewDistributedRateLimiter(
			limiter, cfg.PasswordForgotRateLimitRPM, time.Minute, middleware.FailClosed, "forgot").Middleware()
	}
	return router.NewRouter(dep)
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func provideStopBackground(cfg *config.Config, sessions repository.SessionRepository, logger *slog.Logger) func() {
	cleaner := service.NewSessionCleaner(sessions, cfg.SessionCleanupInterval, logger)
	return cleaner.Start()
}
