package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/momentum-app/momentum-backend/internal/health"
	"github.com/momentum-app/momentum-backend/internal/http/handler"
	"github.com/momentum-app/momentum-backend/internal/http/middleware"
	"github.com/momentum-app/momentum-backend/internal/http/response"
	"github.com/momentum-app/momentum-backend/internal/security"
)

type Dependencies struct {
	AuthHandler                *handler.AuthHandler
	UserHandler                *handler.UserHandler
	JWTManager                 *security.JWTManager
	CORSOrigins                []string
	APIRateLimitRPM            int
	AuthRateLimitRPM           int
	PasswordForgotRateLimitRPM int
	GlobalRateLimiter          func(http.Handler) http.Handler
	AuthRateLimiter            func(http.Handler) http.Handler
	ForgotRateLimiter          func(http.Handler) http.Handler
	Readiness                  *health.ProbeRunner
	EnableOTelHTTP             bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))
	if dep.GlobalRateLimiter != nil {
		r.Use(dep.GlobalRateLimiter)
	} else {
		r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute, "api").Middleware())
	}

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute, "auth").Middleware()
	}
	forgotLimiter := dep.ForgotRateLimiter
	if forgotLimiter == nil {
		forgotLimiter = middleware.NewRateLimiter(dep.PasswordForgotRateLimitRPM, time.Minute, "forgot").Middleware()
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	requireAuth := middleware.AuthMiddleware(dep.JWTManager)

	r.Route("/api/auth", func(r chi.Router) {
		r.With(authLimiter).Post("/register", dep.AuthHandler.Register)
		r.With(authLimiter).Post("/login", dep.AuthHandler.Login)
		r.With(authLimiter).Post("/refresh", dep.AuthHandler.Refresh)
		r.With(requireAuth).Post("/logout", dep.AuthHandler.Logout)
		r.With(forgotLimiter).Post("/password/forgot", dep.AuthHandler.PasswordForgot)
		r.With(authLimiter).Post("/password/reset", dep.AuthHandler.PasswordReset)
		r.Post("/password/strength", dep.AuthHandler.PasswordStrength)
		r.With(requireAuth, authLimiter).Put("/password", dep.AuthHandler.ChangePassword)

		r.With(requireAuth).Get("/me", dep.UserHandler.Me)
		r.With(requireAuth).Get("/sessions", dep.UserHandler.Sessions)
		r.With(requireAuth).Delete("/sessions/{session_id}", dep.UserHandler.RevokeSession)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
