//go:build wireinject
// +build wireinject

package main

import (
	"log/slog"

	"github.com/google/wire"

	"github.com/momentum-app/momentum-backend/internal/app"
	"github.com/momentum-app/momentum-backend/internal/config"
	"github.com/momentum-app/momentum-backend/internal/http/handler"
	"github.com/momentum-app/momentum-backend/internal/observability"
	"github.com/momentum-app/momentum-backend/internal/repository"
	"github.com/momentum-app/momentum-backend/internal/service"
)

func InitializeApp(cfg *config.Config, logger *slog.Logger, runtime *observability.Runtime) (*app.App, error) {
	wire.Build(
		repository.Open,
		repository.NewUserRepository,
		repository.NewSessionRepository,
		provideJWTManager,
		provideMailer,
		provideRedisClient,
		provideAuthService,
		wire.Bind(new(service.AuthAPI), new(*service.AuthService)),
		service.NewSessionService,
		wire.Bind(new(service.SessionAPI), new(*service.SessionService)),
		handler.NewAuthHandler,
		handler.NewUserHandler,
		provideReadiness,
		provideRouter,
		provideHTTPServer,
		provideStopBackground,
		app.New,
	)
	return nil, nil
}
