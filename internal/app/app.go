package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/momentum-app/momentum-backend/internal/config"
	"github.com/momentum-app/momentum-backend/internal/health"
	"github.com/momentum-app/momentum-backend/internal/observability"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	Readiness     *health.ProbeRunner

	ShutdownTimeout          time.Duration
	ShutdownHTTPDrainTimeout time.Duration

	stopBackground func()
}

func New(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	readiness *health.ProbeRunner,
	stopBackground func(),
) *App {
	return &App{
		Config:                   cfg,
		Logger:                   logger,
		Server:                   server,
		Observability:            runtime,
		Readiness:                readiness,
		ShutdownTimeout:          cfg.ShutdownTimeout,
		ShutdownHTTPDrainTimeout: cfg.ShutdownHTTPDrainTimeout,
		stopBackground:           stopBackground,
	}
}

func (a *App) StopBackgroundTasks() {
	if a.stopBackground != nil {
		a.stopBackground()
	}
}

// Run serves until the context is cancelled or a termination signal
// arrives, then drains in-flight requests and flushes telemetry.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("http server listening", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.StopBackgroundTasks()
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down", "timeout", a.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.ShutdownTimeout)
	defer cancel()

	a.StopBackgroundTasks()

	drainCtx, drainCancel := context.WithTimeout(shutdownCtx, a.ShutdownHTTPDrainTimeout)
	defer drainCancel()
	if err := a.Server.Shutdown(drainCtx); err != nil {
		a.Logger.Warn("http drain incomplete", "error", err.Error())
		_ = a.Server.Close()
	}

	if a.Observability != nil {
		if err := a.Observability.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warn("telemetry shutdown incomplete", "error", err.Error())
		}
	}
	a.Logger.Info("shutdown complete")
	return nil
}
