package observability

import (
	"context"
	"errors"
	"log/slog"

	"github.com/momentum-app/momentum-backend/internal/config"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Runtime owns every telemetry provider so shutdown happens in one place.
type Runtime struct {
	MeterProvider  *sdkmetric.MeterProvider
	TracerProvider *sdktrace.TracerProvider
	LoggerProvider *sdklog.LoggerProvider
	Logger         *slog.Logger
}

func InitRuntime(ctx context.Context, cfg *config.Config, base *slog.Logger) (*Runtime, error) {
	mp, err := InitMetrics(ctx, cfg, base)
	if err != nil {
		return nil, err
	}
	tp, err := InitTracing(ctx, cfg, base)
	if err != nil {
		return nil, err
	}
	lp, logger, err := InitLogging(ctx, cfg, base)
	if err != nil {
		return nil, err
	}
	return &Runtime{MeterProvider: mp, TracerProvider: tp, LoggerProvider: lp, Logger: logger}, nil
}

func (r *Runtime) Shutdown(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.MeterProvider != nil {
		if err := r.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if r.TracerProvider != nil {
		if err := r.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if r.LoggerProvider != nil {
		if err := r.LoggerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
