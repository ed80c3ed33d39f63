package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/momentum-app/momentum-backend/internal/config"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
)

// NewBaseLogger builds the process logger before telemetry is up:
// text in development, JSON elsewhere.
func NewBaseLogger(cfg *config.Config) *slog.Logger {
	if cfg != nil && cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// InitLogging upgrades logging to ship records over OTLP. The returned
// provider must be shut down on exit; the returned logger replaces the
// base one when telemetry is enabled.
func InitLogging(ctx context.Context, cfg *config.Config, base *slog.Logger) (*sdklog.LoggerProvider, *slog.Logger, error) {
	if !cfg.OTELEnabled {
		return nil, base, nil
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create otlp log exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.OTELEnvironment),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create log resource: %w", err)
	}

	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(res),
	)
	logger := slog.New(otelslog.NewHandler("momentum-backend", otelslog.WithLoggerProvider(lp)))
	slog.SetDefault(logger)

	base.Info("otel logging initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return lp, logger, nil
}
