package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/momentum-app/momentum-backend/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

type AppMetrics struct {
	registerCounter      metric.Int64Counter
	loginCounter         metric.Int64Counter
	refreshCounter       metric.Int64Counter
	logoutCounter        metric.Int64Counter
	passwordResetCounter metric.Int64Counter
	repoOpCounter        metric.Int64Counter
	accessTokenCounter   metric.Int64Counter
	rateLimitCounter     metric.Int64Counter
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.OTELEnvironment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp)

	meter := mp.Meter("momentum-backend")
	m := &AppMetrics{}
	for _, c := range []struct {
		name string
		dst  *metric.Int64Counter
	}{
		{"auth.register.attempts", &m.registerCounter},
		{"auth.login.attempts", &m.loginCounter},
		{"auth.refresh.attempts", &m.refreshCounter},
		{"auth.logout.attempts", &m.logoutCounter},
		{"auth.password_reset.events", &m.passwordResetCounter},
		{"repository.operations", &m.repoOpCounter},
		{"auth.access_token.validations", &m.accessTokenCounter},
		{"http.rate_limit.decisions", &m.rateLimitCounter},
	} {
		counter, err := meter.Int64Counter(c.name)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func loadMetrics() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordAuthRegister(status string) {
	m := loadMetrics()
	if m == nil {
		return
	}
	m.registerCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordAuthLogin(status string) {
	m := loadMetrics()
	if m == nil {
		return
	}
	m.loginCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordAuthRefresh(status string) {
	m := loadMetrics()
	if m == nil {
		return
	}
	m.refreshCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordAuthLogout(status string) {
	m := loadMetrics()
	if m == nil {
		return
	}
	m.logoutCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordPasswordResetEvent tags the stage (requested, sent, completed,
// rejected) so abuse of the forgot-password path shows up on dashboards.
func RecordPasswordResetEvent(stage string) {
	m := loadMetrics()
	if m == nil {
		return
	}
	m.passwordResetCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("stage", stage)))
}

func RecordRepositoryOperation(ctx context.Context, entity, operation, outcome string) {
	m := loadMetrics()
	if m == nil {
		return
	}
	m.repoOpCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordRateLimitDecision(ctx context.Context, scope, decision string) {
	m := loadMetrics()
	if m == nil {
		return
	}
	m.rateLimitCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("decision", decision),
	))
}

func RecordAccessTokenValidation(ctx context.Context, outcome string) {
	m := loadMetrics()
	if m == nil {
		return
	}
	m.accessTokenCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
