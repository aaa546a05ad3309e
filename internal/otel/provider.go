// Package otel wires the OpenTelemetry log pipeline behind the slog bridge
// and hands out meters for the frame scheduler.
package otel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ErrNoExporter is returned when OTel is enabled without any log output.
var ErrNoExporter = errors.New("OTel enabled but no log writer or endpoint configured")

// Config holds OTel configuration
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	BatchTimeout   time.Duration
	LogWriter      io.Writer // pretty-printed records, usually the log file
	Endpoint       string    // OTLP/HTTP endpoint, skipped when empty
	Insecure       bool
}

// Provider owns the log provider of a simulator run. A disabled provider is
// valid and does nothing.
type Provider struct {
	cfg         Config
	logProvider *sdklog.LoggerProvider
}

// New creates a provider. It returns a no-op provider when cfg.Enabled is
// false.
func New(cfg Config) (*Provider, error) {
	p := &Provider{cfg: cfg}
	if !cfg.Enabled {
		return p, nil
	}

	ctx := context.Background()

	attrs := []resource.Option{resource.WithAttributes(semconv.ServiceName(cfg.ServiceName))}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceVersion(cfg.ServiceVersion)))
	}
	res, err := resource.New(ctx, attrs...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	processors, err := logProcessors(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := make([]sdklog.LoggerProviderOption, 0, len(processors)+1)
	opts = append(opts, sdklog.WithResource(res))
	for _, proc := range processors {
		opts = append(opts, sdklog.WithProcessor(proc))
	}
	p.logProvider = sdklog.NewLoggerProvider(opts...)

	return p, nil
}

// logProcessors builds one batch processor per configured output.
func logProcessors(ctx context.Context, cfg Config) ([]sdklog.Processor, error) {
	batch := func(e sdklog.Exporter) sdklog.Processor {
		return sdklog.NewBatchProcessor(e, sdklog.WithExportTimeout(cfg.BatchTimeout))
	}

	var processors []sdklog.Processor

	if cfg.LogWriter != nil {
		exp, err := stdoutlog.New(
			stdoutlog.WithWriter(cfg.LogWriter),
			stdoutlog.WithPrettyPrint(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create file log exporter: %w", err)
		}
		processors = append(processors, batch(exp))
	}

	if cfg.Endpoint != "" {
		opts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlploghttp.WithInsecure())
		}
		exp, err := otlploghttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
		}
		processors = append(processors, batch(exp))
	}

	if len(processors) == 0 {
		return nil, ErrNoExporter
	}
	return processors, nil
}

// LoggerProvider returns the log provider for the otelslog bridge, or nil
// when disabled.
func (p *Provider) LoggerProvider() *sdklog.LoggerProvider {
	return p.logProvider
}

// Meter returns a meter from the global meter provider, or a no-op meter
// when disabled.
func (p *Provider) Meter(name string) metric.Meter {
	if !p.cfg.Enabled {
		return noop.Meter{}
	}
	return otel.Meter(name)
}

// Flush exports pending log records.
func (p *Provider) Flush(ctx context.Context) error {
	if p.logProvider == nil {
		return nil
	}
	if err := p.logProvider.ForceFlush(ctx); err != nil {
		return fmt.Errorf("log flush failed: %w", err)
	}
	return nil
}

// Shutdown flushes and stops the log provider. Call once on exit.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.logProvider == nil {
		return nil
	}
	if err := p.logProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("log shutdown failed: %w", err)
	}
	return nil
}

// Enabled reports whether OTel is enabled.
func (p *Provider) Enabled() bool {
	return p.cfg.Enabled
}
