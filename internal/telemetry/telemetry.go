// Package telemetry wires the process's structured logger to an
// OpenTelemetry LoggerProvider via the otelslog bridge, and exposes a
// TracerProvider for instrumenting the VP lifecycle and GDB proxy
// connection cycle.
//
// Grounded on SPEC_FULL.md §2: the teacher's go.mod already requires
// otelslog and otel/sdk without exercising them anywhere in its own
// source, so this package is new code following the ecosystem's
// documented wiring shape (LoggerProvider -> otelslog.NewHandler ->
// slog.New) rather than a teacher file.
package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Provider bundles the process-wide logger and tracer built on the otel
// SDK.
type Provider struct {
	Logger *slog.Logger
	Tracer trace.Tracer

	loggerProvider *sdklog.LoggerProvider
	tracerProvider *sdktrace.TracerProvider
}

// New builds a Provider. No exporter is configured: log records and spans
// are produced for in-process correlation (trace IDs attach to slog
// records via the bridge) without shipping anywhere — instrumentation
// only, per §2, never altering control flow.
func New() *Provider {
	lp := sdklog.NewLoggerProvider()
	tp := sdktrace.NewTracerProvider()

	handler := otelslog.NewHandler("vpbridge", otelslog.WithLoggerProvider(lp))
	otel.SetTracerProvider(tp)

	return &Provider{
		Logger:         slog.New(handler),
		Tracer:         tp.Tracer("vpbridge"),
		loggerProvider: lp,
		tracerProvider: tp,
	}
}

// Shutdown flushes and releases the logger and tracer providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if err := p.loggerProvider.Shutdown(ctx); err != nil {
		return err
	}
	return p.tracerProvider.Shutdown(ctx)
}
