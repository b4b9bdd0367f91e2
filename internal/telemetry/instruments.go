package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan starts a span on the bot's tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationScope).Start(ctx, name, trace.WithAttributes(attrs...))
}

// Instruments are looked up on each call so that they bind to whatever
// provider Init installed.

// RecordCommand counts a parsed operator command.
func RecordCommand(ctx context.Context, kind string) {
	counter, err := otel.Meter(instrumentationScope).Int64Counter("argobot.commands",
		metric.WithDescription("Operator commands received, by kind"))
	if err != nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("command.kind", kind)))
}

// RecordConfirmation counts a yes/no answer to a prompt.
func RecordConfirmation(ctx context.Context, callbackKind, action string) {
	counter, err := otel.Meter(instrumentationScope).Int64Counter("argobot.confirmations",
		metric.WithDescription("Button clicks on confirmation prompts"))
	if err != nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("callback.kind", callbackKind),
		attribute.String("action", action),
	))
}

// RecordRollback counts rollback outcomes. remediationEnabled is the
// auto-disable setting, not whether auto-sync was actually turned off.
func RecordRollback(ctx context.Context, outcome string, remediationEnabled bool) {
	counter, err := otel.Meter(instrumentationScope).Int64Counter("argobot.rollbacks",
		metric.WithDescription("Rollback attempts, by outcome"))
	if err != nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.Bool("autosync.remediation_enabled", remediationEnabled),
	))
}
