package logger

import (
	"context"
	"testing"

	obsctx "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/observability/context"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func captureGlobal(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	orig := zap.L()
	zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(func() { zap.ReplaceGlobals(orig) })
	return logs
}

func TestFromContextIncludesRequestActorAndTrace(t *testing.T) {
	logs := captureGlobal(t)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})

	ctx := obsctx.WithRequestID(context.Background(), "req-7")
	ctx = obsctx.WithActor(ctx, "landlord", "1")
	ctx = trace.ContextWithSpanContext(ctx, sc)

	FromContext(ctx).Info("payment deleted")
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	want := map[string]string{
		"request_id": "req-7",
		"actor_type": "landlord",
		"actor_id":   "1",
		"trace_id":   traceID.String(),
		"span_id":    spanID.String(),
	}
	for key, value := range want {
		if fields[key] != value {
			t.Fatalf("expected %s %q, got %v", key, value, fields[key])
		}
	}
}

func TestFromContextWithoutFields(t *testing.T) {
	logs := captureGlobal(t)

	FromContext(context.Background()).Info("rent generation finished")
	FromContext(obsctx.WithActor(context.Background(), "tenant", "")).Info("tenant without id")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if fields := entries[0].ContextMap(); len(fields) != 0 {
		t.Fatalf("expected no context fields, got %v", fields)
	}
	fields := entries[1].ContextMap()
	if fields["actor_type"] != "tenant" {
		t.Fatalf("expected actor_type tenant, got %v", fields["actor_type"])
	}
	if _, ok := fields["actor_id"]; ok {
		t.Fatalf("expected no actor_id for an empty id, got %v", fields["actor_id"])
	}
}
