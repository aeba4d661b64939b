package tracing

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("tracing",
	fx.Provide(NewProvider),
	// Installs the global tracer provider even when nothing injects it.
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)
