package metrics

import (
	"net/http"
	"strings"

	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
)

var Module = fx.Module("metrics",
	fx.Provide(func(cfg config.Config) Config {
		return Config{ServiceName: cfg.ServiceName, Environment: cfg.Environment}
	}),
	fx.Provide(BillingWithConfig),
	fx.Provide(func(cfg Config) (*HTTPMetrics, error) {
		return NewHTTPMetrics(cfg, otel.GetMeterProvider())
	}),
)

// Config labels every exported series.
type Config struct {
	ServiceName string
	Environment string
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

var highCardinalityKeys = []string{
	"id",
	"receipt",
	"card",
}

// FilterAttributes drops attributes that would explode series cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if isHighCardinality(string(attr.Key)) {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

func isHighCardinality(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, needle := range highCardinalityKeys {
		if key == needle || strings.HasSuffix(key, "_"+needle) || strings.HasPrefix(key, needle+"_") {
			return true
		}
	}
	return false
}
