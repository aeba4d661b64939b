package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Route groups reported on API metrics.
const (
	GroupBilling    = "billing"
	GroupPayments   = "payments"
	GroupSettlement = "settlement"
	GroupOps        = "ops"
	GroupUnmatched  = "unmatched"
)

// HTTPMetrics records API load per route group. Settlement submits are
// split from the other payment routes since they wait on the gateway.
type HTTPMetrics struct {
	environment     string
	requestDuration metric.Float64Histogram
	requests        metric.Int64Counter
	inFlight        metric.Int64UpDownCounter
}

func NewHTTPMetrics(cfg Config, provider metric.MeterProvider) (*HTTPMetrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "propertyhub"
	}
	meter := provider.Meter(name + "/api")

	requestDuration, err := meter.Float64Histogram("propertyhub.api.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("API request latency by route group"),
	)
	if err != nil {
		return nil, err
	}
	requests, err := meter.Int64Counter("propertyhub.api.requests",
		metric.WithDescription("API requests by route group and status class"),
	)
	if err != nil {
		return nil, err
	}
	inFlight, err := meter.Int64UpDownCounter("propertyhub.api.in_flight")
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{
		environment:     cfg.Environment,
		requestDuration: requestDuration,
		requests:        requests,
		inFlight:        inFlight,
	}, nil
}

// GinMiddleware records one observation per request. A nil m passes
// requests through untouched.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		route := c.FullPath()
		group := attribute.String("api.group", RouteGroup(route))
		ctx := c.Request.Context()

		m.inFlight.Add(ctx, 1, metric.WithAttributes(group))
		start := time.Now()
		c.Next()
		m.inFlight.Add(ctx, -1, metric.WithAttributes(group))

		attrs := metric.WithAttributes(FilterAttributes(
			group,
			attribute.String("http.route", routeLabel(route)),
			attribute.String("status_class", StatusClass(c.Writer.Status())),
			attribute.String("environment", m.environment),
		)...)
		m.requests.Add(ctx, 1, attrs)
		m.requestDuration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
	}
}

// RouteGroup maps a registered route template onto its metrics group.
func RouteGroup(route string) string {
	route = strings.TrimSpace(route)
	switch {
	case route == "":
		return GroupUnmatched
	case route == "/healthz" || route == "/metrics":
		return GroupOps
	case strings.HasPrefix(route, "/api/billing"):
		return GroupBilling
	case strings.HasPrefix(route, "/api/payments") && strings.HasSuffix(route, "/submit"):
		return GroupSettlement
	case strings.HasPrefix(route, "/api/payments"):
		return GroupPayments
	}
	return GroupUnmatched
}

// StatusClass collapses a status code to 2xx, 4xx and so on.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

func routeLabel(route string) string {
	if route = strings.TrimSpace(route); route == "" {
		return GroupUnmatched
	}
	return route
}
