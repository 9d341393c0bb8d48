// Package metrics records client-side request metrics through request hooks.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/eshaffer321/streamly-go/internal/types"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "streamly_client"

// RequestMetrics holds Prometheus metrics for backend calls
type RequestMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ErrorsTotal     *prometheus.CounterVec
}

// NewRequestMetrics creates and registers request metrics on the given registry
func NewRequestMetrics(reg prometheus.Registerer) *RequestMetrics {
	m := &RequestMetrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total backend responses by service, method and status code.",
		}, []string{"service", "method", "status_code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of backend requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "method"}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Total classified request failures by service and kind.",
		}, []string{"service", "kind"}),
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.ErrorsTotal)
	return m
}

// Hooks returns request hooks that record into m. Existing hooks in next
// still run after recording.
func (m *RequestMetrics) Hooks(next *types.Hooks) *types.Hooks {
	return &types.Hooks{
		OnRequest: func(ctx context.Context, req *http.Request) {
			if next != nil && next.OnRequest != nil {
				next.OnRequest(ctx, req)
			}
		},
		OnResponse: func(ctx context.Context, resp *http.Response, duration time.Duration) {
			service := serviceLabel(ctx)
			method := ""
			if resp.Request != nil {
				method = resp.Request.Method
			}
			m.RequestsTotal.WithLabelValues(service, method, strconv.Itoa(resp.StatusCode)).Inc()
			m.RequestDuration.WithLabelValues(service, method).Observe(duration.Seconds())

			if next != nil && next.OnResponse != nil {
				next.OnResponse(ctx, resp, duration)
			}
		},
		OnError: func(ctx context.Context, err error) {
			m.ErrorsTotal.WithLabelValues(serviceLabel(ctx), string(types.KindOf(err))).Inc()

			if next != nil && next.OnError != nil {
				next.OnError(ctx, err)
			}
		},
	}
}

func serviceLabel(ctx context.Context) string {
	if s, ok := types.ServiceFromContext(ctx); ok {
		return string(s)
	}
	return "unknown"
}
