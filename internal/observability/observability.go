package observability

import (
	"context"
	"net/http"
	"time"

	"portfolio/internal/config"
	"portfolio/internal/httputils"
	"portfolio/internal/observability/logging"
	"portfolio/internal/observability/metrics"

	"github.com/google/uuid"
)

// Provider provides observability capabilities
type Provider struct {
	Logger  *logging.Logger
	Metrics *metrics.Collector
}

// NewProvider creates a new observability provider
func NewProvider(cfg *config.Config) (*Provider, error) {
	logger, err := logging.NewLogger(cfg.Observability.LogLevel)
	if err != nil {
		return nil, err
	}

	return &Provider{
		Logger:  logger,
		Metrics: metrics.NewCollector(),
	}, nil
}

// propagatedTraceID returns the caller's X-Trace-ID in canonical form, or ""
// when it is missing or not a UUID
func propagatedTraceID(r *http.Request) string {
	id, err := uuid.Parse(r.Header.Get("X-Trace-ID"))
	if err != nil {
		return ""
	}
	return id.String()
}

// Middleware creates an HTTP middleware for request observation
func (p *Provider) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		// Reuse an upstream trace id when one is propagated
		ctx := r.Context()
		traceID := propagatedTraceID(r)
		if traceID == "" {
			traceID = logging.GetTraceIDFromContext(ctx)
		}

		logger, traceID, spanID := p.Logger.WithTracingAndIDs(traceID)
		ctx = logging.ContextWithTraceID(ctx, traceID)
		ctx = logging.ContextWithSpanID(ctx, spanID)
		ctx = logging.ContextWithLogger(ctx, logger)
		route := &routeSlot{name: unmatchedRoute}
		ctx = context.WithValue(ctx, routeKey{}, route)

		wrapper := httputils.NewResponseWriter(w)
		wrapper.Header().Set("X-Trace-ID", traceID)

		logger.Debug("Request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		r = r.WithContext(ctx)
		next.ServeHTTP(wrapper, r)

		duration := time.Since(startTime)
		p.Metrics.RecordRequest(r.Method, route.name, wrapper.StatusCode, duration)

		logger.Info("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route.name,
			"status", wrapper.StatusCode,
			"duration_ms", duration.Milliseconds(),
			"bytes_written", wrapper.BytesWritten,
		)
	})
}

// MetricsHandler returns an HTTP handler for exposing metrics
func (p *Provider) MetricsHandler() http.Handler {
	return metrics.Handler()
}

const unmatchedRoute = "unmatched"

type routeKey struct{}

type routeSlot struct {
	name string
}

// SetRoute labels the current request's metrics with a route template
// instead of the raw path
func SetRoute(ctx context.Context, route string) {
	if slot, ok := ctx.Value(routeKey{}).(*routeSlot); ok && route != "" {
		slot.name = route
	}
}
