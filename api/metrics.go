package api

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	metricsKey         = "requestMetrics"
	requestMetricsName = "http.request.metrics"
)

var tracer = otel.Tracer("taskboard-api/api")

type requestMetrics struct {
	logger       *log.Logger
	start        time.Time
	route        string
	method       string
	authDuration time.Duration
	callerID     int64
	errorStage   string
	span         trace.Span
}

func newRequestMetrics(logger *log.Logger, method, route string) *requestMetrics {
	return &requestMetrics{
		logger: logger,
		start:  time.Now(),
		method: method,
		route:  route,
	}
}

// metricsFrom returns the request's metrics. The nil result is safe to use.
func metricsFrom(c echo.Context) *requestMetrics {
	m, _ := c.Get(metricsKey).(*requestMetrics)
	return m
}

func (m *requestMetrics) ObserveAuth(duration time.Duration) {
	if m == nil || duration <= 0 {
		return
	}
	m.authDuration = duration
}

func (m *requestMetrics) SetCallerID(id int64) {
	if m == nil {
		return
	}
	m.callerID = id
	if m.span != nil {
		m.span.SetAttributes(attribute.Int64("caller.id", id))
	}
}

func (m *requestMetrics) SetErrorStage(stage string) {
	if m == nil || stage == "" || m.errorStage != "" {
		return
	}
	m.errorStage = stage
}

func (m *requestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	if m.span != nil {
		m.span.SetAttributes(semconv.HTTPResponseStatusCode(status))
		if status >= 500 {
			m.span.SetStatus(codes.Error, fmt.Sprintf("status %d", status))
		}
		if err != nil {
			m.span.RecordError(err)
		}
		m.span.End()
	}
	if m.logger == nil {
		return
	}

	fields := log.Fields{
		"route":    m.route,
		"method":   m.method,
		"status":   status,
		"total_ms": durationToMillis(time.Since(m.start)),
	}
	if m.authDuration > 0 {
		fields["auth_ms"] = durationToMillis(m.authDuration)
	}
	if m.callerID != 0 {
		fields["caller_id"] = m.callerID
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	m.logger.WithFields(fields).Info(requestMetricsName)
}

// requestMetricsMiddleware opens a server span per request and logs one metrics line
// after the error handler has written the response.
func requestMetricsMiddleware(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			route := c.Path()
			m := newRequestMetrics(logger, req.Method, route)

			ctx := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))
			ctx, span := tracer.Start(ctx, req.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(req.Method),
					semconv.HTTPRoute(route),
				))
			m.span = span
			c.SetRequest(req.WithContext(ctx))
			c.Set(metricsKey, m)

			err := next(c)
			if err != nil {
				m.SetErrorStage(errorStage(err))
				c.Error(err)
			}
			m.Log(c.Response().Status, err)
			return nil
		}
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
