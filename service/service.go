// Package service implements the ownership-scoped board and task operations. Every
// operation runs in a single store transaction and resolves access through Guard
// before touching a resource.
package service

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"taskboard-api/domain"
	"taskboard-api/storage"
)

var tracer = otel.Tracer("taskboard-api/service")

// Store opens transactions. *sqlite.Store satisfies it.
type Store interface {
	WithTx(ctx context.Context, fn func(storage.Tx) error) error
}

func startSpan(ctx context.Context, name string, callerID int64, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.Int64("caller.id", callerID))
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err on span. Expected outcomes such as a denied or missing resource
// are recorded as events without marking the span failed.
func endSpan(span trace.Span, err error) {
	defer span.End()
	if err == nil {
		return
	}
	span.RecordError(err)
	if !isExpected(err) {
		span.SetStatus(codes.Error, err.Error())
	}
}

func isExpected(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrForbidden) ||
		errors.Is(err, domain.ErrInvalidToken) ||
		domain.IsValidation(err)
}

// logFailure reports unexpected store errors at Error level.
func logFailure(logger *log.Logger, op string, callerID int64, err error) {
	if err == nil || isExpected(err) {
		return
	}
	logger.WithFields(log.Fields{
		"op":        op,
		"caller_id": callerID,
	}).WithError(err).Error("store operation failed")
}
