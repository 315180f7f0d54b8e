package reconcile

import (
	"context"
	"log/slog"
	"time"
)

const (
	// KindOrphanedIdentity marks an identity whose profile insert failed and
	// whose compensating delete also failed.
	KindOrphanedIdentity = "orphaned_identity"
)

// Record describes an inconsistency that needs manual or batch repair.
type Record struct {
	Kind       string
	IdentityID string
	Email      string
	Cause      string
	At         time.Time
}

// Recorder persists reconciliation records.
type Recorder interface {
	Record(ctx context.Context, record Record) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, record Record) error

func (f RecorderFunc) Record(ctx context.Context, record Record) error {
	return f(ctx, record)
}

// LoggerRecorder writes records to the structured logger at error level so
// they can be picked up by log-based alerting.
type LoggerRecorder struct {
	logger *slog.Logger
}

// NewLoggerRecorder constructs a logging recorder.
func NewLoggerRecorder(logger *slog.Logger) *LoggerRecorder {
	return &LoggerRecorder{logger: logger}
}

// Record writes the record to the structured logger.
func (r *LoggerRecorder) Record(ctx context.Context, record Record) error {
	if r == nil || r.logger == nil {
		return nil
	}
	record = stamp(record)
	r.logger.ErrorContext(ctx, "reconciliation required",
		slog.String("kind", record.Kind),
		slog.String("identity_id", record.IdentityID),
		slog.String("email", record.Email),
		slog.String("cause", record.Cause),
		slog.Time("at", record.At),
	)
	return nil
}
