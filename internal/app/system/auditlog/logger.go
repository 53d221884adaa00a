// internal/app/system/auditlog/logger.go

// Package auditlog records who did what after every mutating operation.
// Events go to structured logs, to Mongo, or both, depending on the
// configured mode; recording is fire-and-forget and never fails the caller.
package auditlog

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/AbnetS/bidir-group/internal/app/store/audit"
	"github.com/AbnetS/bidir-group/internal/app/system/requestid"
)

// Modes for the audit sink.
const (
	ModeAll = "all" // Mongo + zap
	ModeDB  = "db"  // Mongo only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Logger is the audit sink. A nil Logger is a no-op, so tests can leave it
// out.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	mode   string
}

// New creates an audit Logger. An unrecognized mode behaves like ModeAll.
func New(store *audit.Store, zapLog *zap.Logger, mode string) *Logger {
	return &Logger{store: store, zapLog: zapLog, mode: mode}
}

// Track records one audit event. Store failures are logged and swallowed;
// the triggering operation has already happened and is not rolled back.
func (l *Logger) Track(ctx context.Context, event string, actor primitive.ObjectID, message string) {
	if l == nil || l.mode == ModeOff {
		return
	}

	reqID := requestid.FromContext(ctx)

	if l.mode != ModeDB {
		l.zapLog.Info("audit event",
			zap.Bool("audit", true),
			zap.String("event", event),
			zap.String("actor", actor.Hex()),
			zap.String("message", message),
			zap.String("request_id", reqID),
		)
	}

	if l.mode != ModeLog && l.store != nil {
		err := l.store.Log(ctx, audit.Event{
			Event:     event,
			Actor:     actor,
			Message:   message,
			RequestID: reqID,
		})
		if err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event", event),
			)
		}
	}
}
