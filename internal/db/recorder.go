package db

import (
	"database/sql"

	"go.uber.org/zap"
)

// Recorder writes audit events and swallows storage errors after logging
// them. A nil *Recorder or one without a DB records nothing.
type Recorder struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewRecorder(db *sql.DB, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{db: db, logger: logger.Named("audit")}
}

// Record inserts an event and returns its id, or nil when nothing was stored.
func (r *Recorder) Record(parentID *int64, eventType string, payload map[string]any) *int64 {
	if r == nil || r.db == nil {
		return nil
	}
	id, err := LogEvent(r.db, parentID, eventType, payload)
	if err != nil {
		r.logger.Warn("failed to record event", zap.String("event_type", eventType), zap.Error(err))
		return nil
	}
	return &id
}
