package logger

import (
	"log"

	telemetryModel "rugged-weave-auth/models/telemetry"

	"gorm.io/gorm"
)

// AsyncLogger journals telemetry events into the database off the request
// path. Writes are best-effort: when the channel is full the entry is
// dropped with a warning rather than blocking a dispatch.
type AsyncLogger struct {
	db      *gorm.DB
	channel chan telemetryModel.TelemetryLog
}

func NewAsyncLogger(db *gorm.DB) *AsyncLogger {
	return &AsyncLogger{
		db:      db,
		channel: make(chan telemetryModel.TelemetryLog, 100), // Buffered channel to hold journal entries
	}
}

func (logger *AsyncLogger) ProcessLog() {
	log.Println("Starting asynchronous telemetry journal...")

	for entry := range logger.channel {
		if err := logger.db.Create(&entry).Error; err != nil {
			log.Printf("Failed to insert telemetry journal entry: %v", err)
		}
	}
}

// Log pushes a journal entry into the channel without blocking.
func (logger *AsyncLogger) Log(entry telemetryModel.TelemetryLog) {
	select {
	case logger.channel <- entry:
	default:
		Warning("Telemetry journal channel full, dropping event " + entry.Event)
	}
}
