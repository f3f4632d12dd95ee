package telemetry

import (
	"time"

	"gorm.io/datatypes"
)

// TelemetryLog is the local journal row for a published telemetry event.
// Payloads carry hashed identifiers only; raw emails and codes never land here.
type TelemetryLog struct {
	ID        uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID   string            `gorm:"type:varchar(64);not null;unique" json:"event_id"`
	Event     string            `gorm:"type:varchar(100);not null;index" json:"event"`
	Payload   datatypes.JSONMap `gorm:"type:jsonb" json:"payload"`
	Timestamp time.Time         `gorm:"not null;index" json:"timestamp"`
	CreatedAt time.Time         `gorm:"autoCreateTime" json:"created_at"`
}
