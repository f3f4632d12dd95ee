package telemetry

import (
	"time"

	"rugged-weave-auth/config"
	"rugged-weave-auth/logger"
	telemetryModel "rugged-weave-auth/models/telemetry"

	httpServices "rugged-weave-auth/httpServices/webhook"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Event is the wire envelope for a lifecycle event.
type Event struct {
	Event     string                 `json:"event"`
	Payload   map[string]interface{} `json:"payload"`
	Timestamp string                 `json:"timestamp"`
}

// Publisher emits lifecycle events to an observability sink. Publishing is
// best-effort: implementations never propagate failures to the caller.
type Publisher interface {
	Publish(event string, payload map[string]interface{})
}

// NewPublisher resolves the sink from configuration: webhook when a URL is
// configured, local debug log when the debug flag is on, silent no-op
// otherwise. AUTH_TELEMETRY_ENABLED=false forces the no-op.
func NewPublisher(cfg *config.Config, journal *logger.AsyncLogger) Publisher {
	if !cfg.TelemetryEnabled {
		return &NoopPublisher{}
	}
	if cfg.TelemetryWebhookURL != "" {
		return NewWebhookPublisher(httpServices.NewClient(cfg.TelemetryWebhookURL, cfg.TelemetryWebhookToken), journal)
	}
	if cfg.TelemetryDebug {
		return NewDebugPublisher(journal)
	}
	return &NoopPublisher{}
}

// NoopPublisher discards events. Telemetry is optional infrastructure, not
// a correctness dependency.
type NoopPublisher struct{}

func (p *NoopPublisher) Publish(event string, payload map[string]interface{}) {}

func newEvent(event string, payload map[string]interface{}, at time.Time) Event {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return Event{
		Event:     event,
		Payload:   payload,
		Timestamp: at.Format(time.RFC3339),
	}
}

func journalEvent(journal *logger.AsyncLogger, ev Event, at time.Time) {
	if journal == nil {
		return
	}
	journal.Log(telemetryModel.TelemetryLog{
		EventID:   uuid.NewString(),
		Event:     ev.Event,
		Payload:   datatypes.JSONMap(ev.Payload),
		Timestamp: at,
	})
}
