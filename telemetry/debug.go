package telemetry

import (
	"encoding/json"
	"time"

	"rugged-weave-auth/logger"
)

// DebugPublisher writes event envelopes to the local diagnostic log. Used
// in environments without a telemetry sink.
type DebugPublisher struct {
	journal *logger.AsyncLogger
}

func NewDebugPublisher(journal *logger.AsyncLogger) *DebugPublisher {
	return &DebugPublisher{journal: journal}
}

func (p *DebugPublisher) Publish(event string, payload map[string]interface{}) {
	now := time.Now().UTC()
	ev := newEvent(event, payload, now)

	body, err := json.Marshal(ev)
	if err != nil {
		logger.Warning("Failed to marshal telemetry event " + event + ": " + err.Error())
		return
	}
	logger.Info("telemetry " + string(body))

	journalEvent(p.journal, ev, now)
}
