package telemetry

import (
	"time"

	"rugged-weave-auth/logger"

	httpServices "rugged-weave-auth/httpServices/webhook"
)

// WebhookPublisher POSTs event envelopes to the configured telemetry sink.
// Delivery failures are logged as warnings and swallowed; a dispatch must
// never fail because its telemetry did.
type WebhookPublisher struct {
	client  *httpServices.WebhookClient
	journal *logger.AsyncLogger
}

func NewWebhookPublisher(client *httpServices.WebhookClient, journal *logger.AsyncLogger) *WebhookPublisher {
	return &WebhookPublisher{client: client, journal: journal}
}

func (p *WebhookPublisher) Publish(event string, payload map[string]interface{}) {
	now := time.Now().UTC()
	ev := newEvent(event, payload, now)

	if err := p.client.Post(ev); err != nil {
		logger.Warning("Failed to publish telemetry event " + event + " to " + p.client.URL() + ": " + err.Error())
	}

	journalEvent(p.journal, ev, now)
}
