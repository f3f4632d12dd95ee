package dispatch

import (
	"errors"

	"rugged-weave-auth/config"
	"rugged-weave-auth/logger"

	httpServices "rugged-weave-auth/httpServices/webhook"
)

// ErrTransportNotConfigured is returned when no delivery webhook is set and
// the runtime is production without the debug-show override. There is no
// silent fallback in production.
var ErrTransportNotConfigured = errors.New("otp transport not configured")

// DeliveryPayload is the body handed to the delivery channel.
type DeliveryPayload struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
	Type  string `json:"type"`
}

// Transport delivers a one-time code to its recipient. Unlike telemetry,
// delivery failures propagate: the caller must know the code never went out.
type Transport interface {
	Send(payload DeliveryPayload) error
}

// SelectTransport resolves the delivery channel once at startup: webhook if
// configured, else the local debug log outside production (or with the
// explicit debug-show override), else a transport that always fails.
func SelectTransport(cfg *config.Config) Transport {
	if cfg.OTPWebhookURL != "" {
		return &WebhookTransport{
			client: httpServices.NewClient(cfg.OTPWebhookURL, cfg.OTPWebhookToken),
		}
	}
	if cfg.DebugShowOTP || !cfg.IsProduction() {
		return &DebugTransport{}
	}
	return &unconfiguredTransport{}
}

// WebhookTransport POSTs the payload to the delivery provider's webhook.
type WebhookTransport struct {
	client *httpServices.WebhookClient
}

func NewWebhookTransport(client *httpServices.WebhookClient) *WebhookTransport {
	return &WebhookTransport{client: client}
}

func (t *WebhookTransport) Send(payload DeliveryPayload) error {
	return t.client.Post(payload)
}

// DebugTransport writes the code to the local diagnostic log so that
// environments without a delivery provider still function.
type DebugTransport struct{}

func (t *DebugTransport) Send(payload DeliveryPayload) error {
	logger.Printf("OTP for %s: %s (purpose: %s)", payload.Email, payload.OTP, payload.Type)
	return nil
}

type unconfiguredTransport struct{}

func (t *unconfiguredTransport) Send(payload DeliveryPayload) error {
	return ErrTransportNotConfigured
}
