package telemetry

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rugged-weave-auth/config"

	httpServices "rugged-weave-auth/httpServices/webhook"
)

func TestNewPublisherSelection(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{"disabled forces noop", config.Config{TelemetryEnabled: false, TelemetryWebhookURL: "http://sink"}, "*telemetry.NoopPublisher"},
		{"webhook when url set", config.Config{TelemetryEnabled: true, TelemetryWebhookURL: "http://sink"}, "*telemetry.WebhookPublisher"},
		{"debug when flag set", config.Config{TelemetryEnabled: true, TelemetryDebug: true}, "*telemetry.DebugPublisher"},
		{"noop otherwise", config.Config{TelemetryEnabled: true}, "*telemetry.NoopPublisher"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPublisher(&tt.cfg, nil)
			if got := typeName(p); got != tt.want {
				t.Errorf("NewPublisher() = %s, want %s", got, tt.want)
			}
		})
	}
}

func typeName(p Publisher) string {
	switch p.(type) {
	case *NoopPublisher:
		return "*telemetry.NoopPublisher"
	case *WebhookPublisher:
		return "*telemetry.WebhookPublisher"
	case *DebugPublisher:
		return "*telemetry.DebugPublisher"
	default:
		return "unknown"
	}
}

func TestWebhookPublisherDelivers(t *testing.T) {
	var gotBody []byte
	var gotContentType, gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewWebhookPublisher(httpServices.NewClient(srv.URL, "sink-token"), nil)
	p.Publish("auth.otp.requested", map[string]interface{}{"email_hash": "abc", "type": "sign-in"})

	if gotContentType != "application/json" {
		t.Errorf("content-type = %q, want application/json", gotContentType)
	}
	if gotAuth != "Bearer sink-token" {
		t.Errorf("authorization = %q, want bearer token", gotAuth)
	}

	var ev Event
	if err := json.Unmarshal(gotBody, &ev); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if ev.Event != "auth.otp.requested" {
		t.Errorf("event = %q", ev.Event)
	}
	if ev.Payload["email_hash"] != "abc" || ev.Payload["type"] != "sign-in" {
		t.Errorf("payload = %v", ev.Payload)
	}
	if _, err := time.Parse(time.RFC3339, ev.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", ev.Timestamp, err)
	}
}

func TestWebhookPublisherSwallowsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewWebhookPublisher(httpServices.NewClient(srv.URL, ""), nil)
	// Must not panic or surface the failure in any way.
	p.Publish("auth.otp.requested", map[string]interface{}{"email_hash": "abc"})

	// Unreachable sink is also swallowed.
	srv.Close()
	p.Publish("auth.otp.requested", map[string]interface{}{"email_hash": "abc"})
}

func TestMemoryPublisher(t *testing.T) {
	p := NewMemoryPublisher()
	p.Publish("auth.otp.requested", map[string]interface{}{"email_hash": "a"})
	p.Publish("auth.otp.dispatched", map[string]interface{}{"email_hash": "a"})
	p.Publish("auth.otp.requested", nil)

	if got := len(p.Events()); got != 3 {
		t.Fatalf("recorded %d events, want 3", got)
	}
	if got := len(p.ByName("auth.otp.requested")); got != 2 {
		t.Errorf("ByName(requested) = %d, want 2", got)
	}
	// nil payload normalizes to an empty map
	if p.Events()[2].Payload == nil {
		t.Error("nil payload should be normalized to an empty map")
	}
}
