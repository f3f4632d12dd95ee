package dispatch

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"rugged-weave-auth/config"

	httpServices "rugged-weave-auth/httpServices/webhook"
)

func TestSelectTransport(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{"webhook when url set", config.Config{OTPWebhookURL: "http://hook", AppEnv: "production"}, "*dispatch.WebhookTransport"},
		{"debug outside production", config.Config{AppEnv: "development"}, "*dispatch.DebugTransport"},
		{"debug override in production", config.Config{AppEnv: "production", DebugShowOTP: true}, "*dispatch.DebugTransport"},
		{"unconfigured in production", config.Config{AppEnv: "production"}, "*dispatch.unconfiguredTransport"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := SelectTransport(&tt.cfg)
			if got := transportName(tr); got != tt.want {
				t.Errorf("SelectTransport() = %s, want %s", got, tt.want)
			}
		})
	}
}

func transportName(tr Transport) string {
	switch tr.(type) {
	case *WebhookTransport:
		return "*dispatch.WebhookTransport"
	case *DebugTransport:
		return "*dispatch.DebugTransport"
	case *unconfiguredTransport:
		return "*dispatch.unconfiguredTransport"
	default:
		return "unknown"
	}
}

func TestWebhookTransportDelivers(t *testing.T) {
	var gotBody []byte
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	tr := NewWebhookTransport(httpServices.NewClient(srv.URL, "delivery-token"))
	err := tr.Send(DeliveryPayload{Email: "jane.doe@example.com", OTP: "123456", Type: "sign-in"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if gotAuth != "Bearer delivery-token" {
		t.Errorf("authorization = %q", gotAuth)
	}

	var payload DeliveryPayload
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload.Email != "jane.doe@example.com" || payload.OTP != "123456" || payload.Type != "sign-in" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestWebhookTransportPropagatesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tr := NewWebhookTransport(httpServices.NewClient(srv.URL, ""))
	if err := tr.Send(DeliveryPayload{Email: "a@b.com", OTP: "000000", Type: "sign-in"}); err == nil {
		t.Error("Send() should fail on non-2xx status")
	}

	srv.Close()
	if err := tr.Send(DeliveryPayload{Email: "a@b.com", OTP: "000000", Type: "sign-in"}); err == nil {
		t.Error("Send() should fail on network error")
	}
}

func TestDebugTransportAlwaysSucceeds(t *testing.T) {
	tr := &DebugTransport{}
	if err := tr.Send(DeliveryPayload{Email: "a@b.com", OTP: "123456", Type: "email-verification"}); err != nil {
		t.Errorf("Send() error = %v", err)
	}
}

func TestUnconfiguredTransport(t *testing.T) {
	tr := &unconfiguredTransport{}
	err := tr.Send(DeliveryPayload{Email: "a@b.com", OTP: "123456", Type: "sign-in"})
	if !errors.Is(err, ErrTransportNotConfigured) {
		t.Errorf("Send() error = %v, want ErrTransportNotConfigured", err)
	}
}
