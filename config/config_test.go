package config

import (
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("CONFIG_TEST_KEY", "set")
	if got := getEnv("CONFIG_TEST_KEY", "fallback"); got != "set" {
		t.Errorf("getEnv() = %q, want %q", got, "set")
	}
	if got := getEnv("CONFIG_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("getEnv() = %q, want fallback", got)
	}
}

func TestAtoiOrDefault(t *testing.T) {
	tests := []struct {
		in   string
		def  int
		want int
	}{
		{"42", 7, 42},
		{"0", 7, 0},
		{"", 7, 7},
		{"not-a-number", 7, 7},
		{"-3", 7, 7},
	}
	for _, tt := range tests {
		if got := atoiOrDefault(tt.in, tt.def); got != tt.want {
			t.Errorf("atoiOrDefault(%q, %d) = %d, want %d", tt.in, tt.def, got, tt.want)
		}
	}
}

func TestDurationOrDefault(t *testing.T) {
	tests := []struct {
		in   string
		def  time.Duration
		want time.Duration
	}{
		{"10m", 5 * time.Minute, 10 * time.Minute},
		{"", 5 * time.Minute, 5 * time.Minute},
		{"soon", 5 * time.Minute, 5 * time.Minute},
		{"-1h", 5 * time.Minute, 5 * time.Minute},
		{"0s", 5 * time.Minute, 5 * time.Minute},
	}
	for _, tt := range tests {
		if got := durationOrDefault(tt.in, tt.def); got != tt.want {
			t.Errorf("durationOrDefault(%q, %v) = %v, want %v", tt.in, tt.def, got, tt.want)
		}
	}
}

func TestLoadMalformedDurations(t *testing.T) {
	t.Setenv("OTP_TTL", "soon")
	t.Setenv("SESSION_TTL", "-1h")

	cfg := Load()
	if cfg.OTPTTL != 5*time.Minute {
		t.Errorf("malformed OTP_TTL should fall back: got %v", cfg.OTPTTL)
	}
	if cfg.SessionTTL != 168*time.Hour {
		t.Errorf("negative SESSION_TTL should fall back: got %v", cfg.SessionTTL)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.AppEnv != "development" {
		t.Errorf("AppEnv = %q", cfg.AppEnv)
	}
	if cfg.IsProduction() {
		t.Error("development config must not report production")
	}
	if cfg.OTPTTL != 5*time.Minute {
		t.Errorf("OTPTTL = %v", cfg.OTPTTL)
	}
	if !cfg.TelemetryEnabled {
		t.Error("telemetry should default to enabled")
	}
	if cfg.TelemetryWebhookURL != "" || cfg.OTPWebhookURL != "" {
		t.Error("webhook URLs should default to empty")
	}
	if cfg.DebugShowOTP {
		t.Error("debug OTP display should default to off")
	}
	if cfg.RetentionDays != 30 {
		t.Errorf("RetentionDays = %d", cfg.RetentionDays)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_TELEMETRY_ENABLED", "false")
	t.Setenv("AUTH_DEBUG_SHOW_OTP", "true")
	t.Setenv("OTP_MAX_RETRIES", "5")

	cfg := Load()
	if !cfg.IsProduction() {
		t.Error("APP_ENV=production must report production")
	}
	if cfg.TelemetryEnabled {
		t.Error("AUTH_TELEMETRY_ENABLED=false must disable telemetry")
	}
	if !cfg.DebugShowOTP {
		t.Error("AUTH_DEBUG_SHOW_OTP=true must enable debug OTP display")
	}
	if cfg.OTPMaxRetries != 5 {
		t.Errorf("OTPMaxRetries = %d", cfg.OTPMaxRetries)
	}
}
