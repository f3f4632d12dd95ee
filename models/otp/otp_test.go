package otp

import (
	"testing"
	"time"
)

func TestParsePurpose(t *testing.T) {
	tests := []struct {
		in   string
		want OTPPurpose
		ok   bool
	}{
		{"sign-in", OTPPurposeSignIn, true},
		{"email-verification", OTPPurposeEmailVerification, true},
		{"forget-password", OTPPurposeForgetPassword, true},
		{"signin", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParsePurpose(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParsePurpose(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIncrementRetryBelowMax(t *testing.T) {
	o := &OTP{MaxRetries: 3, ExpiresAt: time.Now().Add(5 * time.Minute)}

	o.IncrementRetry()
	if o.RetryCount != 1 {
		t.Errorf("RetryCount = %d, want 1", o.RetryCount)
	}
	if o.IsBlocked {
		t.Error("a single failed attempt must not block")
	}
	if o.LastAttemptAt == nil {
		t.Error("last attempt time must be recorded")
	}
	if !o.CanRetry() {
		t.Error("should still be retryable below max")
	}
}

func TestIncrementRetryBlocksAtMax(t *testing.T) {
	o := &OTP{MaxRetries: 3, ExpiresAt: time.Now().Add(5 * time.Minute)}

	for i := 0; i < o.MaxRetries; i++ {
		o.IncrementRetry()
	}

	if !o.IsBlocked {
		t.Fatal("exhausting retries must block the OTP")
	}
	if o.BlockedUntil == nil {
		t.Fatal("block must carry an expiry")
	}
	window := time.Until(*o.BlockedUntil)
	if window < 14*time.Minute || window > 15*time.Minute {
		t.Errorf("block window = %v, want about 15 minutes", window)
	}
	if !o.IsCurrentlyBlocked() {
		t.Error("IsCurrentlyBlocked() must report the fresh block")
	}
	if o.CanRetry() {
		t.Error("blocked OTP must not be retryable")
	}
}

func TestBlockLapsesAfterWindow(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	o := &OTP{IsBlocked: true, BlockedUntil: &past}

	if o.IsCurrentlyBlocked() {
		t.Error("an elapsed block window must not count as blocked")
	}
}

func TestNilBlockedUntilIsPermanent(t *testing.T) {
	o := &OTP{IsBlocked: true}
	if !o.IsCurrentlyBlocked() {
		t.Error("a block without an expiry is permanent")
	}
}

func TestReset(t *testing.T) {
	now := time.Now()
	until := now.Add(15 * time.Minute)
	o := &OTP{
		RetryCount:    3,
		MaxRetries:    3,
		IsBlocked:     true,
		BlockedUntil:  &until,
		LastAttemptAt: &now,
		ExpiresAt:     now.Add(5 * time.Minute),
	}

	o.Reset()

	if o.RetryCount != 0 || o.IsBlocked || o.BlockedUntil != nil || o.LastAttemptAt != nil {
		t.Errorf("Reset() left state behind: %+v", o)
	}
	if !o.CanRetry() {
		t.Error("reset OTP should be retryable again")
	}
}

func TestIsValid(t *testing.T) {
	future := time.Now().Add(5 * time.Minute)
	past := time.Now().Add(-time.Minute)

	tests := []struct {
		name string
		otp  OTP
		want bool
	}{
		{"fresh", OTP{ExpiresAt: future}, true},
		{"used", OTP{ExpiresAt: future, IsUsed: true}, false},
		{"expired", OTP{ExpiresAt: past}, false},
		{"blocked", OTP{ExpiresAt: future, IsBlocked: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.otp.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}
