package cleanup

import (
	"testing"
	"time"

	otpModel "rugged-weave-auth/models/otp"
	telemetryModel "rugged-weave-auth/models/telemetry"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&otpModel.OTP{}, &otpModel.OTPEvent{}, &telemetryModel.TelemetryLog{}); err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}
	return db
}

func TestResetExpiredBlocks(t *testing.T) {
	db := newTestDB(t)
	s := &Service{DB: db, RetentionDays: 30}

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(10 * time.Minute)

	lapsed := otpModel.OTP{
		Email: "lapsed@example.com", OTPCode: "111111", Purpose: otpModel.OTPPurposeSignIn,
		RetryCount: 3, MaxRetries: 3, IsBlocked: true, BlockedUntil: &past,
		ExpiresAt: past,
	}
	live := otpModel.OTP{
		Email: "live@example.com", OTPCode: "222222", Purpose: otpModel.OTPPurposeSignIn,
		RetryCount: 3, MaxRetries: 3, IsBlocked: true, BlockedUntil: &future,
		ExpiresAt: past,
	}
	if err := db.Create(&lapsed).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := db.Create(&live).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if err := s.ResetExpiredBlocks(); err != nil {
		t.Fatalf("ResetExpiredBlocks() error = %v", err)
	}

	var got otpModel.OTP
	if err := db.First(&got, lapsed.ID).Error; err != nil {
		t.Fatalf("failed to reload lapsed row: %v", err)
	}
	if got.IsBlocked || got.RetryCount != 0 || got.BlockedUntil != nil {
		t.Errorf("lapsed block not reset: %+v", got)
	}

	var kept otpModel.OTP
	if err := db.First(&kept, live.ID).Error; err != nil {
		t.Fatalf("failed to reload live row: %v", err)
	}
	if !kept.IsBlocked {
		t.Error("a block still inside its window must survive the sweep")
	}
}

func TestCleanupExpiredOTPsKeepsLiveBlocks(t *testing.T) {
	db := newTestDB(t)
	s := &Service{DB: db, RetentionDays: 30}

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(10 * time.Minute)

	plain := otpModel.OTP{
		Email: "plain@example.com", OTPCode: "111111", Purpose: otpModel.OTPPurposeSignIn,
		MaxRetries: 3, ExpiresAt: past,
	}
	blocked := otpModel.OTP{
		Email: "blocked@example.com", OTPCode: "222222", Purpose: otpModel.OTPPurposeSignIn,
		RetryCount: 3, MaxRetries: 3, IsBlocked: true, BlockedUntil: &future,
		ExpiresAt: past,
	}
	if err := db.Create(&plain).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := db.Create(&blocked).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if err := s.CleanupExpiredOTPs(); err != nil {
		t.Fatalf("CleanupExpiredOTPs() error = %v", err)
	}

	var count int64
	db.Model(&otpModel.OTP{}).Where("id = ?", plain.ID).Count(&count)
	if count != 0 {
		t.Error("expired unblocked row should be purged")
	}
	db.Model(&otpModel.OTP{}).Where("id = ?", blocked.ID).Count(&count)
	if count != 1 {
		t.Error("expired row under a live block must be kept")
	}
}

func TestPurgeOldRows(t *testing.T) {
	db := newTestDB(t)
	s := &Service{DB: db, RetentionDays: 30}

	old := time.Now().AddDate(0, 0, -40)
	recent := time.Now().AddDate(0, 0, -1)

	events := []otpModel.OTPEvent{
		{OTPID: 1, Email: "a@b.com", OTPCode: "111111", Purpose: otpModel.OTPPurposeSignIn, ExpiresAt: old, CreatedAt: old, EventType: "created"},
		{OTPID: 2, Email: "a@b.com", OTPCode: "222222", Purpose: otpModel.OTPPurposeSignIn, ExpiresAt: recent, CreatedAt: recent, EventType: "created"},
	}
	for i := range events {
		if err := db.Create(&events[i]).Error; err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
	journal := []telemetryModel.TelemetryLog{
		{EventID: "ev-old", Event: "auth.otp.requested", Timestamp: old},
		{EventID: "ev-recent", Event: "auth.otp.requested", Timestamp: recent},
	}
	for i := range journal {
		if err := db.Create(&journal[i]).Error; err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	if err := s.PurgeOldEvents(); err != nil {
		t.Fatalf("PurgeOldEvents() error = %v", err)
	}
	if err := s.PurgeTelemetryJournal(); err != nil {
		t.Fatalf("PurgeTelemetryJournal() error = %v", err)
	}

	var count int64
	db.Model(&otpModel.OTPEvent{}).Count(&count)
	if count != 1 {
		t.Errorf("event snapshots after purge = %d, want 1", count)
	}
	db.Model(&telemetryModel.TelemetryLog{}).Count(&count)
	if count != 1 {
		t.Errorf("journal rows after purge = %d, want 1", count)
	}
}
