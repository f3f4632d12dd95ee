package cleanup

import (
	"fmt"
	"time"

	"rugged-weave-auth/config"
	"rugged-weave-auth/logger"
	otpModel "rugged-weave-auth/models/otp"
	telemetryModel "rugged-weave-auth/models/telemetry"

	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// Service purges expired OTP rows and ages out audit data. Retention cuts
// are aligned to day boundaries so a purge run never splits a day's events.
type Service struct {
	DB            *gorm.DB
	RetentionDays int
}

func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{DB: db, RetentionDays: cfg.RetentionDays}
}

// Run performs one cleanup pass.
func (s *Service) Run() {
	if err := s.ResetExpiredBlocks(); err != nil {
		logger.Error("Failed to reset expired OTP blocks", err)
	}
	if err := s.CleanupExpiredOTPs(); err != nil {
		logger.Error("Failed to clean up expired OTPs", err)
	}
	if err := s.PurgeOldEvents(); err != nil {
		logger.Error("Failed to purge old OTP events", err)
	}
	if err := s.PurgeTelemetryJournal(); err != nil {
		logger.Error("Failed to purge telemetry journal", err)
	}
}

// Schedule runs a pass immediately and then once per interval.
func (s *Service) Schedule(interval time.Duration) {
	s.Run()
	ticker := time.NewTicker(interval)
	for range ticker.C {
		s.Run()
	}
}

// ResetExpiredBlocks lifts verification blocks whose window has lapsed so
// the retry state does not linger on rows still awaiting the purge.
func (s *Service) ResetExpiredBlocks() error {
	var blocked []otpModel.OTP
	err := s.DB.Where("is_blocked = true AND blocked_until IS NOT NULL AND blocked_until < ?", time.Now()).
		Find(&blocked).Error
	if err != nil {
		return fmt.Errorf("failed to find expired blocks: %w", err)
	}

	for _, rec := range blocked {
		rec.Reset()
		if err := s.DB.Save(&rec).Error; err != nil {
			logger.Error(fmt.Sprintf("Failed to reset expired block for OTP ID %d", rec.ID), err)
		}
	}

	return nil
}

// CleanupExpiredOTPs removes expired OTP records. Rows carrying a live
// verification block are kept so the block stays enforceable past the
// code's own TTL.
func (s *Service) CleanupExpiredOTPs() error {
	now := time.Now()
	return s.DB.Where("expires_at < ? AND (is_blocked = false OR blocked_until < ?)", now, now).
		Delete(&otpModel.OTP{}).Error
}

// PurgeOldEvents drops OTP event snapshots older than the retention window.
func (s *Service) PurgeOldEvents() error {
	cutoff := s.retentionCutoff()
	res := s.DB.Where("created_at < ?", cutoff).Delete(&otpModel.OTPEvent{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		logger.Info(fmt.Sprintf("Purged %d OTP event snapshots older than %s", res.RowsAffected, cutoff.Format("2006-01-02")))
	}
	return nil
}

// PurgeTelemetryJournal drops journal rows older than the retention window.
func (s *Service) PurgeTelemetryJournal() error {
	cutoff := s.retentionCutoff()
	res := s.DB.Where("timestamp < ?", cutoff).Delete(&telemetryModel.TelemetryLog{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		logger.Info(fmt.Sprintf("Purged %d telemetry journal rows older than %s", res.RowsAffected, cutoff.Format("2006-01-02")))
	}
	return nil
}

func (s *Service) retentionCutoff() time.Time {
	return now.With(time.Now().AddDate(0, 0, -s.RetentionDays)).BeginningOfDay()
}
