package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"rugged-weave-auth/config"
	"rugged-weave-auth/logger"
	otpModel "rugged-weave-auth/models/otp"
	"rugged-weave-auth/services/dispatch"
	"rugged-weave-auth/services/otp_event"
	"rugged-weave-auth/services/rate"
	"rugged-weave-auth/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var (
	// ErrActiveOTPExists is returned when a still-valid code exists for the
	// same identity and purpose.
	ErrActiveOTPExists = errors.New("an OTP for this email is still active and hasn't expired yet. Please wait until it expires or use the existing OTP")
	// ErrOTPBlocked marks requests rejected because of too many failed attempts.
	ErrOTPBlocked = errors.New("otp blocked")
)

// Service owns the OTP lifecycle: generation, storage, delivery handoff and
// verification. Delivery itself goes through the dispatch orchestrator.
type Service struct {
	DB         *gorm.DB
	Dispatcher *dispatch.Dispatcher
	Limiter    *rate.Limiter
	TTL        time.Duration
	MaxRetries int
}

// NewOTPService creates a new OTP service
func NewOTPService(db *gorm.DB, dispatcher *dispatch.Dispatcher, limiter *rate.Limiter, cfg *config.Config) *Service {
	return &Service{
		DB:         db,
		Dispatcher: dispatcher,
		Limiter:    limiter,
		TTL:        cfg.OTPTTL,
		MaxRetries: cfg.OTPMaxRetries,
	}
}

// GenerateOTP generates a random 6-digit OTP
func (s *Service) GenerateOTP() (string, error) {
	max := big.NewInt(999999)
	min := big.NewInt(100000)

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	// Ensure the number is at least 6 digits
	n.Add(n, min)
	if n.Cmp(max) > 0 {
		n.Sub(n, max)
		n.Add(n, min)
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}

// SendOTP creates, stores and dispatches an OTP for the given email address.
// A dispatch failure fails the whole send; the stored code is invalidated so
// the caller can retry cleanly.
func (s *Service) SendOTP(ctx context.Context, email string, purpose otpModel.OTPPurpose, c *fiber.Ctx) (*otpModel.OTP, error) {
	email = utils.NormalizeEmail(email)

	if s.Limiter != nil {
		if err := s.Limiter.CanRequest(ctx, email, string(purpose)); err != nil {
			return nil, err
		}
	}

	// A verification block outlives the code's own TTL, so consult the
	// newest row for this identity regardless of expiry.
	latest, err := s.latestOTP(email, purpose)
	if err != nil {
		return nil, err
	}
	if latest != nil && latest.IsCurrentlyBlocked() {
		blockTime := "permanently"
		if latest.BlockedUntil != nil {
			blockTime = fmt.Sprintf("until %s", latest.BlockedUntil.Format("15:04:05"))
		}
		return nil, fmt.Errorf("OTP requests are blocked %s due to too many failed attempts: %w", blockTime, ErrOTPBlocked)
	}

	// Check if there's an existing active OTP for this email and purpose
	existingOTP, err := s.GetOTPStatus(email, purpose)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing OTP: %w", err)
	}

	// If there's an existing OTP that hasn't expired yet, don't send a new one
	if existingOTP != nil && !existingOTP.IsExpired() && !existingOTP.IsUsed {
		return nil, ErrActiveOTPExists
	}

	// Generate OTP code
	otpCode, err := s.GenerateOTP()
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP: %w", err)
	}

	// Invalidate any existing unused OTPs for this email and purpose
	err = s.DB.Model(&otpModel.OTP{}).
		Where("email = ? AND purpose = ? AND is_used = false", email, purpose).
		Update("is_used", true).Error
	if err != nil {
		return nil, fmt.Errorf("failed to invalidate existing OTPs: %w", err)
	}

	// Create new OTP record
	newOTP := &otpModel.OTP{
		Email:      email,
		OTPCode:    otpCode,
		Purpose:    purpose,
		IsUsed:     false,
		RetryCount: 0,
		MaxRetries: s.MaxRetries,
		IsBlocked:  false,
		ExpiresAt:  time.Now().Add(s.TTL),
	}

	if err := s.DB.Create(newOTP).Error; err != nil {
		return nil, fmt.Errorf("failed to create OTP record: %w", err)
	}

	if err := otp_event.SnapshotOTPToEvent(s.DB, newOTP, "created"); err != nil {
		logger.Error("Failed to snapshot OTP created event", err)
	}

	// Hand off to the dispatch orchestrator. Delivery failure is a real
	// failure the caller must know about.
	dispatchErr := s.Dispatcher.HandleOTPDispatch(dispatch.OtpRequest{
		Email:   email,
		Code:    otpCode,
		Purpose: purpose,
	}, c)
	if dispatchErr != nil {
		newOTP.IsUsed = true
		if err := s.DB.Save(newOTP).Error; err != nil {
			logger.Error("Failed to invalidate undelivered OTP", err)
		}
		if err := otp_event.SnapshotOTPToEvent(s.DB, newOTP, "dispatch_failed"); err != nil {
			logger.Error("Failed to snapshot OTP dispatch_failed event", err)
		}
		return nil, fmt.Errorf("failed to dispatch OTP: %w", dispatchErr)
	}

	if err := otp_event.SnapshotOTPToEvent(s.DB, newOTP, "dispatched"); err != nil {
		logger.Error("Failed to snapshot OTP dispatched event", err)
	}

	return newOTP, nil
}

// VerifyOTP verifies the provided OTP code for the given email and purpose
// with retry handling, and returns the OTP record details.
func (s *Service) VerifyOTP(email, otpCode string, purpose otpModel.OTPPurpose) (bool, *otpModel.OTP, error) {
	email = utils.NormalizeEmail(email)

	var otpRecord otpModel.OTP
	err := s.DB.Where("email = ? AND purpose = ? AND is_used = false",
		email, purpose).
		Order("created_at DESC").
		First(&otpRecord).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil, nil // No OTP found
		}
		return false, nil, fmt.Errorf("failed to find OTP record: %w", err)
	}

	// Check if OTP is blocked
	if otpRecord.IsCurrentlyBlocked() {
		blockTime := "permanently"
		if otpRecord.BlockedUntil != nil {
			blockTime = fmt.Sprintf("until %s", otpRecord.BlockedUntil.Format("15:04:05"))
		}
		return false, &otpRecord, fmt.Errorf("OTP verification is blocked %s due to too many failed attempts", blockTime)
	}

	// Check if OTP has expired
	if otpRecord.IsExpired() {
		return false, &otpRecord, fmt.Errorf("OTP has expired")
	}

	// Check if the OTP code matches
	if otpRecord.OTPCode != otpCode {
		// Increment retry count for failed attempt
		otpRecord.IncrementRetry()
		if err := s.DB.Save(&otpRecord).Error; err != nil {
			return false, &otpRecord, fmt.Errorf("failed to update retry count: %w", err)
		}
		if err := otp_event.SnapshotOTPToEvent(s.DB, &otpRecord, "failed_attempt"); err != nil {
			logger.Error("Failed to snapshot OTP failed_attempt event", err)
		}

		remainingAttempts := otpRecord.MaxRetries - otpRecord.RetryCount
		if remainingAttempts <= 0 {
			return false, &otpRecord, fmt.Errorf("invalid OTP. Maximum attempts exceeded. OTP is now blocked")
		}
		return false, &otpRecord, fmt.Errorf("invalid OTP. %d attempts remaining", remainingAttempts)
	}

	// OTP is valid, mark as used
	otpRecord.IsUsed = true
	if err := s.DB.Save(&otpRecord).Error; err != nil {
		return false, &otpRecord, fmt.Errorf("failed to mark OTP as used: %w", err)
	}
	if err := otp_event.SnapshotOTPToEvent(s.DB, &otpRecord, "verified"); err != nil {
		logger.Error("Failed to snapshot OTP verified event", err)
	}

	return true, &otpRecord, nil
}

// GetOTPStatus checks if there's a valid OTP for the given email and purpose
func (s *Service) GetOTPStatus(email string, purpose otpModel.OTPPurpose) (*otpModel.OTP, error) {
	var otpRecord otpModel.OTP

	err := s.DB.Where("email = ? AND purpose = ? AND is_used = false AND expires_at > ?",
		utils.NormalizeEmail(email), purpose, time.Now()).
		Order("created_at DESC").
		First(&otpRecord).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil // No valid OTP found
		}
		return nil, fmt.Errorf("failed to find OTP record: %w", err)
	}

	return &otpRecord, nil
}

// latestOTP returns the newest OTP row for an email and purpose with no
// expiry or usage filter, or nil when none exists.
func (s *Service) latestOTP(email string, purpose otpModel.OTPPurpose) (*otpModel.OTP, error) {
	var otpRecord otpModel.OTP

	err := s.DB.Where("email = ? AND purpose = ?", email, purpose).
		Order("created_at DESC").
		First(&otpRecord).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find OTP record: %w", err)
	}

	return &otpRecord, nil
}

// GetOTPRetryInfo returns retry information for an email and purpose
func (s *Service) GetOTPRetryInfo(email string, purpose otpModel.OTPPurpose) (*OTPRetryInfo, error) {
	var otpRecord otpModel.OTP

	err := s.DB.Where("email = ? AND purpose = ?", utils.NormalizeEmail(email), purpose).
		Order("created_at DESC").
		First(&otpRecord).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// No OTP exists, user can request a new one
			return &OTPRetryInfo{
				CanRequestNewOTP: true,
				CanRetryOTP:      false,
				IsBlocked:        false,
				RemainingRetries: s.MaxRetries,
				BlockedUntil:     nil,
				Message:          "You can request a new OTP",
			}, nil
		}
		return nil, fmt.Errorf("failed to find OTP record: %w", err)
	}

	info := &OTPRetryInfo{
		CanRequestNewOTP: !otpRecord.IsCurrentlyBlocked() && (otpRecord.IsUsed || otpRecord.IsExpired()),
		CanRetryOTP:      otpRecord.CanRetry(),
		IsBlocked:        otpRecord.IsCurrentlyBlocked(),
		RemainingRetries: otpRecord.MaxRetries - otpRecord.RetryCount,
		BlockedUntil:     otpRecord.BlockedUntil,
	}

	// Set appropriate message
	if info.IsBlocked {
		if info.BlockedUntil != nil {
			info.Message = fmt.Sprintf("OTP verification is blocked until %s", info.BlockedUntil.Format("15:04:05"))
		} else {
			info.Message = "OTP verification is permanently blocked"
		}
	} else if info.CanRetryOTP {
		info.Message = fmt.Sprintf("You have %d attempts remaining", info.RemainingRetries)
	} else if info.CanRequestNewOTP {
		info.Message = "You can request a new OTP"
	} else {
		info.Message = "Current OTP is still valid"
	}

	return info, nil
}

// OTPRetryInfo contains information about OTP retry status
type OTPRetryInfo struct {
	CanRequestNewOTP bool       `json:"can_request_new_otp"`
	CanRetryOTP      bool       `json:"can_retry_otp"`
	IsBlocked        bool       `json:"is_blocked"`
	RemainingRetries int        `json:"remaining_retries"`
	BlockedUntil     *time.Time `json:"blocked_until,omitempty"`
	Message          string     `json:"message"`
}
