package otp_event

import (
	otpModel "rugged-weave-auth/models/otp"

	"gorm.io/gorm"
)

// SnapshotOTPToEvent writes a full snapshot of an OTP row into OTPEvent with the given event type.
func SnapshotOTPToEvent(tx *gorm.DB, o *otpModel.OTP, eventType string) error {
	ev := otpModel.OTPEvent{
		OTPID:         o.ID,
		Email:         o.Email,
		OTPCode:       o.OTPCode,
		Purpose:       o.Purpose,
		IsUsed:        o.IsUsed,
		RetryCount:    o.RetryCount,
		MaxRetries:    o.MaxRetries,
		IsBlocked:     o.IsBlocked,
		BlockedUntil:  o.BlockedUntil,
		LastAttemptAt: o.LastAttemptAt,
		ExpiresAt:     o.ExpiresAt,
		CreatedAt:     o.CreatedAt,
		EventType:     eventType,
	}

	return tx.Create(&ev).Error
}
