package otp

import (
	"time"
)

// OTPEvent is an audit snapshot of an OTP row at a lifecycle transition.
type OTPEvent struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	OTPID uint `gorm:"not null;index" json:"otp_id"`

	Email         string     `gorm:"type:varchar(255);not null;index" json:"email"`
	OTPCode       string     `gorm:"column:otp_code;type:varchar(6);not null" json:"otp_code"`
	Purpose       OTPPurpose `gorm:"type:varchar(50);not null" json:"purpose"`
	IsUsed        bool       `gorm:"default:false" json:"is_used"`
	RetryCount    int        `gorm:"default:0" json:"retry_count"`
	MaxRetries    int        `gorm:"default:3" json:"max_retries"`
	IsBlocked     bool       `gorm:"default:false" json:"is_blocked"`
	BlockedUntil  *time.Time `json:"blocked_until,omitempty"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	ExpiresAt     time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`

	EventType string `gorm:"type:varchar(50);not null" json:"event_type"` // created, dispatched, dispatch_failed, verified, ...
}
