package auth

import (
	"time"
)

// Session is a server-side session record. The opaque token is what the
// client holds; access tokens are minted from it and never stored.
type Session struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Token     string `gorm:"type:varchar(255);not null;unique" json:"token"`
	UserID    uint   `gorm:"not null;index" json:"user_id"`
	User      User   `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
	IPAddress string `gorm:"type:varchar(64)" json:"ip_address"`
	UserAgent string `gorm:"type:varchar(512)" json:"user_agent"`

	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsExpired checks if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
