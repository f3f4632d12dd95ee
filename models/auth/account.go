package auth

import (
	"time"
)

// Account links a user to an auth provider. For the credential provider the
// row carries the bcrypt password hash; social providers store their own
// provider-side account id instead.
type Account struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint   `gorm:"not null;index" json:"user_id"`
	User       User   `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
	ProviderID string `gorm:"type:varchar(50);not null;index" json:"provider_id"`
	AccountID  string `gorm:"type:varchar(255);not null" json:"account_id"`

	PasswordHash *string `gorm:"type:varchar(255)" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
