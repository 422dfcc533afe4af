package models

import (
	"time"

	"gorm.io/gorm"
)

// RefreshToken is one rotation of a user's long-lived session credential.
// Only the SHA-256 hash of the opaque token is stored; the plaintext lives
// client-side and is replaced on every refresh.
type RefreshToken struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	TokenHash string     `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"index;not null" json:"expires_at"`
	RevokedAt *time.Time `gorm:"index" json:"-"`
}

// IsRevoked reports whether the token was invalidated by rotation or logout.
func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}
