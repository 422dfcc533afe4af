package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// DisplayName is the chat identity: memberships and messages reference
	// users by display name, not by row id.
	DisplayName   string `gorm:"uniqueIndex;size:100;not null" json:"display_name"`
	EmailVerified bool   `gorm:"default:false" json:"email_verified"`

	PhotoURL         string     `json:"photo_url"`
	PhotoKey         string     `json:"-"`
	PhotoContentType string     `json:"-"`
	PhotoSizeBytes   int64      `json:"-"`
	PhotoUpdatedAt   *time.Time `json:"-"`
}

type UserResponse struct {
	ID            uint   `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name"`
	EmailVerified bool   `json:"email_verified"`
	PhotoURL      string `json:"photo_url"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		EmailVerified: u.EmailVerified,
		PhotoURL:      u.PhotoURL,
	}
}
