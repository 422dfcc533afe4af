package models

import (
	"time"
)

// Membership associates one user (by display name) with one room (by name),
// unique per pair. LastRead is the per-room read watermark: messages created
// strictly after it count as unread. A nil LastRead means the room was never
// opened, so every message from another user is unread.
type Membership struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID   string     `gorm:"uniqueIndex:idx_user_room;size:100;not null" json:"user_id"`
	RoomID   string     `gorm:"uniqueIndex:idx_user_room;size:100;not null;index" json:"room_id"`
	JoinedAt time.Time  `gorm:"autoCreateTime" json:"joined_at"`
	LastRead *time.Time `json:"last_read"`
}

// Watermark returns the read cutoff, zero time when the watermark is absent.
func (m *Membership) Watermark() time.Time {
	if m == nil || m.LastRead == nil {
		return time.Time{}
	}
	return *m.LastRead
}
