package models

import (
	"time"

	"gorm.io/gorm"
)

const DefaultRoomDescription = "Type your group description here..."

// Room is keyed by its name: the API, memberships, and messages all reference
// rooms by name. Renames are propagated to those references (see RoomService).
type Room struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string `gorm:"uniqueIndex;size:100;not null" json:"room"`
	Description string `gorm:"size:255" json:"description"`
	CreatedBy   string `gorm:"not null" json:"created_by"`

	PhotoURL         string `json:"photo_url"`
	PhotoKey         string `json:"-"`
	PhotoContentType string `json:"-"`
}

type RoomResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"room"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	PhotoURL    string    `json:"photo_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r *Room) ToResponse() RoomResponse {
	return RoomResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedBy:   r.CreatedBy,
		PhotoURL:    r.PhotoURL,
		CreatedAt:   r.CreatedAt,
	}
}
