package models

import (
	"time"

	"gorm.io/gorm"
)

// Message is append-only: content is never edited after creation. The only
// mutations are reference fixups when an author or a room is renamed.
// CreatedAt is server-assigned and monotonically increasing within a room.
type Message struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Room string `gorm:"size:100;not null;index" json:"room"`
	User string `gorm:"size:100;not null" json:"user"`
	Text string `gorm:"type:text" json:"text"`

	// ImageURL points at a stored attachment. ReplyTo carries the quoted text
	// of the message being replied to, not a reference to it.
	ImageURL string  `json:"image,omitempty"`
	ReplyTo  *string `json:"reply_to"`
}

type MessageResponse struct {
	ID        uint      `json:"id"`
	Room      string    `json:"room"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	ImageURL  string    `json:"image,omitempty"`
	ReplyTo   *string   `json:"reply_to"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *Message) ToResponse() MessageResponse {
	user := m.User
	if user == "" {
		user = "Unknown"
	}
	return MessageResponse{
		ID:        m.ID,
		Room:      m.Room,
		User:      user,
		Text:      m.Text,
		ImageURL:  m.ImageURL,
		ReplyTo:   m.ReplyTo,
		CreatedAt: m.CreatedAt,
	}
}
