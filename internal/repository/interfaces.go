package repository

import (
	"time"

	"github.com/NurFakhiraMohdSaufi/Chatify/internal/models"
)

// UserRepositoryInterface defines the contract for user repository operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	FindByEmail(email string) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	FindByDisplayName(displayName string) (*models.User, error)
	FindByID(id uint) (*models.User, error)
	Update(user *models.User) error
	MarkEmailVerified(userID uint) error
}

// RoomRepositoryInterface defines the contract for room repository operations
type RoomRepositoryInterface interface {
	Create(room *models.Room) error
	FindByName(name string) (*models.Room, error)
	SearchByPrefix(prefix string, limit int) ([]models.Room, error)
	Update(room *models.Room) error
	RenameCreator(oldName, newName string) error
	Delete(name string) error
}

// MembershipRepositoryInterface defines the contract for membership operations.
// Memberships are keyed by the (user display name, room name) pair and carry
// the per-room read watermark.
type MembershipRepositoryInterface interface {
	Create(membership *models.Membership) error
	Find(userID, roomID string) (*models.Membership, error)
	ListByUser(userID string) ([]models.Membership, error)
	ListByRoom(roomID string) ([]models.Membership, error)
	Delete(userID, roomID string) error
	DeleteByRoom(roomID string) error
	SetLastRead(userID, roomID string, lastRead time.Time) error
	RenameRoom(oldName, newName string) error
	RenameUser(oldName, newName string) error
}

// MessageRepositoryInterface defines the contract for message repository operations
type MessageRepositoryInterface interface {
	Create(message *models.Message) error
	FindByID(id uint) (*models.Message, error)
	ListByRoom(room string) ([]models.Message, error)
	DeleteByRoom(room string) error
	RenameRoom(oldName, newName string) error
	RenameUser(oldName, newName string) error
}

// RefreshTokenRepositoryInterface defines the contract for refresh token repository operations
type RefreshTokenRepositoryInterface interface {
	Create(token *models.RefreshToken) error
	FindValidByHash(tokenHash string) (*models.RefreshToken, error)
	RevokeByHash(tokenHash string) error
}
