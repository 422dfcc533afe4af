package repository

import (
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/models"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

func (r *MessageRepository) FindByID(id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.First(&message, id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// ListByRoom returns the room's full message set in creation order, matching
// the snapshot shape the live subscription delivers.
func (r *MessageRepository) ListByRoom(room string) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where("room = ?", room).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

func (r *MessageRepository) DeleteByRoom(room string) error {
	return r.db.Where("room = ?", room).Delete(&models.Message{}).Error
}

func (r *MessageRepository) RenameRoom(oldName, newName string) error {
	return r.db.Model(&models.Message{}).
		Where("room = ?", oldName).
		Update("room", newName).Error
}

func (r *MessageRepository) RenameUser(oldName, newName string) error {
	return r.db.Model(&models.Message{}).
		Where("\"user\" = ?", oldName).
		Update("user", newName).Error
}
