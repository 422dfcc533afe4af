package repository

import (
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/models"
	"gorm.io/gorm"
)

// highCodepoint bounds prefix-range room search the way the original client
// queried its document store: name >= q and name <= q + a high codepoint.
const highCodepoint = "\uf8ff"

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) Create(room *models.Room) error {
	return r.db.Create(room).Error
}

func (r *RoomRepository) FindByName(name string) (*models.Room, error) {
	var room models.Room
	err := r.db.Where("name = ?", name).First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepository) SearchByPrefix(prefix string, limit int) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.Where("name >= ? AND name <= ?", prefix, prefix+highCodepoint).
		Order("name ASC").
		Limit(limit).
		Find(&rooms).Error
	return rooms, err
}

func (r *RoomRepository) Update(room *models.Room) error {
	return r.db.Save(room).Error
}

// RenameCreator rewrites created_by references when a user changes display
// name.
func (r *RoomRepository) RenameCreator(oldName, newName string) error {
	return r.db.Model(&models.Room{}).
		Where("created_by = ?", oldName).
		Update("created_by", newName).Error
}

func (r *RoomRepository) Delete(name string) error {
	return r.db.Where("name = ?", name).Delete(&models.Room{}).Error
}
