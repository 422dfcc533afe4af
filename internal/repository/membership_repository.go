package repository

import (
	"time"

	"github.com/NurFakhiraMohdSaufi/Chatify/internal/models"
	"gorm.io/gorm"
)

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Create(membership *models.Membership) error {
	return r.db.Create(membership).Error
}

func (r *MembershipRepository) Find(userID, roomID string) (*models.Membership, error) {
	var membership models.Membership
	err := r.db.Where("user_id = ? AND room_id = ?", userID, roomID).First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *MembershipRepository) ListByUser(userID string) ([]models.Membership, error) {
	var memberships []models.Membership
	err := r.db.Where("user_id = ?", userID).Order("joined_at ASC").Find(&memberships).Error
	return memberships, err
}

func (r *MembershipRepository) ListByRoom(roomID string) ([]models.Membership, error) {
	var memberships []models.Membership
	err := r.db.Where("room_id = ?", roomID).Order("joined_at ASC").Find(&memberships).Error
	return memberships, err
}

func (r *MembershipRepository) Delete(userID, roomID string) error {
	return r.db.Where("user_id = ? AND room_id = ?", userID, roomID).Delete(&models.Membership{}).Error
}

func (r *MembershipRepository) DeleteByRoom(roomID string) error {
	return r.db.Where("room_id = ?", roomID).Delete(&models.Membership{}).Error
}

func (r *MembershipRepository) SetLastRead(userID, roomID string, lastRead time.Time) error {
	return r.db.Model(&models.Membership{}).
		Where("user_id = ? AND room_id = ?", userID, roomID).
		Update("last_read", lastRead).Error
}

func (r *MembershipRepository) RenameRoom(oldName, newName string) error {
	return r.db.Model(&models.Membership{}).
		Where("room_id = ?", oldName).
		Update("room_id", newName).Error
}

func (r *MembershipRepository) RenameUser(oldName, newName string) error {
	return r.db.Model(&models.Membership{}).
		Where("user_id = ?", oldName).
		Update("user_id", newName).Error
}
