package service

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/NurFakhiraMohdSaufi/Chatify/internal/live"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/models"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/repository"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/validation"
)

type UserService struct {
	userRepo       repository.UserRepositoryInterface
	roomRepo       repository.RoomRepositoryInterface
	membershipRepo repository.MembershipRepositoryInterface
	messageRepo    repository.MessageRepositoryInterface
	broker         *live.Broker
}

func NewUserService(
	userRepo repository.UserRepositoryInterface,
	roomRepo repository.RoomRepositoryInterface,
	membershipRepo repository.MembershipRepositoryInterface,
	messageRepo repository.MessageRepositoryInterface,
	broker *live.Broker,
) *UserService {
	return &UserService{
		userRepo:       userRepo,
		roomRepo:       roomRepo,
		membershipRepo: membershipRepo,
		messageRepo:    messageRepo,
		broker:         broker,
	}
}

type UpdateProfileInput struct {
	DisplayName string `json:"display_name"`
}

func (s *UserService) GetUser(userID uint) (*models.User, error) {
	return s.userRepo.FindByID(userID)
}

// UpdateProfile changes the display name and propagates the new name to every
// record that references it: authored messages, rooms created by the user, and
// the user's memberships. The steps run sequentially without a transaction; a
// failed step is logged and the remaining steps still run, matching the
// original client's fan-out writes.
func (s *UserService) UpdateProfile(userID uint, input UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	newName := strings.TrimSpace(input.DisplayName)
	if !validation.ValidateDisplayName(newName) {
		return nil, errors.New("invalid display name")
	}

	oldName := user.DisplayName
	if newName == oldName {
		return user, nil
	}

	if existing, err := s.userRepo.FindByDisplayName(newName); err == nil && existing.ID != userID {
		return nil, ErrDisplayNameTaken
	}

	if err := s.messageRepo.RenameUser(oldName, newName); err != nil {
		log.Printf("level=error msg=\"rename user in messages failed\" user_id=%d error=%q", userID, err)
	}
	if err := s.roomRepo.RenameCreator(oldName, newName); err != nil {
		log.Printf("level=error msg=\"rename room creator failed\" user_id=%d error=%q", userID, err)
	}

	memberships, err := s.membershipRepo.ListByUser(oldName)
	if err != nil {
		log.Printf("level=error msg=\"list memberships failed\" user_id=%d error=%q", userID, err)
	}
	if err := s.membershipRepo.RenameUser(oldName, newName); err != nil {
		log.Printf("level=error msg=\"rename user in memberships failed\" user_id=%d error=%q", userID, err)
	}

	user.DisplayName = newName
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	// Old-name subscribers must tear down their views; rooms the user posted
	// in re-read messages under the new author name.
	s.broker.Publish(live.MembershipTopic(oldName))
	s.broker.Publish(live.MembershipTopic(newName))
	for _, m := range memberships {
		s.broker.Publish(live.RoomTopic(m.RoomID))
	}

	return user, nil
}

// SetPhoto records a stored profile photo on the user row.
func (s *UserService) SetPhoto(userID uint, key, url, contentType string, size int64) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.PhotoKey = key
	user.PhotoURL = url
	user.PhotoContentType = contentType
	user.PhotoSizeBytes = size
	user.PhotoUpdatedAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}
