package service

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/NurFakhiraMohdSaufi/Chatify/internal/cache"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/live"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/models"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/repository"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/validation"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomExists     = errors.New("room already exists")
	ErrNotRoomCreator = errors.New("only the room creator can do this")
)

const searchLimit = 50

type RoomService struct {
	roomRepo       repository.RoomRepositoryInterface
	membershipRepo repository.MembershipRepositoryInterface
	messageRepo    repository.MessageRepositoryInterface
	roomCache      *cache.RoomCache
	broker         *live.Broker
}

func NewRoomService(
	roomRepo repository.RoomRepositoryInterface,
	membershipRepo repository.MembershipRepositoryInterface,
	messageRepo repository.MessageRepositoryInterface,
	roomCache *cache.RoomCache,
	broker *live.Broker,
) *RoomService {
	return &RoomService{
		roomRepo:       roomRepo,
		membershipRepo: membershipRepo,
		messageRepo:    messageRepo,
		roomCache:      roomCache,
		broker:         broker,
	}
}

type CreateRoomInput struct {
	Name        string `json:"room"`
	Description string `json:"description"`
}

type UpdateRoomInput struct {
	Name        string `json:"room"`
	Description string `json:"description"`
}

// CreateRoom creates the room and immediately makes the creator a member.
// A fresh membership carries no read watermark.
func (s *RoomService) CreateRoom(creator string, input CreateRoomInput) (*models.Room, error) {
	name := strings.TrimSpace(input.Name)
	if !validation.ValidateRoomName(name) {
		return nil, errors.New("invalid room name")
	}

	if _, err := s.roomRepo.FindByName(name); err == nil {
		return nil, ErrRoomExists
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = models.DefaultRoomDescription
	}

	room := &models.Room{
		Name:        name,
		Description: description,
		CreatedBy:   creator,
	}
	if err := s.roomRepo.Create(room); err != nil {
		return nil, err
	}

	if err := s.membershipRepo.Create(&models.Membership{UserID: creator, RoomID: name}); err != nil {
		log.Printf("level=error msg=\"creator membership failed\" room=%q user=%q error=%q", name, creator, err)
	}

	s.broker.Publish(live.MembershipTopic(creator))
	return room, nil
}

func (s *RoomService) GetRoom(name string) (*models.Room, error) {
	if cached, ok := s.roomCache.GetRoom(name); ok {
		return cached, nil
	}

	room, err := s.roomRepo.FindByName(name)
	if err != nil {
		return nil, ErrRoomNotFound
	}

	if err := s.roomCache.SetRoom(room); err != nil {
		log.Printf("level=warn msg=\"room cache set failed\" room=%q error=%q", name, err)
	}
	return room, nil
}

// SearchRooms matches rooms whose name starts with the query. An empty query
// returns the first page of all rooms.
func (s *RoomService) SearchRooms(query string) ([]models.RoomResponse, error) {
	rooms, err := s.roomRepo.SearchByPrefix(strings.TrimSpace(query), searchLimit)
	if err != nil {
		return nil, err
	}

	responses := make([]models.RoomResponse, 0, len(rooms))
	for i := range rooms {
		responses = append(responses, rooms[i].ToResponse())
	}
	return responses, nil
}

// JoinRoom is idempotent: joining a room the user already belongs to leaves
// the membership, and its read watermark, untouched.
func (s *RoomService) JoinRoom(user, roomName string) error {
	if _, err := s.roomRepo.FindByName(roomName); err != nil {
		return ErrRoomNotFound
	}

	if _, err := s.membershipRepo.Find(user, roomName); err == nil {
		return nil
	}

	if err := s.membershipRepo.Create(&models.Membership{UserID: user, RoomID: roomName}); err != nil {
		return err
	}

	s.broker.Publish(live.MembershipTopic(user))
	return nil
}

func (s *RoomService) LeaveRoom(user, roomName string) error {
	if err := s.membershipRepo.Delete(user, roomName); err != nil {
		return err
	}

	s.broker.Publish(live.MembershipTopic(user))
	return nil
}

// MarkRead advances the user's read watermark to now. Absent memberships are
// created with the watermark already set. The read-then-write pair is not
// atomic; concurrent marks are last-write-wins.
func (s *RoomService) MarkRead(user, roomName string) error {
	now := time.Now()
	if _, err := s.membershipRepo.Find(user, roomName); err != nil {
		if err := s.membershipRepo.Create(&models.Membership{UserID: user, RoomID: roomName, LastRead: &now}); err != nil {
			return err
		}
		s.broker.Publish(live.MembershipTopic(user))
	} else {
		if err := s.membershipRepo.SetLastRead(user, roomName, now); err != nil {
			return err
		}
	}

	s.broker.Publish(live.RoomTopic(roomName))
	return nil
}

func (s *RoomService) GetMembers(roomName string) ([]models.Membership, error) {
	if _, err := s.roomRepo.FindByName(roomName); err != nil {
		return nil, ErrRoomNotFound
	}
	return s.membershipRepo.ListByRoom(roomName)
}

// UpdateRoom edits name and description. A rename is propagated to messages
// and memberships as sequential writes with no rollback; a failed step is
// logged and the rest still run.
func (s *RoomService) UpdateRoom(requester, oldName string, input UpdateRoomInput) (*models.Room, error) {
	room, err := s.roomRepo.FindByName(oldName)
	if err != nil {
		return nil, ErrRoomNotFound
	}

	if _, err := s.membershipRepo.Find(requester, oldName); err != nil {
		return nil, errors.New("not a member of this room")
	}

	newName := strings.TrimSpace(input.Name)
	if newName == "" {
		newName = oldName
	}
	if !validation.ValidateRoomName(newName) {
		return nil, errors.New("invalid room name")
	}

	renamed := newName != oldName
	if renamed {
		if _, err := s.roomRepo.FindByName(newName); err == nil {
			return nil, ErrRoomExists
		}
	}

	var members []models.Membership
	if renamed {
		members, err = s.membershipRepo.ListByRoom(oldName)
		if err != nil {
			log.Printf("level=error msg=\"list members failed\" room=%q error=%q", oldName, err)
		}
	}

	room.Name = newName
	if desc := strings.TrimSpace(input.Description); desc != "" {
		room.Description = desc
	}
	if err := s.roomRepo.Update(room); err != nil {
		return nil, err
	}

	if renamed {
		if err := s.messageRepo.RenameRoom(oldName, newName); err != nil {
			log.Printf("level=error msg=\"rename room in messages failed\" room=%q error=%q", oldName, err)
		}
		if err := s.membershipRepo.RenameRoom(oldName, newName); err != nil {
			log.Printf("level=error msg=\"rename room in memberships failed\" room=%q error=%q", oldName, err)
		}
	}

	s.invalidate(oldName)
	s.invalidate(newName)

	s.broker.Publish(live.RoomTopic(oldName))
	if renamed {
		s.broker.Publish(live.RoomTopic(newName))
		for _, m := range members {
			s.broker.Publish(live.MembershipTopic(m.UserID))
		}
	}

	return room, nil
}

// SetPhoto records a stored cover image on the room row.
func (s *RoomService) SetPhoto(roomName, key, url, contentType string) (*models.Room, error) {
	room, err := s.roomRepo.FindByName(roomName)
	if err != nil {
		return nil, ErrRoomNotFound
	}

	room.PhotoKey = key
	room.PhotoURL = url
	room.PhotoContentType = contentType
	if err := s.roomRepo.Update(room); err != nil {
		return nil, err
	}

	s.invalidate(roomName)

	members, err := s.membershipRepo.ListByRoom(roomName)
	if err == nil {
		for _, m := range members {
			s.broker.Publish(live.MembershipTopic(m.UserID))
		}
	}
	return room, nil
}

// DeleteRoom removes the room with everything in it. Only the creator may
// delete; the cascade runs messages first, then memberships, then the room.
func (s *RoomService) DeleteRoom(requester, roomName string) error {
	room, err := s.roomRepo.FindByName(roomName)
	if err != nil {
		return ErrRoomNotFound
	}
	if room.CreatedBy != requester {
		return ErrNotRoomCreator
	}

	members, err := s.membershipRepo.ListByRoom(roomName)
	if err != nil {
		log.Printf("level=error msg=\"list members failed\" room=%q error=%q", roomName, err)
	}

	if err := s.messageRepo.DeleteByRoom(roomName); err != nil {
		return err
	}
	if err := s.membershipRepo.DeleteByRoom(roomName); err != nil {
		return err
	}
	if err := s.roomRepo.Delete(roomName); err != nil {
		return err
	}

	s.invalidate(roomName)

	s.broker.Publish(live.RoomTopic(roomName))
	for _, m := range members {
		s.broker.Publish(live.MembershipTopic(m.UserID))
	}
	return nil
}

func (s *RoomService) invalidate(roomName string) {
	// Pattern delete covers the room info and message snapshot keys together.
	if err := s.roomCache.InvalidateRoom(roomName); err != nil {
		log.Printf("level=warn msg=\"room cache invalidate failed\" room=%q error=%q", roomName, err)
	}
}
