package service

import (
	"errors"
	"log"
	"strings"

	"github.com/NurFakhiraMohdSaufi/Chatify/internal/cache"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/live"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/models"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/repository"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/validation"
)

var ErrEmptyMessage = errors.New("message has no content")

type MessageService struct {
	messageRepo repository.MessageRepositoryInterface
	roomRepo    repository.RoomRepositoryInterface
	roomCache   *cache.RoomCache
	broker      *live.Broker
}

func NewMessageService(
	messageRepo repository.MessageRepositoryInterface,
	roomRepo repository.RoomRepositoryInterface,
	roomCache *cache.RoomCache,
	broker *live.Broker,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		roomRepo:    roomRepo,
		roomCache:   roomCache,
		broker:      broker,
	}
}

type SendMessageInput struct {
	Text     string  `json:"text"`
	ImageURL string  `json:"image"`
	ReplyTo  *string `json:"reply_to"`
}

// Send appends a message to the room. Text may be empty when an image is
// attached; a message with neither is rejected. CreatedAt is assigned by the
// store.
func (s *MessageService) Send(user, room string, input SendMessageInput) (*models.Message, error) {
	if _, err := s.roomRepo.FindByName(room); err != nil {
		return nil, ErrRoomNotFound
	}

	text := validation.TrimAndLimit(input.Text, validation.MaxMessageLength())
	if text == "" && input.ImageURL == "" {
		return nil, ErrEmptyMessage
	}

	var replyTo *string
	if input.ReplyTo != nil && strings.TrimSpace(*input.ReplyTo) != "" {
		quoted := validation.TrimAndLimit(*input.ReplyTo, validation.MaxMessageLength())
		replyTo = &quoted
	}

	message := &models.Message{
		Room:     room,
		User:     user,
		Text:     text,
		ImageURL: input.ImageURL,
		ReplyTo:  replyTo,
	}
	if err := s.messageRepo.Create(message); err != nil {
		return nil, err
	}

	if err := s.roomCache.InvalidateMessages(room); err != nil {
		log.Printf("level=warn msg=\"message cache invalidate failed\" room=%q error=%q", room, err)
	}

	s.broker.Publish(live.RoomTopic(room))
	return message, nil
}

// List returns the room's full message history in creation order.
func (s *MessageService) List(room string) ([]models.MessageResponse, error) {
	messages, ok := s.roomCache.GetMessages(room)
	if !ok {
		var err error
		messages, err = s.messageRepo.ListByRoom(room)
		if err != nil {
			return nil, err
		}
		if err := s.roomCache.SetMessages(room, messages); err != nil {
			log.Printf("level=warn msg=\"message cache set failed\" room=%q error=%q", room, err)
		}
	}

	responses := make([]models.MessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, messages[i].ToResponse())
	}
	return responses, nil
}
