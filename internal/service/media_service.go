package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/NurFakhiraMohdSaufi/Chatify/internal/models"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/storage"
)

var ErrStorageNotConfigured = errors.New("storage not configured")

// MediaService stores processed images: profile photos, room covers, and
// in-chat attachments. Everything is normalized to JPEG before upload.
type MediaService struct {
	userService *UserService
	roomService *RoomService
	s3          *storage.S3Storage
}

func NewMediaService(userService *UserService, roomService *RoomService, s3 *storage.S3Storage) *MediaService {
	return &MediaService{userService: userService, roomService: roomService, s3: s3}
}

// UploadProfilePhoto processes an uploaded image and stores it as the user's
// profile photo. Returns the updated user.
func (s *MediaService) UploadProfilePhoto(ctx context.Context, userID uint, fileReader io.Reader, publicAPIBaseURL string) (*models.User, error) {
	if s.s3 == nil {
		return nil, ErrStorageNotConfigured
	}
	base, err := normalizeBaseURL(publicAPIBaseURL)
	if err != nil {
		return nil, err
	}

	user, err := s.userService.GetUser(userID)
	if err != nil {
		return nil, errors.New("user not found")
	}

	jpegBytes, contentType, outSize, err := storage.ProcessImage(fileReader, storage.ProfilePhotoOptions())
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("profile_photos/%d/%s.jpg", userID, uuid.NewString())
	if _, err := s.s3.PutObject(ctx, key, bytes.NewReader(jpegBytes), outSize, contentType); err != nil {
		return nil, err
	}

	// Keep old key; delete only after the row update succeeds.
	oldKey := strings.TrimSpace(user.PhotoKey)

	updated, err := s.userService.SetPhoto(userID, key, base+"/media/"+key, contentType, outSize)
	if err != nil {
		_ = s.s3.DeleteObject(ctx, key)
		return nil, err
	}

	if oldKey != "" && oldKey != key {
		_ = s.s3.DeleteObject(ctx, oldKey)
	}

	return updated, nil
}

// UploadRoomCover processes an uploaded image and stores it as the room's
// cover. Returns the updated room.
func (s *MediaService) UploadRoomCover(ctx context.Context, roomName string, fileReader io.Reader, publicAPIBaseURL string) (*models.Room, error) {
	if s.s3 == nil {
		return nil, ErrStorageNotConfigured
	}
	base, err := normalizeBaseURL(publicAPIBaseURL)
	if err != nil {
		return nil, err
	}

	room, err := s.roomService.GetRoom(roomName)
	if err != nil {
		return nil, err
	}

	jpegBytes, contentType, outSize, err := storage.ProcessImage(fileReader, storage.RoomCoverOptions())
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("room_covers/%d/%s.jpg", room.ID, uuid.NewString())
	if _, err := s.s3.PutObject(ctx, key, bytes.NewReader(jpegBytes), outSize, contentType); err != nil {
		return nil, err
	}

	oldKey := strings.TrimSpace(room.PhotoKey)

	updated, err := s.roomService.SetPhoto(roomName, key, base+"/media/"+key, contentType)
	if err != nil {
		_ = s.s3.DeleteObject(ctx, key)
		return nil, err
	}

	if oldKey != "" && oldKey != key {
		_ = s.s3.DeleteObject(ctx, oldKey)
	}

	return updated, nil
}

// UploadAttachment stores an in-chat image and returns its public URL. The
// message referencing it is created separately by the sender.
func (s *MediaService) UploadAttachment(ctx context.Context, roomName string, fileReader io.Reader, publicAPIBaseURL string) (string, error) {
	if s.s3 == nil {
		return "", ErrStorageNotConfigured
	}
	base, err := normalizeBaseURL(publicAPIBaseURL)
	if err != nil {
		return "", err
	}

	room, err := s.roomService.GetRoom(roomName)
	if err != nil {
		return "", err
	}

	jpegBytes, contentType, outSize, err := storage.ProcessImage(fileReader, storage.AttachmentOptions())
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("attachments/%d/%s.jpg", room.ID, uuid.NewString())
	if _, err := s.s3.PutObject(ctx, key, bytes.NewReader(jpegBytes), outSize, contentType); err != nil {
		return "", err
	}

	return base + "/media/" + key, nil
}

func normalizeBaseURL(base string) (string, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return "", errors.New("missing public api base url")
	}
	return base, nil
}
