package handlers

import (
	"errors"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/NurFakhiraMohdSaufi/Chatify/internal/httpx"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/service"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/storage"
)

type UserHandler struct {
	userService  *service.UserService
	mediaService *service.MediaService
}

func NewUserHandler(userService *service.UserService, mediaService *service.MediaService) *UserHandler {
	return &UserHandler{userService: userService, mediaService: mediaService}
}

func publicAPIBaseURL(c *fiber.Ctx) string {
	base := strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_API_BASE_URL")), "/")
	if base != "" {
		return base
	}
	// Fallback: infer from request.
	return strings.TrimRight(c.BaseURL(), "/") + "/api"
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	user, err := h.userService.GetUser(userID)
	if err != nil {
		return httpx.NotFound(c, "user_not_found", "User not found")
	}

	return c.JSON(fiber.Map{"user": user.ToResponse()})
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input service.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_body", "Invalid request body")
	}

	user, err := h.userService.UpdateProfile(userID, input)
	if err != nil {
		if errors.Is(err, service.ErrDisplayNameTaken) {
			return httpx.Error(c, fiber.StatusConflict, "display_name_taken", "Display name already in use")
		}
		return httpx.BadRequest(c, "update_failed", err.Error())
	}

	return c.JSON(fiber.Map{"user": user.ToResponse()})
}

func (h *UserHandler) UploadPhoto(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return httpx.BadRequest(c, "missing_photo", "photo file is required")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return httpx.BadRequest(c, "invalid_photo", "Invalid photo upload")
	}
	defer f.Close()

	user, err := h.mediaService.UploadProfilePhoto(c.Context(), userID, f, publicAPIBaseURL(c))
	if err != nil {
		return mediaUploadError(c, err, "photo")
	}

	return c.JSON(fiber.Map{"user": user.ToResponse()})
}

func mediaUploadError(c *fiber.Ctx, err error, field string) error {
	if errors.Is(err, service.ErrStorageNotConfigured) {
		return httpx.Error(c, fiber.StatusServiceUnavailable, "storage_not_configured", "Storage not configured")
	}
	if errors.Is(err, storage.ErrTooLarge) {
		return httpx.BadRequest(c, field+"_too_large", "Image is too large")
	}
	if errors.Is(err, storage.ErrUnsupported) {
		return httpx.BadRequest(c, field+"_unsupported", "Unsupported image type")
	}
	if errors.Is(err, storage.ErrInvalidImage) {
		return httpx.BadRequest(c, field+"_invalid", "Invalid image")
	}
	if errors.Is(err, service.ErrRoomNotFound) {
		return httpx.NotFound(c, "room_not_found", "Room not found")
	}
	return httpx.Internal(c, field+"_upload_failed")
}
