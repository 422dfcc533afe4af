package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/NurFakhiraMohdSaufi/Chatify/internal/httpx"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/service"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func (h *MessageHandler) List(c *fiber.Ctx) error {
	if _, err := viewerName(c); err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	messages, err := h.messageService.List(c.Params("room"))
	if err != nil {
		return httpx.Internal(c, "message_list_failed")
	}

	return c.JSON(fiber.Map{"messages": messages})
}

func (h *MessageHandler) Send(c *fiber.Ctx) error {
	viewer, err := viewerName(c)
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input service.SendMessageInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_body", "Invalid request body")
	}

	message, err := h.messageService.Send(viewer, c.Params("room"), input)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			return httpx.NotFound(c, "room_not_found", "Room not found")
		}
		if errors.Is(err, service.ErrEmptyMessage) {
			return httpx.BadRequest(c, "empty_message", "Message needs text or an image")
		}
		return httpx.Internal(c, "send_failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": message.ToResponse()})
}
