package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/NurFakhiraMohdSaufi/Chatify/internal/httpx"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/repository"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/service"
)

type RoomHandler struct {
	roomService    *service.RoomService
	mediaService   *service.MediaService
	roomRepo       repository.RoomRepositoryInterface
	membershipRepo repository.MembershipRepositoryInterface
	messageRepo    repository.MessageRepositoryInterface
}

func NewRoomHandler(
	roomService *service.RoomService,
	mediaService *service.MediaService,
	roomRepo repository.RoomRepositoryInterface,
	membershipRepo repository.MembershipRepositoryInterface,
	messageRepo repository.MessageRepositoryInterface,
) *RoomHandler {
	return &RoomHandler{
		roomService:    roomService,
		mediaService:   mediaService,
		roomRepo:       roomRepo,
		membershipRepo: membershipRepo,
		messageRepo:    messageRepo,
	}
}

func viewerName(c *fiber.Ctx) (string, error) {
	return httpx.LocalString(c, "displayName")
}

func (h *RoomHandler) Create(c *fiber.Ctx) error {
	viewer, err := viewerName(c)
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input service.CreateRoomInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_body", "Invalid request body")
	}

	room, err := h.roomService.CreateRoom(viewer, input)
	if err != nil {
		if errors.Is(err, service.ErrRoomExists) {
			return httpx.Error(c, fiber.StatusConflict, "room_exists", "A room with this name already exists")
		}
		return httpx.BadRequest(c, "create_failed", err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"room": room.ToResponse()})
}

// List is the one-shot equivalent of the WebSocket room list: the viewer's
// rooms with unread state computed from the current watermarks.
func (h *RoomHandler) List(c *fiber.Ctx) error {
	viewer, err := viewerName(c)
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	snapshot, err := service.BuildRoomList(viewer, h.roomRepo, h.membershipRepo, h.messageRepo)
	if err != nil {
		return httpx.Internal(c, "room_list_failed")
	}

	return c.JSON(snapshot)
}

func (h *RoomHandler) Search(c *fiber.Ctx) error {
	results, err := h.roomService.SearchRooms(c.Query("q"))
	if err != nil {
		return httpx.Internal(c, "search_failed")
	}

	return c.JSON(fiber.Map{"rooms": results})
}

func (h *RoomHandler) Get(c *fiber.Ctx) error {
	room, err := h.roomService.GetRoom(c.Params("room"))
	if err != nil {
		return httpx.NotFound(c, "room_not_found", "Room not found")
	}

	return c.JSON(fiber.Map{"room": room.ToResponse()})
}

func (h *RoomHandler) Members(c *fiber.Ctx) error {
	members, err := h.roomService.GetMembers(c.Params("room"))
	if err != nil {
		return httpx.NotFound(c, "room_not_found", "Room not found")
	}

	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.UserID)
	}
	return c.JSON(fiber.Map{"members": names})
}

func (h *RoomHandler) Join(c *fiber.Ctx) error {
	viewer, err := viewerName(c)
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	if err := h.roomService.JoinRoom(viewer, c.Params("room")); err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			return httpx.NotFound(c, "room_not_found", "Room not found")
		}
		return httpx.Internal(c, "join_failed")
	}

	return c.JSON(fiber.Map{"status": "joined"})
}

func (h *RoomHandler) Leave(c *fiber.Ctx) error {
	viewer, err := viewerName(c)
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	if err := h.roomService.LeaveRoom(viewer, c.Params("room")); err != nil {
		return httpx.NotFound(c, "not_a_member", "Not a member of this room")
	}

	return c.JSON(fiber.Map{"status": "left"})
}

// MarkRead advances the viewer's read watermark; the HTTP fallback for
// clients without an open WebSocket.
func (h *RoomHandler) MarkRead(c *fiber.Ctx) error {
	viewer, err := viewerName(c)
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	if err := h.roomService.MarkRead(viewer, c.Params("room")); err != nil {
		return httpx.Internal(c, "mark_read_failed")
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *RoomHandler) Update(c *fiber.Ctx) error {
	viewer, err := viewerName(c)
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input service.UpdateRoomInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_body", "Invalid request body")
	}

	room, err := h.roomService.UpdateRoom(viewer, c.Params("room"), input)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			return httpx.NotFound(c, "room_not_found", "Room not found")
		}
		if errors.Is(err, service.ErrRoomExists) {
			return httpx.Error(c, fiber.StatusConflict, "room_exists", "A room with this name already exists")
		}
		return httpx.BadRequest(c, "update_failed", err.Error())
	}

	return c.JSON(fiber.Map{"room": room.ToResponse()})
}

func (h *RoomHandler) Delete(c *fiber.Ctx) error {
	viewer, err := viewerName(c)
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	if err := h.roomService.DeleteRoom(viewer, c.Params("room")); err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			return httpx.NotFound(c, "room_not_found", "Room not found")
		}
		if errors.Is(err, service.ErrNotRoomCreator) {
			return httpx.Forbidden(c, "not_creator", "Only the room creator can delete the room")
		}
		return httpx.Internal(c, "delete_failed")
	}

	return c.JSON(fiber.Map{"status": "deleted"})
}

func (h *RoomHandler) UploadPhoto(c *fiber.Ctx) error {
	if _, err := viewerName(c); err != nil {
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

	room, err := h.mediaService.UploadRoomCover(c.Context(), c.Params("room"), f, publicAPIBaseURL(c))
	if err != nil {
		return mediaUploadError(c, err, "photo")
	}

	return c.JSON(fiber.Map{"room": room.ToResponse()})
}
