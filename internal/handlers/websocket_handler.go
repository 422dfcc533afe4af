package handlers

import (
	"log"
	"os"

	"github.com/gofiber/websocket/v2"

	"github.com/NurFakhiraMohdSaufi/Chatify/internal/handlers/ws"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/live"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/repository"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/service"
)

type WebSocketHandler struct {
	broker         *live.Broker
	roomRepo       repository.RoomRepositoryInterface
	membershipRepo repository.MembershipRepositoryInterface
	messageRepo    repository.MessageRepositoryInterface
	hub            *ws.Hub
}

func NewWebSocketHandler(
	broker *live.Broker,
	roomRepo repository.RoomRepositoryInterface,
	membershipRepo repository.MembershipRepositoryInterface,
	messageRepo repository.MessageRepositoryInterface,
) *WebSocketHandler {
	return &WebSocketHandler{
		broker:         broker,
		roomRepo:       roomRepo,
		membershipRepo: membershipRepo,
		messageRepo:    messageRepo,
		hub:            ws.NewHub(),
	}
}

// HandleWebSocket runs one signed-in connection: an unread aggregator is
// started for the viewer, its snapshots are pushed as room_list messages, and
// inbound frames are dispatched by type. Everything tears down when the
// connection drops.
func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	viewer := c.Locals("displayName").(string)
	wsDebug := os.Getenv("WS_DEBUG") == "true"

	client := h.hub.Register(viewer, c)

	aggregator := service.NewUnreadAggregator(viewer, h.broker, h.roomRepo, h.membershipRepo, h.messageRepo)
	aggregator.Start()

	defer func() {
		aggregator.Close()
		h.hub.Unregister(viewer, c)
	}()

	// Push every snapshot the aggregator derives. The initial snapshot
	// arrives without the client asking for it.
	go func() {
		for snapshot := range aggregator.Updates() {
			msg := &ws.MessageRoomList{RoomListSnapshot: snapshot}
			if err := client.WriteMessage(msg); err != nil {
				log.Printf("level=warn msg=\"room list push failed\" viewer=%q error=%q", viewer, err)
				return
			}
		}
	}()

	ctx := &ws.MessageContext{
		Viewer:     viewer,
		Client:     client,
		Hub:        h.hub,
		Aggregator: aggregator,
	}

	for {
		messageType, messageBytes, err := c.ReadMessage()
		if err != nil {
			break
		}

		if wsDebug {
			log.Printf("ws_recv viewer=%q frame_type=%d size=%d", viewer, messageType, len(messageBytes))
		}

		msg, err := ws.Deserialize(messageBytes)
		if err != nil {
			ws.SendError(client, "invalid_message", "Invalid message format", err.Error())
			continue
		}

		if err := msg.Process(ctx); err != nil {
			log.Printf("level=warn msg=\"ws process failed\" type=%q viewer=%q error=%q", msg.GetType(), viewer, err)
			ws.SendError(client, "processing_failed", "Failed to process message", err.Error())
		}
	}
}
