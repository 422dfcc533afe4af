package ws

import (
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/service"
)

// MessageRoomList is a server-pushed room list snapshot. Every push carries
// the complete list; the client replaces its state wholesale.
type MessageRoomList struct {
	service.RoomListSnapshot
}

func (msg *MessageRoomList) GetType() string {
	return "room_list"
}

// Process is never called: room_list flows server-to-client only and is not
// registered for inbound dispatch.
func (msg *MessageRoomList) Process(ctx *MessageContext) error {
	return nil
}
