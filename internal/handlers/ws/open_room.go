package ws

// MessageOpenRoom is the client entering a room: the unread badge clears
// immediately and the read watermark advances.
type MessageOpenRoom struct {
	Room string `json:"room"`
}

func (msg *MessageOpenRoom) GetType() string {
	return "open_room"
}

func (msg *MessageOpenRoom) Process(ctx *MessageContext) error {
	if msg.Room == "" {
		return SendError(ctx.Client, "INVALID_ROOM", "room is required", "")
	}
	ctx.Aggregator.OpenRoom(msg.Room)
	return nil
}

// SendError sends an error response to the client.
func SendError(client *ClientConnection, code, message, details string) error {
	return client.WriteJSON(ErrorResponse{
		Type:    "error",
		Error:   message,
		Code:    code,
		Details: details,
	})
}
