package ws

// MessagePing is an application-level keepalive from the client. The pong
// reply goes through the client's write lock like every other frame.
type MessagePing struct {
}

func (msg *MessagePing) GetType() string {
	return "ping"
}

func (msg *MessagePing) Process(ctx *MessageContext) error {
	return ctx.Client.WriteJSON(map[string]string{
		"type": "pong",
	})
}

// MessagePong acknowledges a server ping; clients may use it to track latency.
type MessagePong struct {
}

func (msg *MessagePong) GetType() string {
	return "pong"
}

func (msg *MessagePong) Process(ctx *MessageContext) error {
	return nil
}
