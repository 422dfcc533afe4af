package ws

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/NurFakhiraMohdSaufi/Chatify/internal/service"
)

// MessageContext provides all dependencies needed for message processing.
// Replies go out via Client so they share the connection's write lock.
type MessageContext struct {
	Viewer     string
	Client     *ClientConnection
	Hub        *Hub
	Aggregator *service.UnreadAggregator
}

// Message interface for all WebSocket message types.
type Message interface {
	GetType() string
	Process(ctx *MessageContext) error
}

// SerializedMessage is the wire format wrapper.
type SerializedMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorResponse is sent when message processing fails.
type ErrorResponse struct {
	Type    string `json:"type"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func Serialize(msg Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(SerializedMessage{Type: msg.GetType(), Payload: payload})
}

func Deserialize(jsonBytes []byte) (Message, error) {
	var wrapper SerializedMessage
	if err := json.Unmarshal(jsonBytes, &wrapper); err != nil {
		return nil, err
	}

	msgType, ok := typeRegistry[wrapper.Type]
	if !ok {
		return nil, fmt.Errorf("unknown message type: %s", wrapper.Type)
	}

	msg := reflect.New(msgType).Interface().(Message)
	if len(wrapper.Payload) > 0 {
		if err := json.Unmarshal(wrapper.Payload, msg); err != nil {
			return nil, err
		}
	}
	return msg, nil
}
