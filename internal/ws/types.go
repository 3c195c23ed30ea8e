package ws

import (
	"encoding/json"
)

// MessageType represents the different kinds of messages our system can handle
type MessageType string

const (
	MessageTypeMove      MessageType = "move"
	MessageTypeReset     MessageType = "reset"
	MessageTypeGameState MessageType = "gameState"
	MessageTypeError     MessageType = "error"
)

// Message represents a WebSocket message in our system
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewErrorMessage wraps errorMsg as a JSON string payload.
func NewErrorMessage(errorMsg string) Message {
	payload, _ := json.Marshal(errorMsg)
	return Message{
		Type:    MessageTypeError,
		Payload: payload,
	}
}
