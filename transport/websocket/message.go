package websocket

import (
	"encoding/json"
	"fmt"
)

// Message represents an inbound WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// decodeRoomCode reads a payload that carries a bare room code string.
func decodeRoomCode(msg *Message) (string, error) {
	var code string
	if err := json.Unmarshal(msg.Payload, &code); err != nil {
		return "", fmt.Errorf("failed to decode room code: %w", err)
	}

	return code, nil
}
