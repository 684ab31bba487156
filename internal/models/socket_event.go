package models

import "encoding/json"

// SocketEvent is the frame exchanged in both directions over the whiteboard socket.
type SocketEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func NewSocketEvent(event string, payload any) (SocketEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return SocketEvent{}, err
	}
	return SocketEvent{Event: event, Payload: raw}, nil
}
