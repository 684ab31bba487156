package models

import "encoding/json"

// Inbound

type JoinRoomPayload struct {
	Username string `json:"username"`
	Room     RoomID `json:"room" validate:"required,max=255"`
}

type CanvasPayload struct {
	Room    RoomID          `json:"room" validate:"required,max=255"`
	Message json.RawMessage `json:"message" validate:"required"`
}

// Outbound

// SnapshotPayload with Found == false is the explicit "no prior drawing" indicator.
type SnapshotPayload struct {
	Room      string   `json:"room"`
	Found     bool     `json:"found"`
	Data      Document `json:"data,omitempty"`
	CreatedBy string   `json:"createdBy,omitempty"`
	UpdatedBy string   `json:"updatedBy,omitempty"`
}

type JoinedPayload struct {
	Room     string `json:"room"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

type LeftPayload struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

type CanvasBroadcastPayload struct {
	Room     string   `json:"room"`
	Username string   `json:"username"`
	Message  Document `json:"message"`
}

type ErrorPayload struct {
	Reason string `json:"reason"`
}
