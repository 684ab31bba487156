package interfaces

import (
	"context"

	"socketWhiteboard/internal/models"
)

// WhiteboardStore persists one snapshot per room.
// Get reports a missing row with found == false and a nil error.
// Upsert replaces the room's data atomically; created_by is only written on the first insert.
type WhiteboardStore interface {
	Get(ctx context.Context, roomID string) (whiteboard *models.Whiteboard, found bool, err error)
	Upsert(ctx context.Context, roomID string, username string, data models.Document) error
}
