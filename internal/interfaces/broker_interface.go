package interfaces

import (
	"context"

	"socketWhiteboard/internal/models/broker"
)

// Broker carries room events to every server instance that may hold members of the room.
type Broker interface {
	Publish(ctx context.Context, message broker.PublishedMessage) error
}
