package interfaces

import "socketWhiteboard/internal/models"

// SocketClient is one authenticated live connection.
type SocketClient interface {
	ID() string
	Username() string
	Send(event models.SocketEvent) error
	Close() error
}
