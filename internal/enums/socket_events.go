package enums

// Client -> server
const (
	SOCKET_EVENT_JOIN_ROOM = "joinRoom"
	SOCKET_EVENT_CANVAS    = "canvas"
)

// Server -> client
const (
	SOCKET_EVENT_SNAPSHOT = "snapshot"
	SOCKET_EVENT_JOINED   = "joined"
	SOCKET_EVENT_LEFT     = "left"
	SOCKET_EVENT_ERROR    = "error"
)
