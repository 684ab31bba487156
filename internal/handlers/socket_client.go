package handlers

import (
	"sync"
	"time"

	"socketWhiteboard/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// socketClient is an authenticated websocket connection. Writes are serialised; Close is idempotent.
type socketClient struct {
	id           string
	username     string
	conn         *websocket.Conn
	writeMu      sync.Mutex
	writeTimeout time.Duration
	closeOnce    sync.Once
	closed       chan struct{}

	// limiter throttles inbound frames; only the read loop uses it.
	limiter *rate.Limiter
}

func newSocketClient(conn *websocket.Conn, username string, writeTimeout time.Duration, limiter *rate.Limiter) *socketClient {
	return &socketClient{
		id:           uuid.NewString(),
		username:     username,
		conn:         conn,
		writeTimeout: writeTimeout,
		closed:       make(chan struct{}),
		limiter:      limiter,
	}
}

func (sc *socketClient) ID() string       { return sc.id }
func (sc *socketClient) Username() string { return sc.username }

func (sc *socketClient) Send(event models.SocketEvent) error {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()

	if err := sc.conn.SetWriteDeadline(time.Now().Add(sc.writeTimeout)); err != nil {
		return err
	}
	return sc.conn.WriteJSON(event)
}

func (sc *socketClient) ping() error {
	return sc.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(sc.writeTimeout))
}

func (sc *socketClient) Close() error {
	var err error
	sc.closeOnce.Do(func() {
		close(sc.closed)
		err = sc.conn.Close()
	})
	return err
}
