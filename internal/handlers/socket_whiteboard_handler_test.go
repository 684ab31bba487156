package handlers_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"socketWhiteboard/configs"
	"socketWhiteboard/internal/enums"
	"socketWhiteboard/internal/errs"
	"socketWhiteboard/internal/models"
	"socketWhiteboard/internal/utils"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocketGate_RejectsBeforeUpgrade(t *testing.T) {
	ts := newTestServer(t, nil)
	expired, err := utils.CreateJwtToken("alice", []byte(testSecret), time.Now().Add(-time.Minute))
	require.NoError(t, err)
	forged, err := utils.CreateJwtToken("alice", []byte("some-other-secret"), time.Now().Add(time.Hour))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"missing": "",
		"garbage": "garbage",
		"expired": expired,
		"forged":  forged,
	} {
		t.Run(name, func(t *testing.T) {
			conn, resp, err := websocket.DefaultDialer.Dial(ts.socketURL(token), nil)
			if conn != nil {
				_ = conn.Close()
			}
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
	assert.Equal(t, 0, ts.coordinator.Hub().ConnectionCount())
}

func TestSocketGate_AcceptsBearerHeader(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.register(t, "alice")

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, resp, err := websocket.DefaultDialer.Dial(ts.socketURL(""), header)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	send(t, conn, enums.SOCKET_EVENT_JOIN_ROOM, map[string]any{"room": "lobby"})
	snapshot := decode[models.SnapshotPayload](t, readEvent(t, conn).Payload)
	assert.Equal(t, "lobby", snapshot.Room)
}

func TestSocketWhiteboard_TwoUserSession(t *testing.T) {
	ts := newTestServer(t, nil)
	tokenA := ts.register(t, "A")
	tokenB := ts.register(t, "B")

	a := ts.dial(t, tokenA)
	send(t, a, enums.SOCKET_EVENT_JOIN_ROOM, map[string]any{"username": "A", "room": 42})
	event := readEvent(t, a)
	require.Equal(t, enums.SOCKET_EVENT_SNAPSHOT, event.Event)
	snapshot := decode[models.SnapshotPayload](t, event.Payload)
	assert.Equal(t, "42", snapshot.Room)
	assert.False(t, snapshot.Found)

	send(t, a, enums.SOCKET_EVENT_CANVAS, map[string]any{"room": 42, "message": map[string]any{"strokes": []int{1}}})
	canvas := decode[models.CanvasBroadcastPayload](t, expectEvent(t, a, enums.SOCKET_EVENT_CANVAS).Payload)
	assert.Equal(t, "A", canvas.Username)
	assert.JSONEq(t, `{"strokes":[1]}`, string(canvas.Message))

	// The client-supplied username is ignored in favour of the token's.
	b := ts.dial(t, tokenB)
	send(t, b, enums.SOCKET_EVENT_JOIN_ROOM, map[string]any{"username": "impostor", "room": "42"})
	event = readEvent(t, b)
	require.Equal(t, enums.SOCKET_EVENT_SNAPSHOT, event.Event, "the joiner's first event is its snapshot")
	snapshot = decode[models.SnapshotPayload](t, event.Payload)
	assert.True(t, snapshot.Found)
	assert.JSONEq(t, `{"strokes":[1]}`, string(snapshot.Data))
	assert.Equal(t, "A", snapshot.CreatedBy)

	joined := decode[models.JoinedPayload](t, expectEvent(t, a, enums.SOCKET_EVENT_JOINED).Payload)
	assert.Equal(t, "B", joined.Username)

	send(t, b, enums.SOCKET_EVENT_CANVAS, map[string]any{"room": "42", "message": map[string]any{"strokes": []int{1, 2}}})
	for _, conn := range []*websocket.Conn{a, b} {
		canvas := decode[models.CanvasBroadcastPayload](t, expectEvent(t, conn, enums.SOCKET_EVENT_CANVAS).Payload)
		assert.Equal(t, "B", canvas.Username)
		assert.JSONEq(t, `{"strokes":[1,2]}`, string(canvas.Message))
	}

	status, response := ts.do(t, http.MethodGet, "/api/rooms/42/whiteboard", tokenA, nil)
	require.Equal(t, http.StatusOK, status)
	whiteboard := decode[models.Whiteboard](t, response.Data)
	assert.Equal(t, "A", whiteboard.CreatedBy)
	assert.Equal(t, "B", whiteboard.UpdatedBy)
	assert.JSONEq(t, `{"strokes":[1,2]}`, string(whiteboard.Data))

	require.NoError(t, b.Close())
	left := decode[models.LeftPayload](t, expectEvent(t, a, enums.SOCKET_EVENT_LEFT).Payload)
	assert.Equal(t, "B", left.Username)
	assert.Equal(t, "42", left.Room)
}

func TestSocketWhiteboard_ErrorsGoToTheSenderOnly(t *testing.T) {
	ts := newTestServer(t, nil)
	conn := ts.dial(t, ts.register(t, "alice"))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	event := readEvent(t, conn)
	require.Equal(t, enums.SOCKET_EVENT_ERROR, event.Event)
	assert.Equal(t, errs.ErrInvalidPayload.Error(), decode[models.ErrorPayload](t, event.Payload).Reason)

	send(t, conn, "draw", map[string]any{})
	event = readEvent(t, conn)
	require.Equal(t, enums.SOCKET_EVENT_ERROR, event.Event)
	assert.Equal(t, errs.ErrUnknownEvent.Error(), decode[models.ErrorPayload](t, event.Payload).Reason)

	send(t, conn, enums.SOCKET_EVENT_CANVAS, map[string]any{"room": "7", "message": "x"})
	event = readEvent(t, conn)
	require.Equal(t, enums.SOCKET_EVENT_ERROR, event.Event)
	assert.Equal(t, errs.ErrNotRoomMember.Error(), decode[models.ErrorPayload](t, event.Payload).Reason)

	send(t, conn, enums.SOCKET_EVENT_JOIN_ROOM, map[string]any{})
	event = readEvent(t, conn)
	require.Equal(t, enums.SOCKET_EVENT_ERROR, event.Event)
	assert.Contains(t, decode[models.ErrorPayload](t, event.Payload).Reason, errs.ErrInvalidRoomId.Error())

	// The connection survives every rejected message.
	send(t, conn, enums.SOCKET_EVENT_JOIN_ROOM, map[string]any{"room": "7"})
	assert.Equal(t, enums.SOCKET_EVENT_SNAPSHOT, readEvent(t, conn).Event)
}

func TestSocketWhiteboard_SwitchingRoomsAnnouncesLeave(t *testing.T) {
	ts := newTestServer(t, nil)
	a := ts.dial(t, ts.register(t, "A"))
	b := ts.dial(t, ts.register(t, "B"))

	send(t, a, enums.SOCKET_EVENT_JOIN_ROOM, map[string]any{"room": "first"})
	expectEvent(t, a, enums.SOCKET_EVENT_SNAPSHOT)
	send(t, b, enums.SOCKET_EVENT_JOIN_ROOM, map[string]any{"room": "first"})
	expectEvent(t, b, enums.SOCKET_EVENT_SNAPSHOT)
	expectEvent(t, a, enums.SOCKET_EVENT_JOINED)

	send(t, a, enums.SOCKET_EVENT_JOIN_ROOM, map[string]any{"room": "second"})
	expectEvent(t, a, enums.SOCKET_EVENT_SNAPSHOT)
	left := decode[models.LeftPayload](t, expectEvent(t, b, enums.SOCKET_EVENT_LEFT).Payload)
	assert.Equal(t, "A", left.Username)
	assert.Equal(t, "first", left.Room)

	send(t, a, enums.SOCKET_EVENT_CANVAS, map[string]any{"room": "first", "message": "late"})
	event := readEvent(t, a)
	require.Equal(t, enums.SOCKET_EVENT_ERROR, event.Event)
	assert.Equal(t, errs.ErrNotRoomMember.Error(), decode[models.ErrorPayload](t, event.Payload).Reason)
}

func TestSocketWhiteboard_ShutdownClosesConnectionsOutsideRooms(t *testing.T) {
	ts := newTestServer(t, nil)
	conn := ts.dial(t, ts.register(t, "alice"))
	require.Eventually(t, func() bool { return ts.coordinator.Hub().ConnectionCount() == 1 }, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, 0, ts.coordinator.Hub().RoomCount())

	ts.coordinator.Shutdown()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "the server never closed the socket")
	}
	assert.Equal(t, 0, ts.coordinator.Hub().ConnectionCount())
}

func TestSocketWhiteboard_OversizedMessageClosesConnection(t *testing.T) {
	ts := newTestServer(t, nil, func(config *configs.Config) {
		config.Viper.Set("socket.max_message_size", 64)
	})
	conn := ts.dial(t, ts.register(t, "alice"))
	send(t, conn, enums.SOCKET_EVENT_JOIN_ROOM, map[string]any{"room": "r"})
	expectEvent(t, conn, enums.SOCKET_EVENT_SNAPSHOT)

	big := make([]byte, 256)
	for i := range big {
		big[i] = 'x'
	}
	send(t, conn, enums.SOCKET_EVENT_CANVAS, map[string]any{"room": "r", "message": string(big)})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.Eventually(t, func() bool { return ts.coordinator.Hub().ConnectionCount() == 0 }, 2*time.Second, 20*time.Millisecond)
}

func TestSocketWhiteboard_ThrottlesFloodingConnection(t *testing.T) {
	ts := newTestServer(t, nil, func(config *configs.Config) {
		config.Viper.Set("socket.messages_per_second", 0.01)
		config.Viper.Set("socket.message_burst", 1)
	})
	conn := ts.dial(t, ts.register(t, "alice"))

	send(t, conn, enums.SOCKET_EVENT_JOIN_ROOM, map[string]any{"room": "r"})
	assert.Equal(t, enums.SOCKET_EVENT_SNAPSHOT, readEvent(t, conn).Event)

	send(t, conn, enums.SOCKET_EVENT_CANVAS, map[string]any{"room": "r", "message": "fast"})
	event := readEvent(t, conn)
	require.Equal(t, enums.SOCKET_EVENT_ERROR, event.Event)
	assert.Equal(t, errs.ErrTooManyRequests.Error(), decode[models.ErrorPayload](t, event.Payload).Reason)

	// The throttled frame was dropped, not stored.
	status, _ := ts.do(t, http.MethodGet, "/api/rooms/r/whiteboard", ts.register(t, "bob"), nil)
	assert.Equal(t, http.StatusNotFound, status)
}
