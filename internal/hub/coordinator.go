package hub

import (
	"context"
	"fmt"

	"socketWhiteboard/internal/enums"
	"socketWhiteboard/internal/errs"
	"socketWhiteboard/internal/interfaces"
	"socketWhiteboard/internal/models"
	"socketWhiteboard/internal/models/broker"

	"github.com/sirupsen/logrus"
)

// Coordinator owns room membership and couples persistence with fan-out:
// join delivers the stored snapshot to the joiner before anyone hears about the join, and
// update commits to the store before anything is published.
type Coordinator struct {
	hub    *Hub
	store  interfaces.WhiteboardStore
	broker interfaces.Broker
}

// NewCoordinator wires a coordinator to its store. A nil broker means in-process fan-out only.
func NewCoordinator(store interfaces.WhiteboardStore, b interfaces.Broker) *Coordinator {
	c := &Coordinator{
		hub:   NewHub(),
		store: store,
	}
	if b == nil {
		b = NewLocalBroker(c.Dispatch)
	}
	c.broker = b
	return c
}

func (c *Coordinator) Hub() *Hub { return c.hub }

// Register tracks an accepted connection before it joins any room, so Shutdown reaches it.
func (c *Coordinator) Register(client interfaces.SocketClient) {
	c.memberFor(client)
}

func (c *Coordinator) memberFor(client interfaces.SocketClient) *member {
	m, created := c.hub.register(client)
	if created {
		go c.writeLoop(m)
	}
	return m
}

// writeLoop is the only writer of a registered connection.
func (c *Coordinator) writeLoop(m *member) {
	for {
		select {
		case out := <-m.outbox:
			err := m.client.Send(out.event)
			if out.sent != nil {
				out.sent <- err
			}
			if err != nil {
				logrus.WithError(err).WithFields(logrus.Fields{
					"conn_id": m.client.ID(),
					"event":   out.event.Event,
				}).Warn("write failed, dropping connection")
				c.drop(m.client)
				return
			}
		case <-m.done:
			return
		}
	}
}

// Join moves client into roomID. A connection already in another room leaves it once the new
// room's snapshot has been read; when the read fails it stays where it was.
func (c *Coordinator) Join(ctx context.Context, client interfaces.SocketClient, roomID string) error {
	if roomID == "" {
		return errs.ErrInvalidRoomId
	}
	log := logrus.WithFields(logrus.Fields{"room": roomID, "user": client.Username(), "conn_id": client.ID()})

	m := c.memberFor(client)
	if !c.hub.beginJoin(m, roomID) {
		return errs.ErrConnectionClosed
	}

	whiteboard, found, err := c.store.Get(ctx, roomID)
	if err != nil {
		c.abortJoin(m, roomID)
		return err
	}

	snapshot := models.SnapshotPayload{Room: roomID}
	if found {
		snapshot = whiteboard.ToSnapshotPayload()
	}
	event, err := models.NewSocketEvent(enums.SOCKET_EVENT_SNAPSHOT, snapshot)
	if err != nil {
		c.abortJoin(m, roomID)
		return err
	}

	sent := make(chan error, 1)
	previous, ok := c.hub.completeJoin(m, roomID, outbound{event: event, sent: sent})
	if !ok {
		log.Warn("could not queue snapshot, dropping connection")
		c.drop(client)
		return errs.ErrConnectionClosed
	}
	c.announceLeft(ctx, previous, roomID, client)

	select {
	case err := <-sent:
		if err != nil {
			return errs.ErrConnectionClosed
		}
	case <-m.done:
		return errs.ErrConnectionClosed
	}

	joined, err := models.NewSocketEvent(enums.SOCKET_EVENT_JOINED, models.JoinedPayload{
		Room:     roomID,
		Username: client.Username(),
		Message:  fmt.Sprintf("%s has joined the room", client.Username()),
	})
	if err != nil {
		return err
	}
	if err := c.broker.Publish(ctx, broker.PublishedMessage{Room: roomID, Exclude: client.ID(), Event: joined}); err != nil {
		log.WithError(err).Warn("failed to announce join")
	}

	log.WithField("found", found).Info("joined room")
	return nil
}

func (c *Coordinator) abortJoin(m *member, roomID string) {
	if overflow := c.hub.abortJoin(m, roomID); overflow {
		c.drop(m.client)
	}
}

// Update persists data as the room's snapshot and then broadcasts it to every member,
// the originator included. Nothing is broadcast when the write fails.
func (c *Coordinator) Update(ctx context.Context, client interfaces.SocketClient, roomID string, data models.Document) error {
	if roomID == "" {
		return errs.ErrInvalidRoomId
	}
	if c.hub.RoomOf(client.ID()) != roomID {
		return errs.ErrNotRoomMember
	}

	// A disconnect must not cancel or roll back a write that has been issued.
	ctx = context.WithoutCancel(ctx)
	if err := c.store.Upsert(ctx, roomID, client.Username(), data); err != nil {
		return err
	}

	event, err := models.NewSocketEvent(enums.SOCKET_EVENT_CANVAS, models.CanvasBroadcastPayload{
		Room:     roomID,
		Username: client.Username(),
		Message:  data,
	})
	if err != nil {
		return err
	}
	if err := c.broker.Publish(ctx, broker.PublishedMessage{Room: roomID, Event: event}); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrBroadcastFailed, err)
	}
	return nil
}

// Leave releases the connection's membership. Remaining members are told it left.
func (c *Coordinator) Leave(ctx context.Context, client interfaces.SocketClient) {
	_, room := c.hub.remove(client.ID())
	if room == "" {
		return
	}
	c.announceLeft(ctx, room, "", client)
	logrus.WithFields(logrus.Fields{"room": room, "user": client.Username(), "conn_id": client.ID()}).Info("left room")
}

// Dispatch queues a published message for the members of its room held by this instance.
// It never waits on a connection.
func (c *Coordinator) Dispatch(message broker.PublishedMessage) {
	overflow := c.hub.fanOut(message.Room, message.Exclude, outbound{event: message.Event})
	for _, m := range overflow {
		logrus.WithFields(logrus.Fields{
			"room":    message.Room,
			"conn_id": m.client.ID(),
			"event":   message.Event.Event,
		}).Warn("outbound queue full, dropping connection")
		go c.drop(m.client)
	}
}

// SendTo queues event for one connection behind anything already queued for it.
// Unregistered connections are written to directly.
func (c *Coordinator) SendTo(client interfaces.SocketClient, event models.SocketEvent) error {
	registered, ok := c.hub.deliver(client.ID(), outbound{event: event})
	if !registered {
		return client.Send(event)
	}
	if !ok {
		c.drop(client)
		return errs.ErrConnectionClosed
	}
	return nil
}

// Shutdown closes every connection and empties the membership table.
func (c *Coordinator) Shutdown() {
	for _, client := range c.hub.drain() {
		if err := client.Close(); err != nil {
			logrus.WithError(err).WithField("conn_id", client.ID()).Debug("error closing connection")
		}
	}
}

func (c *Coordinator) drop(client interfaces.SocketClient) {
	c.Leave(context.Background(), client)
	_ = client.Close()
}

func (c *Coordinator) announceLeft(ctx context.Context, room string, next string, client interfaces.SocketClient) {
	if room == "" || room == next {
		return
	}
	event, err := models.NewSocketEvent(enums.SOCKET_EVENT_LEFT, models.LeftPayload{Room: room, Username: client.Username()})
	if err != nil {
		return
	}
	if err := c.broker.Publish(ctx, broker.PublishedMessage{Room: room, Exclude: client.ID(), Event: event}); err != nil {
		logrus.WithError(err).WithField("room", room).Warn("failed to announce leave")
	}
}
