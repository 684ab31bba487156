package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"socketWhiteboard/internal/errs"
	"socketWhiteboard/internal/models"

	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory WhiteboardStore with fault injection.
type memoryStore struct {
	mu        sync.Mutex
	rows      map[string]models.Whiteboard
	getErr    error
	upsertErr error

	// When getGate is set, Get signals getEntered and waits for getGate to close.
	getGate    chan struct{}
	getEntered chan struct{}
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rows: make(map[string]models.Whiteboard)}
}

func (s *memoryStore) Get(_ context.Context, roomID string) (*models.Whiteboard, bool, error) {
	s.mu.Lock()
	gate, entered := s.getGate, s.getEntered
	s.mu.Unlock()
	if gate != nil {
		entered <- struct{}{}
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	row, ok := s.rows[roomID]
	if !ok {
		return nil, false, nil
	}
	return &row, true, nil
}

func (s *memoryStore) Upsert(_ context.Context, roomID string, username string, data models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	row, ok := s.rows[roomID]
	if !ok {
		row = models.Whiteboard{RoomID: roomID, CreatedBy: username}
	}
	row.Data = append(models.Document(nil), data...)
	row.UpdatedBy = username
	s.rows[roomID] = row
	return nil
}

type recordedEvent struct {
	seq   int64
	event models.SocketEvent
}

// fakeClient records every event it is sent, stamped from a sequence shared by all clients.
type fakeClient struct {
	id       string
	username string
	seq      *atomic.Int64

	mu       sync.Mutex
	events   []recordedEvent
	failSend bool
	closed   bool
	onSend   func(models.SocketEvent)
	syncs    int
}

func newFakeClient(seq *atomic.Int64, id, username string) *fakeClient {
	return &fakeClient{id: id, username: username, seq: seq}
}

func (c *fakeClient) ID() string       { return c.id }
func (c *fakeClient) Username() string { return c.username }

func (c *fakeClient) Send(event models.SocketEvent) error {
	c.mu.Lock()
	fail, hook := c.failSend, c.onSend
	c.mu.Unlock()
	if fail {
		return errors.New("broken pipe")
	}
	if event.Event == syncEvent {
		c.mu.Lock()
		c.syncs++
		c.mu.Unlock()
		return nil
	}
	if hook != nil {
		hook(event)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, recordedEvent{seq: c.seq.Add(1), event: event})
	return nil
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeClient) recorded() []recordedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]recordedEvent(nil), c.events...)
}

func (c *fakeClient) eventNames() []string {
	var names []string
	for _, e := range c.recorded() {
		names = append(names, e.event.Event)
	}
	return names
}

func (c *fakeClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeClient) setOnSend(hook func(models.SocketEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSend = hook
}

func (c *fakeClient) setFailSend(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failSend = fail
}

func (c *fakeClient) count(name string) int {
	n := 0
	for _, e := range c.eventNames() {
		if e == name {
			n++
		}
	}
	return n
}

func (c *fakeClient) syncCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.syncs
}

func hasEvent(c *fakeClient, name string) func() bool {
	return func() bool { return c.count(name) > 0 }
}

// first waits for and returns the first recorded event with the given name.
func (c *fakeClient) first(t *testing.T, name string) recordedEvent {
	t.Helper()
	require.Eventuallyf(t, hasEvent(c, name), time.Second, 5*time.Millisecond,
		"%s never received %q (got %v)", c.id, name, c.eventNames())
	for _, e := range c.recorded() {
		if e.event.Event == name {
			return e
		}
	}
	return recordedEvent{}
}

// syncEvent marks a point in a client's outbound queue and is not recorded.
const syncEvent = "test-sync"

// settle waits until everything queued so far for each client has been written.
func settle(t *testing.T, coordinator *Coordinator, clients ...*fakeClient) {
	t.Helper()
	for _, c := range clients {
		before := c.syncCount()
		require.NoError(t, coordinator.SendTo(c, models.SocketEvent{Event: syncEvent}))
		require.Eventually(t, func() bool { return c.syncCount() > before }, time.Second, 5*time.Millisecond)
	}
}

// gateReads makes the next Get block until the returned release func is called.
func (s *memoryStore) gateReads() (entered <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate := make(chan struct{})
	s.getGate = gate
	s.getEntered = make(chan struct{}, 1)
	return s.getEntered, func() {
		s.mu.Lock()
		s.getGate = nil
		s.mu.Unlock()
		close(gate)
	}
}

func (s *memoryStore) setGetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr = err
}

func decodePayload[T any](t *testing.T, event models.SocketEvent) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(event.Payload, &out))
	return out
}

var errDatabaseDown = errs.NewStorageError("upsert whiteboard", errors.New("connection refused"))
