package hub

import (
	"sort"
	"sync"

	"socketWhiteboard/internal/interfaces"
	"socketWhiteboard/internal/models"
)

// outboxSize bounds the events queued for one connection. A connection that falls this far
// behind is dropped.
const outboxSize = 256

type outbound struct {
	event models.SocketEvent
	sent  chan error // optional, receives the write result
}

// member is one connection's entry in the membership table. Events reach the client only
// through outbox, which a single writer goroutine drains.
type member struct {
	client interfaces.SocketClient
	outbox chan outbound
	done   chan struct{}

	// guarded by Hub.mu
	room    string
	joining string     // room whose snapshot is being read
	held    []outbound // events for joining, released after the snapshot
	gone    bool
}

// Hub maps room ids to the live connections in that room. A connection is in at most one room
// at a time, and may additionally be joining one other room.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[string]*member // room -> connection id -> member
	joining map[string]map[string]*member // room -> connections waiting for its snapshot
	members map[string]*member            // connection id -> member
}

func NewHub() *Hub {
	return &Hub{
		rooms:   make(map[string]map[string]*member),
		joining: make(map[string]map[string]*member),
		members: make(map[string]*member),
	}
}

// register returns the connection's entry, creating one outside of any room.
// created reports whether the entry is new.
func (h *Hub) register(client interfaces.SocketClient) (m *member, created bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if m, ok := h.members[client.ID()]; ok {
		return m, false
	}
	m = &member{
		client: client,
		outbox: make(chan outbound, outboxSize),
		done:   make(chan struct{}),
	}
	h.members[client.ID()] = m
	return m, true
}

// beginJoin marks m as joining room. From here on, events for room are held for m until
// completeJoin or abortJoin. The current membership is untouched.
func (h *Hub) beginJoin(m *member, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if m.gone {
		return false
	}
	h.cancelJoinLocked(m)
	m.joining = room
	addTo(h.joining, room, m)
	return true
}

// abortJoin forgets a failed join. Held events are delivered when m was already a member of
// room, and dropped otherwise. overflow reports a full outbox.
func (h *Hub) abortJoin(m *member, room string) (overflow bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if m.joining != room {
		return false
	}
	held := h.cancelJoinLocked(m)
	if m.room != room || m.gone {
		return false
	}
	for _, out := range held {
		if !enqueue(m, out) {
			return true
		}
	}
	return false
}

// completeJoin moves m from its previous room into room, queues the snapshot and then every
// event held during the read. ok is false when m is gone or its outbox cannot take them; the
// membership is then left as it was.
func (h *Hub) completeJoin(m *member, room string, snapshot outbound) (previous string, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if m.gone || m.joining != room {
		return "", false
	}
	held := h.cancelJoinLocked(m)
	if cap(m.outbox)-len(m.outbox) < 1+len(held) {
		return "", false
	}

	previous = m.room
	if previous != room {
		h.detachLocked(m)
		addTo(h.rooms, room, m)
		m.room = room
	}
	enqueue(m, snapshot)
	for _, out := range held {
		enqueue(m, out)
	}
	return previous, true
}

func (h *Hub) cancelJoinLocked(m *member) []outbound {
	if m.joining == "" {
		return nil
	}
	removeFrom(h.joining, m.joining, m)
	held := m.held
	m.joining, m.held = "", nil
	return held
}

// fanOut queues out for every member of room except exclude and returns the members whose
// outbox overflowed. It never blocks.
func (h *Hub) fanOut(room string, exclude string, out outbound) []*member {
	h.mu.Lock()
	defer h.mu.Unlock()

	var overflow []*member
	for id, m := range h.joining[room] {
		if id == exclude {
			continue
		}
		if len(m.held) >= outboxSize {
			overflow = append(overflow, m)
			continue
		}
		m.held = append(m.held, out)
	}
	for id, m := range h.rooms[room] {
		if id == exclude || m.joining == room {
			continue
		}
		if !enqueue(m, out) {
			overflow = append(overflow, m)
		}
	}
	return overflow
}

// deliver queues out for one connection. registered is false for an unknown connection.
func (h *Hub) deliver(connID string, out outbound) (registered bool, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, found := h.members[connID]
	if !found {
		return false, false
	}
	return true, enqueue(m, out)
}

func (h *Hub) detachLocked(m *member) {
	if m.room == "" {
		return
	}
	removeFrom(h.rooms, m.room, m)
	m.room = ""
}

// remove forgets the connection entirely, stops its writer and returns the room it was in.
func (h *Hub) remove(connID string) (*member, string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.members[connID]
	if !ok {
		return nil, ""
	}
	room := m.room
	h.detachLocked(m)
	h.cancelJoinLocked(m)
	m.gone = true
	close(m.done)
	delete(h.members, connID)
	return m, room
}

// RoomOf returns the room the connection is joined to, or "".
func (h *Hub) RoomOf(connID string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if m, ok := h.members[connID]; ok {
		return m.room
	}
	return ""
}

// Members lists the connection ids in room, sorted.
func (h *Hub) Members(room string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.rooms[room]))
	for id := range h.rooms[room] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members)
}

// drain removes every connection, stops the writers and returns the clients.
func (h *Hub) drain() []interfaces.SocketClient {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]interfaces.SocketClient, 0, len(h.members))
	for id, m := range h.members {
		m.gone = true
		close(m.done)
		clients = append(clients, m.client)
		delete(h.members, id)
	}
	h.rooms = make(map[string]map[string]*member)
	h.joining = make(map[string]map[string]*member)
	return clients
}

func enqueue(m *member, out outbound) bool {
	select {
	case m.outbox <- out:
		return true
	default:
		return false
	}
}

func addTo(index map[string]map[string]*member, room string, m *member) {
	rs, ok := index[room]
	if !ok {
		rs = make(map[string]*member)
		index[room] = rs
	}
	rs[m.client.ID()] = m
}

func removeFrom(index map[string]map[string]*member, room string, m *member) {
	rs, ok := index[room]
	if !ok {
		return
	}
	delete(rs, m.client.ID())
	if len(rs) == 0 {
		delete(index, room)
	}
}
