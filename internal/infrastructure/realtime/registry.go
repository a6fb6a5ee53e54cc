package realtime

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ErrRegistryClosed is returned by Register after Close.
var ErrRegistryClosed = errors.New("realtime: registry closed")

// PresenceEncoder renders the online user set into a frame sent to every connection.
type PresenceEncoder func(userIDs []string) ([]byte, error)

// Registry is the live table of connections. It maps users to any number of
// connections (one per tab/device) and tracks which rooms each connection is
// subscribed to.
//
// Every mutation that changes the online set broadcasts the full set to all
// connections while still holding the lock, so presence observed by any client
// always matches the registry at the time of the broadcast.
type Registry struct {
	mu        sync.RWMutex
	conns     map[string]*Connection            // connID -> connection
	users     map[string]map[string]*Connection // userID -> connID -> connection
	rooms     map[string]map[string]*Connection // roomID -> connID -> connection
	connRooms map[string]map[string]struct{}    // connID -> set of roomIDs
	closed    bool

	encode PresenceEncoder
	log    zerolog.Logger
}

// NewRegistry constructs an initialized Registry. A nil encoder falls back to
// the {"type":"onlineUsers","payload":[...]} frame.
func NewRegistry(log zerolog.Logger, encode PresenceEncoder) *Registry {
	if encode == nil {
		encode = defaultPresenceEncoder
	}
	return &Registry{
		conns:     make(map[string]*Connection),
		users:     make(map[string]map[string]*Connection),
		rooms:     make(map[string]map[string]*Connection),
		connRooms: make(map[string]map[string]struct{}),
		encode:    encode,
		log:       log.With().Str("component", "registry").Logger(),
	}
}

// Register tracks conn, subscribes it to rooms, starts its write loop and
// announces the new presence set.
func (r *Registry) Register(conn *Connection, rooms ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRegistryClosed
	}
	if _, ok := r.conns[conn.ID]; ok {
		return nil
	}

	r.conns[conn.ID] = conn
	sessions := r.users[conn.UserID]
	if sessions == nil {
		sessions = make(map[string]*Connection)
		r.users[conn.UserID] = sessions
	}
	sessions[conn.ID] = conn
	for _, roomID := range rooms {
		r.joinLocked(roomID, conn)
	}

	conn.Start()

	r.log.Debug().
		Str("user_id", conn.UserID).
		Str("conn_id", conn.ID).
		Int("rooms", len(rooms)).
		Int("user_connections", len(sessions)).
		Msg("connection registered")

	r.broadcastPresenceLocked()
	return nil
}

// Unregister removes the connection. It is safe to call more than once; it
// reports whether anything was removed.
func (r *Registry) Unregister(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	if !ok {
		return false
	}
	r.detachLocked(conn)

	r.log.Debug().
		Str("user_id", conn.UserID).
		Str("conn_id", conn.ID).
		Msg("connection unregistered")

	r.broadcastPresenceLocked()
	return true
}

// Lookup returns the live connections of userID. An empty result means offline.
func (r *Registry) Lookup(userID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(r.users[userID])
}

// HasConnection reports whether userID has at least one live connection.
func (r *Registry) HasConnection(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID]) > 0
}

// RoomConnections returns the connections subscribed to roomID.
func (r *Registry) RoomConnections(roomID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(r.rooms[roomID])
}

// InRoom reports whether the connection is subscribed to roomID.
func (r *Registry) InRoom(connID string, roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.connRooms[connID][roomID]
	return ok
}

// JoinUser subscribes every live connection of userID to roomID and returns
// how many connections were joined.
func (r *Registry) JoinUser(roomID string, userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, conn := range r.users[userID] {
		r.joinLocked(roomID, conn)
		n++
	}
	return n
}

// DropRoom unsubscribes every connection from roomID.
func (r *Registry) DropRoom(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for connID := range r.rooms[roomID] {
		if memberships, ok := r.connRooms[connID]; ok {
			delete(memberships, roomID)
		}
	}
	delete(r.rooms, roomID)
}

// OnlineUsers returns the sorted set of users with at least one connection.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onlineLocked()
}

// Close terminates all tracked connections and clears registry state.
// Register fails afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		sessions = append(sessions, conn)
	}
	r.conns = make(map[string]*Connection)
	r.users = make(map[string]map[string]*Connection)
	r.rooms = make(map[string]map[string]*Connection)
	r.connRooms = make(map[string]map[string]struct{})
	r.closed = true
	r.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(websocket.CloseGoingAway, "server shutdown")
	}
	r.log.Info().Int("connections", len(sessions)).Msg("registry closed")
}

func (r *Registry) joinLocked(roomID string, conn *Connection) {
	if roomID == "" {
		return
	}
	room := r.rooms[roomID]
	if room == nil {
		room = make(map[string]*Connection)
		r.rooms[roomID] = room
	}
	room[conn.ID] = conn

	memberships := r.connRooms[conn.ID]
	if memberships == nil {
		memberships = make(map[string]struct{})
		r.connRooms[conn.ID] = memberships
	}
	memberships[roomID] = struct{}{}
}

func (r *Registry) detachLocked(conn *Connection) {
	delete(r.conns, conn.ID)

	if sessions, ok := r.users[conn.UserID]; ok {
		delete(sessions, conn.ID)
		if len(sessions) == 0 {
			delete(r.users, conn.UserID)
		}
	}

	for roomID := range r.connRooms[conn.ID] {
		room := r.rooms[roomID]
		delete(room, conn.ID)
		if len(room) == 0 {
			delete(r.rooms, roomID)
		}
	}
	delete(r.connRooms, conn.ID)
}

func (r *Registry) onlineLocked() []string {
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// broadcastPresenceLocked must be called with the write lock held. Send never
// blocks, so holding the lock across the fan-out is bounded.
func (r *Registry) broadcastPresenceLocked() {
	online := r.onlineLocked()
	payload, err := r.encode(online)
	if err != nil {
		r.log.Error().Err(err).Msg("encode presence")
		return
	}
	for _, conn := range r.conns {
		if err := conn.Send(payload); err != nil {
			r.log.Warn().Err(err).Str("conn_id", conn.ID).Msg("presence not delivered")
		}
	}
}

func snapshot(set map[string]*Connection) []*Connection {
	if len(set) == 0 {
		return nil
	}
	out := make([]*Connection, 0, len(set))
	for _, conn := range set {
		out = append(out, conn)
	}
	return out
}

func defaultPresenceEncoder(userIDs []string) ([]byte, error) {
	return json.Marshal(struct {
		Type    string   `json:"type"`
		Payload []string `json:"payload"`
	}{Type: "onlineUsers", Payload: userIDs})
}
