/*
Package signal implements the WebRTC signaling relay.

This file defines the Broadcaster, which groups connections into rooms and
fans presence updates out to every member. Membership mutation and fan-out
happen under the room lock, so user_list broadcasts on one room are totally
ordered and each recipient sees the membership that triggered the update.
*/
package signal

import (
	"sync"

	"github.com/rs/zerolog"

	"medichat/internal/pkg/logx"
)

// DefaultRoomID is the room every client joins today. The Broadcaster
// itself supports any number of rooms.
const DefaultRoomID = "chat_room"

// Broadcaster tracks room membership and pushes user_list updates.
type Broadcaster struct {
	mu sync.Mutex

	// rooms maps room id to its member set, keyed by connection id.
	rooms map[string]map[string]*Connection

	logger zerolog.Logger
}

// NewBroadcaster constructs a Broadcaster with no rooms.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		rooms:  make(map[string]map[string]*Connection),
		logger: logx.Logger().With().Str("component", "Broadcaster").Logger(),
	}
}

// Join adds the connection to the room (idempotent) and broadcasts the
// resulting member list to everyone in it, the joiner included.
func (b *Broadcaster) Join(roomID string, conn *Connection) {
	b.mu.Lock()
	defer b.mu.Unlock()

	members, ok := b.rooms[roomID]
	if !ok {
		members = make(map[string]*Connection)
		b.rooms[roomID] = members
	}

	if _, already := members[conn.ID]; !already {
		members[conn.ID] = conn
		b.logger.Info().
			Str("room_id", roomID).
			Str("connection_id", conn.ID).
			Int("member_count", len(members)).
			Msg("Connection joined room.")
	}

	b.broadcastLocked(roomID, members)
}

// Leave removes the connection from the room if present and broadcasts the
// updated list to the remaining members only. Unknown members are a no-op.
func (b *Broadcaster) Leave(roomID, connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.leaveLocked(roomID, connID)
}

// LeaveAll removes the connection from every room it belongs to, used as
// the disconnect finalizer.
func (b *Broadcaster) LeaveAll(connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for roomID := range b.rooms {
		b.leaveLocked(roomID, connID)
	}
}

// leaveLocked mutates membership and broadcasts; callers hold b.mu.
func (b *Broadcaster) leaveLocked(roomID, connID string) {
	members, ok := b.rooms[roomID]
	if !ok {
		return
	}

	if _, present := members[connID]; !present {
		return
	}

	delete(members, connID)

	b.logger.Info().
		Str("room_id", roomID).
		Str("connection_id", connID).
		Int("member_count", len(members)).
		Msg("Connection left room.")

	if len(members) == 0 {
		delete(b.rooms, roomID)
		return
	}

	b.broadcastLocked(roomID, members)
}

// ListMembers returns a snapshot of the room's current members.
func (b *Broadcaster) ListMembers(roomID string) []*Connection {
	b.mu.Lock()
	defer b.mu.Unlock()

	members := b.rooms[roomID]

	snapshot := make([]*Connection, 0, len(members))
	for _, conn := range members {
		snapshot = append(snapshot, conn)
	}

	return snapshot
}

// broadcastLocked sends the user_list frame to every member. Delivery is
// best effort: an unreachable member is logged and skipped so one stuck
// client never aborts the broadcast for the rest of the room.
func (b *Broadcaster) broadcastLocked(roomID string, members map[string]*Connection) {
	list := make([]Member, 0, len(members))
	for _, conn := range members {
		list = append(list, Member{ID: conn.ID, Username: conn.Username})
	}

	frame, err := encodeEvent(EventUserList, list)
	if err != nil {
		b.logger.Error().Err(err).Str("room_id", roomID).Msg("Failed to encode user_list broadcast.")
		return
	}

	for _, conn := range members {
		if err := conn.Deliver(frame); err != nil {
			b.logger.Warn().
				Err(err).
				Str("room_id", roomID).
				Str("connection_id", conn.ID).
				Msg("Skipping unreachable member during user_list broadcast.")
		}
	}
}
