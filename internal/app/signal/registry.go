/*
Package signal implements the WebRTC signaling relay.

This file defines the Registry, the authoritative map from connection id to
connection metadata. It is the single source of truth for which clients are
currently reachable; rooms hold only references into it.
*/
package signal

import (
	"sync"

	"github.com/rs/zerolog"

	"medichat/internal/pkg/errs"
	"medichat/internal/pkg/logx"
)

// Sender delivers raw frames to one connected client. Enqueue must never
// block: implementations use a bounded queue and drop on overflow.
type Sender interface {
	Enqueue(message []byte) error
	Close()
}

// Connection is a live client session tracked by the Registry.
type Connection struct {
	// ID is the transport-assigned identifier, unique for the process lifetime.
	ID string

	// Username is the display name, client-supplied or generated.
	Username string

	sender Sender
}

// Deliver queues one frame for the client. Errors mean the frame was
// dropped (queue full or session closing), never that the caller blocked.
func (c *Connection) Deliver(message []byte) error {
	return c.sender.Enqueue(message)
}

// Registry is the authoritative connection directory.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Connection

	logger zerolog.Logger
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[string]*Connection),
		logger: logx.Logger().With().Str("component", "Registry").Logger(),
	}
}

// Register inserts a new connection record. A duplicate id is a server-side
// invariant violation (transport ids are unique) and is rejected.
func (r *Registry) Register(id, username string, sender Sender) (*Connection, *errs.CustomError) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[id]; exists {
		r.logger.Error().Str("connection_id", id).Msg("Duplicate connection id rejected.")
		return nil, errs.NewError(errs.ErrDuplicateConnection)
	}

	conn := &Connection{ID: id, Username: username, sender: sender}
	r.conns[id] = conn

	r.logger.Info().
		Str("connection_id", id).
		Str("username", username).
		Int("total_connections", len(r.conns)).
		Msg("Connection registered.")

	return conn, nil
}

// Remove deletes the record for id and reports whether it existed.
// Removing an unknown id is a no-op: disconnect handlers may race with
// explicit cleanup.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[id]; !exists {
		return false
	}

	delete(r.conns, id)

	r.logger.Info().
		Str("connection_id", id).
		Int("total_connections", len(r.conns)).
		Msg("Connection removed.")

	return true
}

// Get looks up a connection by id.
func (r *Registry) Get(id string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[id]
	return conn, ok
}

// ListAll returns a snapshot of the current records. The slice stays valid
// while the registry mutates; the records it points to do not change.
func (r *Registry) ListAll() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		all = append(all, conn)
	}

	return all
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}

// Shutdown closes every registered connection's sender, which makes each
// session drain and disconnect through its normal cleanup path.
func (r *Registry) Shutdown() {
	r.logger.Info().Msg("Closing all registered connections...")

	for _, conn := range r.ListAll() {
		conn.sender.Close()
	}
}
