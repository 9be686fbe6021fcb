/*
Package signal implements the WebRTC signaling relay.

This file defines the Client, which owns one WebSocket session. It runs the
read and write pumps, translates inbound frames into registry, broadcaster
and relay calls, and guarantees deregistration when the transport drops.
*/
package signal

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"medichat/internal/pkg/logx"
	"medichat/internal/pkg/randx"
)

var (
	// errSessionClosed is returned by Enqueue after the session begins
	// winding down.
	errSessionClosed = errors.New("session closed")

	// errSendQueueFull is returned when the bounded outbound queue is
	// saturated and the frame was dropped.
	errSendQueueFull = errors.New("send queue full")
)

const (
	// writeWait bounds each write to the WebSocket connection.
	writeWait = 10 * time.Second

	// pongWait is the longest the server waits for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod is how often the server pings; must be below pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound frames. Session descriptions fit easily.
	maxMessageSize = 8192

	// sendQueueSize bounds the per-client outbound queue. A saturated
	// queue drops new frames instead of blocking the sender.
	sendQueueSize = 256
)

// lifecycleState tracks where the session is in its state machine. Only the
// read pump goroutine reads or writes it.
type lifecycleState int

const (
	stateConnecting lifecycleState = iota
	stateJoined
	stateDisconnected
)

// Client owns a single WebSocket session from upgrade to disconnect.
type Client struct {
	registry *Registry
	rooms    *Broadcaster
	relay    *Relay

	conn *websocket.Conn

	// id is assigned by the transport layer at upgrade time.
	id string

	state lifecycleState
	self  *Connection

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	logger zerolog.Logger
}

// NewClient constructs a Client for an upgraded WebSocket connection.
func NewClient(registry *Registry, rooms *Broadcaster, relay *Relay, wsConn *websocket.Conn, id string) *Client {
	return &Client{
		registry: registry,
		rooms:    rooms,
		relay:    relay,
		conn:     wsConn,
		id:       id,
		state:    stateConnecting,
		send:     make(chan []byte, sendQueueSize),
		done:     make(chan struct{}),
		logger: logx.Logger().With().
			Str("component", "Client").
			Str("connection_id", id).
			Logger(),
	}
}

// Enqueue implements Sender. It never blocks: frames are dropped with an
// error when the session is closing or the queue is full.
func (c *Client) Enqueue(message []byte) error {
	select {
	case <-c.done:
		return errSessionClosed
	default:
	}

	select {
	case c.send <- message:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Send queue full, dropping frame.")
		return errSendQueueFull
	}
}

// Close implements Sender. It signals both pumps to wind the session down;
// safe to call more than once and from any goroutine.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// ReadPump reads frames until the transport drops, then runs the cleanup
// finalizer. It must be called on the connection's own goroutine.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Transport lost while reading")
			}
			break
		}

		c.processInbound(messageBytes)
	}
}

// cleanupOnDisconnect deregisters the connection and leaves every room it
// belonged to, exactly once, regardless of how the transport closed.
func (c *Client) cleanupOnDisconnect() {
	if c.state == stateJoined {
		c.registry.Remove(c.id)
		c.rooms.LeaveAll(c.id)
	}

	c.state = stateDisconnected
	c.Close()

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Connection close error during cleanup")
	}

	c.logger.Info().Msg("Session cleanup complete.")
}

// processInbound dispatches one raw frame. Malformed frames are logged and
// ignored; the connection stays open.
func (c *Client) processInbound(messageBytes []byte) {
	var env Envelope
	if err := json.Unmarshal(messageBytes, &env); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid JSON frame")
		return
	}

	switch env.Type {
	case EventJoinRoom:
		c.handleJoin(env.Payload)

	case EventVideoOffer:
		c.handleOffer(env.Payload)

	case EventVideoAnswer:
		c.handleAnswer(env.Payload)

	case EventIceCandidate:
		c.handleCandidate(env.Payload)

	default:
		c.logger.Warn().Str("event_type", string(env.Type)).Msg("Client sent unsupported event type")
	}
}

// handleJoin moves the session from Connecting to Joined: register in the
// directory, greet the client with its id, then join the default room so
// everyone (the joiner included) gets the fresh user_list.
func (c *Client) handleJoin(payload json.RawMessage) {
	if c.state != stateConnecting {
		c.logger.Warn().Msg("Duplicate join_room ignored; session already joined.")
		return
	}

	var p JoinRoomPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid join_room payload")
			return
		}
	}

	username := p.Username
	if username == "" {
		generated, err := randx.Username()
		if err != nil {
			c.logger.Error().Err(err).Msg("Failed to generate fallback username")
			return
		}
		username = generated
	}

	conn, registerErr := c.registry.Register(c.id, username, c)
	if registerErr != nil {
		// Duplicate id means a broken transport invariant. Reject the
		// session without ever broadcasting.
		c.logger.Error().Err(registerErr).Msg("Registration failed; rejecting session.")
		c.Close()
		return
	}

	c.self = conn
	c.state = stateJoined

	if frame, err := encodeEvent(EventWelcome, WelcomePayload{ID: c.id, Username: username}); err != nil {
		c.logger.Error().Err(err).Msg("Failed to encode welcome frame")
	} else if err := c.Enqueue(frame); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to queue welcome frame")
	}

	c.rooms.Join(DefaultRoomID, conn)
}

// handleOffer forwards a session description offer to its target.
func (c *Client) handleOffer(payload json.RawMessage) {
	if c.state != stateJoined {
		c.logger.Warn().Msg("video_offer before join_room ignored.")
		return
	}

	var p OfferPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.Target == "" || len(p.Offer) == 0 {
		c.logger.Warn().Msg("Client sent malformed video_offer payload")
		return
	}

	c.relay.Forward(KindOffer, c.id, p.Target, p.Offer)
}

// handleAnswer forwards a session description answer to its target.
func (c *Client) handleAnswer(payload json.RawMessage) {
	if c.state != stateJoined {
		c.logger.Warn().Msg("video_answer before join_room ignored.")
		return
	}

	var p AnswerPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.Target == "" || len(p.Answer) == 0 {
		c.logger.Warn().Msg("Client sent malformed video_answer payload")
		return
	}

	c.relay.Forward(KindAnswer, c.id, p.Target, p.Answer)
}

// handleCandidate forwards a connectivity candidate to its target.
func (c *Client) handleCandidate(payload json.RawMessage) {
	if c.state != stateJoined {
		c.logger.Warn().Msg("ice_candidate before join_room ignored.")
		return
	}

	var p CandidatePayload
	if err := json.Unmarshal(payload, &p); err != nil || p.Target == "" || len(p.Candidate) == 0 {
		c.logger.Warn().Msg("Client sent malformed ice_candidate payload")
		return
	}

	c.relay.Forward(KindCandidate, c.id, p.Target, p.Candidate)
}

// WritePump drains the send queue onto the WebSocket and keeps the
// heartbeat alive. It exits when the session closes or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in WritePump")
		}
	}()

	for {
		select {
		case message := <-c.send:
			if !c.writeFrame(message) {
				return
			}

		case <-ticker.C:
			if !c.writePing() {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
				c.logger.Debug().Err(err).Msg("Error writing close frame")
			}
			return
		}
	}
}

// writeFrame writes one queued frame; false means the pump should stop.
func (c *Client) writeFrame(message []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Info().Err(err).Msg("Error writing frame")
		return false
	}

	return true
}

// writePing sends the heartbeat ping; false means the pump should stop.
func (c *Client) writePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Info().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
