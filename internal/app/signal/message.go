/*
Package signal implements the WebRTC signaling relay: connection registry,
room presence broadcasting, point-to-point handshake forwarding, and the
per-connection WebSocket lifecycle.

This file defines the wire protocol. Every frame is a JSON envelope of
{type, payload}; handshake payloads (session descriptions, ICE candidates)
stay opaque json.RawMessage blobs and are forwarded byte-for-byte.
*/
package signal

import "encoding/json"

// EventType identifies a frame on the signaling channel.
type EventType string

// Inbound event types.
const (
	EventJoinRoom     EventType = "join_room"
	EventVideoOffer   EventType = "video_offer"
	EventVideoAnswer  EventType = "video_answer"
	EventIceCandidate EventType = "ice_candidate"
)

// Outbound-only event types.
const (
	EventWelcome  EventType = "welcome"
	EventUserList EventType = "user_list"
)

// Envelope is the frame exchanged over the WebSocket in both directions.
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinRoomPayload carries the optional display name on join_room.
type JoinRoomPayload struct {
	Username string `json:"username,omitempty"`
}

// OfferPayload is the inbound video_offer body.
type OfferPayload struct {
	Target string          `json:"target"`
	Offer  json.RawMessage `json:"offer"`
}

// AnswerPayload is the inbound video_answer body.
type AnswerPayload struct {
	Target string          `json:"target"`
	Answer json.RawMessage `json:"answer"`
}

// CandidatePayload is the inbound ice_candidate body.
type CandidatePayload struct {
	Target    string          `json:"target"`
	Candidate json.RawMessage `json:"candidate"`
}

// Member is one entry of a user_list broadcast.
type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// WelcomePayload tells a joining client its transport-assigned id, which a
// plain WebSocket client cannot otherwise learn.
type WelcomePayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// OfferDelivery is the shape forwarded to an offer target. It carries the
// sender id so the recipient knows who to answer.
type OfferDelivery struct {
	Offer  json.RawMessage `json:"offer"`
	Source string          `json:"source"`
}

// AnswerDelivery is the shape forwarded to an answer target. The source is
// intentionally omitted: the recipient already knows the peer from the
// offer exchange, and clients depend on this exact shape.
type AnswerDelivery struct {
	Answer json.RawMessage `json:"answer"`
}

// CandidateDelivery is the shape forwarded to a candidate target. Like
// answers, it omits the source.
type CandidateDelivery struct {
	Candidate json.RawMessage `json:"candidate"`
}

// encodeEvent marshals a payload and wraps it in an Envelope frame.
func encodeEvent(eventType EventType, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Envelope{Type: eventType, Payload: body})
}
