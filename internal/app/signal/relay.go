/*
Package signal implements the WebRTC signaling relay.

This file defines the Relay, which forwards handshake messages from one
registered connection to another. The registry is its only directory; any
two registered connections can signal each other regardless of room.
*/
package signal

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"medichat/internal/pkg/logx"
)

// Kind is the handshake message class being relayed.
type Kind string

const (
	KindOffer     Kind = "offer"
	KindAnswer    Kind = "answer"
	KindCandidate Kind = "candidate"
)

// Outcome is the typed result of a forward attempt. Callers may surface it
// to senders, but by default a missing target is silently dropped to keep
// fire-and-forget semantics during call teardown races.
type Outcome int

const (
	// OutcomeDelivered means the frame was handed to the target's session.
	OutcomeDelivered Outcome = iota

	// OutcomeTargetNotFound means the target id is not registered; the
	// message reached no one.
	OutcomeTargetNotFound

	// OutcomeInvalidKind means the kind was outside the closed set, which
	// indicates a server-side bug.
	OutcomeInvalidKind
)

// String implements fmt.Stringer for log output.
func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeTargetNotFound:
		return "target_not_found"
	case OutcomeInvalidKind:
		return "invalid_kind"
	default:
		return "unknown"
	}
}

// Relay forwards point-to-point handshake messages between connections.
type Relay struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewRelay constructs a Relay backed by the given registry.
func NewRelay(registry *Registry) *Relay {
	return &Relay{
		registry: registry,
		logger:   logx.Logger().With().Str("component", "Relay").Logger(),
	}
}

// Forward delivers one handshake message to the target connection. The
// payload is never inspected; it is stamped into the kind's delivery shape
// unmodified. Offers carry the true sender id; answers and candidates do
// not, matching the contract the browser clients were built against.
func (r *Relay) Forward(kind Kind, sourceID, targetID string, payload json.RawMessage) Outcome {
	target, ok := r.registry.Get(targetID)
	if !ok {
		r.logger.Debug().
			Str("kind", string(kind)).
			Str("source_id", sourceID).
			Str("target_id", targetID).
			Msg("Relay target not registered; message dropped.")
		return OutcomeTargetNotFound
	}

	var (
		frame []byte
		err   error
	)

	switch kind {
	case KindOffer:
		frame, err = encodeEvent(EventVideoOffer, OfferDelivery{Offer: payload, Source: sourceID})
	case KindAnswer:
		frame, err = encodeEvent(EventVideoAnswer, AnswerDelivery{Answer: payload})
	case KindCandidate:
		frame, err = encodeEvent(EventIceCandidate, CandidateDelivery{Candidate: payload})
	default:
		r.logger.Error().Str("kind", string(kind)).Msg("Relay called with unknown message kind.")
		return OutcomeInvalidKind
	}

	if err != nil {
		r.logger.Error().Err(err).Str("kind", string(kind)).Msg("Failed to encode relay frame.")
		return OutcomeInvalidKind
	}

	if err := target.Deliver(frame); err != nil {
		// The target exists but its queue is saturated or closing; the
		// single delivery is dropped, the sender's session is unaffected.
		r.logger.Warn().
			Err(err).
			Str("kind", string(kind)).
			Str("target_id", targetID).
			Msg("Relay delivery dropped for unreachable target.")
	}

	return OutcomeDelivered
}
