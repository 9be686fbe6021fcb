package signal

import (
	"encoding/json"
	"strings"
	"testing"
)

// newTestClient builds a Client without a WebSocket connection; the pumps
// are never started, frames are read straight from the send queue.
func newTestClient(t *testing.T, reg *Registry, rooms *Broadcaster, relay *Relay, id string) *Client {
	t.Helper()
	return NewClient(reg, rooms, relay, nil, id)
}

// drainFrames empties the client's send queue and decodes the envelopes.
func drainFrames(t *testing.T, c *Client) []Envelope {
	t.Helper()

	var envs []Envelope
	for {
		select {
		case frame := <-c.send:
			var env Envelope
			if err := json.Unmarshal(frame, &env); err != nil {
				t.Fatalf("queued frame is not a valid envelope: %v", err)
			}
			envs = append(envs, env)
		default:
			return envs
		}
	}
}

func inbound(t *testing.T, eventType EventType, payload any) []byte {
	t.Helper()

	frame, err := encodeEvent(eventType, payload)
	if err != nil {
		t.Fatalf("failed to encode inbound frame: %v", err)
	}
	return frame
}

func TestClient_JoinRegistersGreetsAndBroadcasts(t *testing.T) {
	reg := NewRegistry()
	rooms := NewBroadcaster()
	relay := NewRelay(reg)

	c := newTestClient(t, reg, rooms, relay, "conn-1")
	c.processInbound(inbound(t, EventJoinRoom, JoinRoomPayload{Username: "alice"}))

	conn, ok := reg.Get("conn-1")
	if !ok {
		t.Fatal("join_room did not register the connection")
	}
	if conn.Username != "alice" {
		t.Errorf("expected username alice, got %q", conn.Username)
	}

	members := rooms.ListMembers(DefaultRoomID)
	if len(members) != 1 || members[0].ID != "conn-1" {
		t.Fatalf("expected the joiner in %s, got %+v", DefaultRoomID, members)
	}

	envs := drainFrames(t, c)
	if len(envs) != 2 {
		t.Fatalf("expected welcome and user_list frames, got %d frames", len(envs))
	}
	if envs[0].Type != EventWelcome {
		t.Errorf("first frame should be welcome, got %s", envs[0].Type)
	}

	var welcome WelcomePayload
	if err := json.Unmarshal(envs[0].Payload, &welcome); err != nil {
		t.Fatalf("welcome payload did not decode: %v", err)
	}
	if welcome.ID != "conn-1" || welcome.Username != "alice" {
		t.Errorf("unexpected welcome payload: %+v", welcome)
	}

	if envs[1].Type != EventUserList {
		t.Errorf("second frame should be user_list, got %s", envs[1].Type)
	}
}

func TestClient_JoinWithoutUsernameGeneratesOne(t *testing.T) {
	reg := NewRegistry()
	rooms := NewBroadcaster()
	relay := NewRelay(reg)

	c := newTestClient(t, reg, rooms, relay, "conn-1")
	c.processInbound(inbound(t, EventJoinRoom, JoinRoomPayload{}))

	conn, ok := reg.Get("conn-1")
	if !ok {
		t.Fatal("join_room did not register the connection")
	}
	if !strings.HasPrefix(conn.Username, "User-") || len(conn.Username) != len("User-")+8 {
		t.Errorf("generated username has wrong shape: %q", conn.Username)
	}
}

func TestClient_DuplicateJoinIgnored(t *testing.T) {
	reg := NewRegistry()
	rooms := NewBroadcaster()
	relay := NewRelay(reg)

	c := newTestClient(t, reg, rooms, relay, "conn-1")
	c.processInbound(inbound(t, EventJoinRoom, JoinRoomPayload{Username: "alice"}))
	c.processInbound(inbound(t, EventJoinRoom, JoinRoomPayload{Username: "eve"}))

	conn, _ := reg.Get("conn-1")
	if conn.Username != "alice" {
		t.Errorf("second join_room changed username to %q", conn.Username)
	}
	if got := len(rooms.ListMembers(DefaultRoomID)); got != 1 {
		t.Errorf("expected 1 member, got %d", got)
	}
}

func TestClient_DuplicateIDRejectsSession(t *testing.T) {
	reg := NewRegistry()
	rooms := NewBroadcaster()
	relay := NewRelay(reg)

	// Someone already holds this id.
	reg.Register("conn-1", "original", &fakeSender{})

	c := newTestClient(t, reg, rooms, relay, "conn-1")
	c.processInbound(inbound(t, EventJoinRoom, JoinRoomPayload{Username: "impostor"}))

	conn, _ := reg.Get("conn-1")
	if conn.Username != "original" {
		t.Errorf("duplicate join overwrote the registry: %q", conn.Username)
	}
	if got := len(rooms.ListMembers(DefaultRoomID)); got != 0 {
		t.Errorf("rejected session still joined the room: %d members", got)
	}

	// The session is winding down: enqueues fail.
	if err := c.Enqueue([]byte("{}")); err == nil {
		t.Error("expected Enqueue to fail after session rejection")
	}
}

func TestClient_SignalEventsBeforeJoinIgnored(t *testing.T) {
	reg := NewRegistry()
	rooms := NewBroadcaster()
	relay := NewRelay(reg)

	targetSender := &fakeSender{}
	reg.Register("target", "bob", targetSender)

	c := newTestClient(t, reg, rooms, relay, "conn-1")
	c.processInbound(inbound(t, EventVideoOffer, OfferPayload{Target: "target", Offer: json.RawMessage(`"sdp"`)}))

	if got := len(targetSender.frames); got != 0 {
		t.Errorf("pre-join offer was relayed: target got %d frames", got)
	}
}

func TestClient_MalformedEventsIgnored(t *testing.T) {
	reg := NewRegistry()
	rooms := NewBroadcaster()
	relay := NewRelay(reg)

	c := newTestClient(t, reg, rooms, relay, "conn-1")

	// None of these may panic or close the session.
	c.processInbound([]byte(`not json at all`))
	c.processInbound([]byte(`{"type":"mystery_event"}`))
	c.processInbound(inbound(t, EventJoinRoom, JoinRoomPayload{Username: "alice"}))
	// Missing target, then missing candidate.
	c.processInbound([]byte(`{"type":"video_offer","payload":{"offer":"sdp"}}`))
	c.processInbound([]byte(`{"type":"ice_candidate","payload":{"target":"ghost"}}`))

	if _, ok := reg.Get("conn-1"); !ok {
		t.Fatal("valid join_room between malformed frames did not register")
	}
	if err := c.Enqueue([]byte("{}")); err != nil {
		t.Errorf("session closed by malformed frames: %v", err)
	}
}

func TestClient_OfferRoundTripBetweenClients(t *testing.T) {
	reg := NewRegistry()
	rooms := NewBroadcaster()
	relay := NewRelay(reg)

	a := newTestClient(t, reg, rooms, relay, "conn-a")
	b := newTestClient(t, reg, rooms, relay, "conn-b")

	a.processInbound(inbound(t, EventJoinRoom, JoinRoomPayload{Username: "alice"}))
	b.processInbound(inbound(t, EventJoinRoom, JoinRoomPayload{Username: "bob"}))
	drainFrames(t, a)
	drainFrames(t, b)

	a.processInbound(inbound(t, EventVideoOffer, OfferPayload{
		Target: "conn-b",
		Offer:  json.RawMessage(`"sdp-1"`),
	}))

	envsB := drainFrames(t, b)
	if len(envsB) != 1 || envsB[0].Type != EventVideoOffer {
		t.Fatalf("expected exactly one video_offer at B, got %+v", envsB)
	}

	var delivery OfferDelivery
	if err := json.Unmarshal(envsB[0].Payload, &delivery); err != nil {
		t.Fatalf("offer delivery did not decode: %v", err)
	}
	if delivery.Source != "conn-a" || string(delivery.Offer) != `"sdp-1"` {
		t.Errorf("unexpected delivery: %+v", delivery)
	}

	if envsA := drainFrames(t, a); len(envsA) != 0 {
		t.Errorf("offer sender received %d frames, expected none", len(envsA))
	}
}

func TestClient_RelayToDepartedTargetIsSilent(t *testing.T) {
	reg := NewRegistry()
	rooms := NewBroadcaster()
	relay := NewRelay(reg)

	a := newTestClient(t, reg, rooms, relay, "conn-a")
	a.processInbound(inbound(t, EventJoinRoom, JoinRoomPayload{Username: "alice"}))
	drainFrames(t, a)

	// Target never existed (or already disconnected): fire and forget.
	a.processInbound(inbound(t, EventIceCandidate, CandidatePayload{
		Target:    "gone",
		Candidate: json.RawMessage(`"c1"`),
	}))

	if envs := drainFrames(t, a); len(envs) != 0 {
		t.Errorf("sender received %d frames after relaying to a departed target", len(envs))
	}
	if err := a.Enqueue([]byte("{}")); err != nil {
		t.Errorf("session destabilized by missing target: %v", err)
	}
}
