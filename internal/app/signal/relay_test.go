package signal

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestRelay_TargetNotFound(t *testing.T) {
	reg := NewRegistry()
	relay := NewRelay(reg)

	sourceSender := &fakeSender{}
	reg.Register("a", "alice", sourceSender)

	outcome := relay.Forward(KindOffer, "a", "ghost", json.RawMessage(`"sdp-1"`))

	if outcome != OutcomeTargetNotFound {
		t.Fatalf("expected OutcomeTargetNotFound, got %v", outcome)
	}
	if got := len(sourceSender.frames); got != 0 {
		t.Errorf("sender received %d frames; a dropped relay must deliver nothing", got)
	}
}

func TestRelay_OfferCarriesSourceAndExactPayload(t *testing.T) {
	reg := NewRegistry()
	relay := NewRelay(reg)

	senderA := &fakeSender{}
	senderB := &fakeSender{}
	reg.Register("a", "alice", senderA)
	reg.Register("b", "bob", senderB)

	payload := json.RawMessage(`{"type":"offer","sdp":"v=0 o=- 46117 2"}`)

	outcome := relay.Forward(KindOffer, "a", "b", payload)
	if outcome != OutcomeDelivered {
		t.Fatalf("expected OutcomeDelivered, got %v", outcome)
	}

	envs := senderB.envelopes(t)
	if len(envs) != 1 {
		t.Fatalf("target received %d frames, expected exactly 1", len(envs))
	}
	if envs[0].Type != EventVideoOffer {
		t.Fatalf("expected video_offer frame, got %s", envs[0].Type)
	}

	var delivery OfferDelivery
	if err := json.Unmarshal(envs[0].Payload, &delivery); err != nil {
		t.Fatalf("offer delivery did not decode: %v", err)
	}
	if delivery.Source != "a" {
		t.Errorf("expected source stamped as a, got %q", delivery.Source)
	}
	if !bytes.Equal(delivery.Offer, payload) {
		t.Errorf("payload modified in transit:\n sent %s\n got  %s", payload, delivery.Offer)
	}

	if got := len(senderA.frames); got != 0 {
		t.Errorf("sender received %d frames, expected none", got)
	}
}

func TestRelay_AnswerOmitsSource(t *testing.T) {
	reg := NewRegistry()
	relay := NewRelay(reg)

	senderB := &fakeSender{}
	reg.Register("a", "alice", &fakeSender{})
	reg.Register("b", "bob", senderB)

	if outcome := relay.Forward(KindAnswer, "a", "b", json.RawMessage(`"sdp-answer"`)); outcome != OutcomeDelivered {
		t.Fatalf("expected OutcomeDelivered, got %v", outcome)
	}

	envs := senderB.envelopes(t)
	if len(envs) != 1 || envs[0].Type != EventVideoAnswer {
		t.Fatalf("expected a single video_answer frame, got %+v", envs)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(envs[0].Payload, &fields); err != nil {
		t.Fatalf("answer payload did not decode: %v", err)
	}
	if _, ok := fields["answer"]; !ok {
		t.Error("answer field missing from delivery")
	}
	if _, ok := fields["source"]; ok {
		t.Error("answer delivery must not carry a source field")
	}
}

func TestRelay_CandidateOmitsSource(t *testing.T) {
	reg := NewRegistry()
	relay := NewRelay(reg)

	senderB := &fakeSender{}
	reg.Register("a", "alice", &fakeSender{})
	reg.Register("b", "bob", senderB)

	payload := json.RawMessage(`{"candidate":"candidate:1 1 UDP 2122252543","sdpMid":"0"}`)
	if outcome := relay.Forward(KindCandidate, "a", "b", payload); outcome != OutcomeDelivered {
		t.Fatalf("expected OutcomeDelivered, got %v", outcome)
	}

	envs := senderB.envelopes(t)
	if len(envs) != 1 || envs[0].Type != EventIceCandidate {
		t.Fatalf("expected a single ice_candidate frame, got %+v", envs)
	}

	var delivery CandidateDelivery
	if err := json.Unmarshal(envs[0].Payload, &delivery); err != nil {
		t.Fatalf("candidate payload did not decode: %v", err)
	}
	if !bytes.Equal(delivery.Candidate, payload) {
		t.Errorf("candidate payload modified in transit: %s", delivery.Candidate)
	}

	var fields map[string]json.RawMessage
	json.Unmarshal(envs[0].Payload, &fields)
	if _, ok := fields["source"]; ok {
		t.Error("candidate delivery must not carry a source field")
	}
}

func TestRelay_PreservesSendOrder(t *testing.T) {
	reg := NewRegistry()
	relay := NewRelay(reg)

	senderB := &fakeSender{}
	reg.Register("a", "alice", &fakeSender{})
	reg.Register("b", "bob", senderB)

	for i := 0; i < 3; i++ {
		payload, _ := json.Marshal(map[string]int{"seq": i})
		relay.Forward(KindCandidate, "a", "b", payload)
	}

	envs := senderB.envelopes(t)
	if len(envs) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(envs))
	}
	for i, env := range envs {
		var delivery CandidateDelivery
		if err := json.Unmarshal(env.Payload, &delivery); err != nil {
			t.Fatalf("delivery %d did not decode: %v", i, err)
		}
		var body struct {
			Seq int `json:"seq"`
		}
		if err := json.Unmarshal(delivery.Candidate, &body); err != nil {
			t.Fatalf("candidate %d did not decode: %v", i, err)
		}
		if body.Seq != i {
			t.Errorf("delivery %d carries seq %d; order not preserved", i, body.Seq)
		}
	}
}

func TestRelay_InvalidKind(t *testing.T) {
	reg := NewRegistry()
	relay := NewRelay(reg)

	senderB := &fakeSender{}
	reg.Register("b", "bob", senderB)

	if outcome := relay.Forward(Kind("bogus"), "a", "b", json.RawMessage(`"x"`)); outcome != OutcomeInvalidKind {
		t.Fatalf("expected OutcomeInvalidKind, got %v", outcome)
	}
	if got := len(senderB.frames); got != 0 {
		t.Errorf("invalid kind still delivered %d frames", got)
	}
}

func TestRelay_SaturatedTargetStillSucceeds(t *testing.T) {
	reg := NewRegistry()
	relay := NewRelay(reg)

	stuck := &fakeSender{full: true}
	reg.Register("b", "bob", stuck)

	// The delivery is dropped but the operation does not fail the sender.
	if outcome := relay.Forward(KindOffer, "a", "b", json.RawMessage(`"sdp"`)); outcome != OutcomeDelivered {
		t.Fatalf("expected OutcomeDelivered despite saturated queue, got %v", outcome)
	}
}
