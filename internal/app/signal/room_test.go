package signal

import (
	"encoding/json"
	"sort"
	"sync"
	"testing"
)

// userLists extracts the member lists from every user_list frame a sender
// received, in delivery order.
func userLists(t *testing.T, s *fakeSender) [][]Member {
	t.Helper()

	var lists [][]Member
	for _, env := range s.envelopes(t) {
		if env.Type != EventUserList {
			continue
		}

		var members []Member
		if err := json.Unmarshal(env.Payload, &members); err != nil {
			t.Fatalf("user_list payload did not decode: %v", err)
		}
		lists = append(lists, members)
	}

	return lists
}

// memberIDs returns the sorted ids of a member list.
func memberIDs(members []Member) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBroadcaster_JoinIncludesJoiner(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster()

	sender := &fakeSender{}
	conn, _ := reg.Register("a", "alice", sender)

	b.Join("room-1", conn)

	lists := userLists(t, sender)
	if len(lists) != 1 {
		t.Fatalf("expected 1 user_list broadcast, got %d", len(lists))
	}
	if !equalIDs(memberIDs(lists[0]), []string{"a"}) {
		t.Errorf("joiner missing from its own user_list: %+v", lists[0])
	}
	if lists[0][0].Username != "alice" {
		t.Errorf("expected username alice, got %q", lists[0][0].Username)
	}
}

func TestBroadcaster_SecondJoinReachesEveryone(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster()

	senderA := &fakeSender{}
	senderB := &fakeSender{}
	connA, _ := reg.Register("a", "alice", senderA)
	connB, _ := reg.Register("b", "bob", senderB)

	b.Join("room-1", connA)
	b.Join("room-1", connB)

	listsA := userLists(t, senderA)
	if len(listsA) != 2 {
		t.Fatalf("expected A to see 2 broadcasts, got %d", len(listsA))
	}
	if !equalIDs(memberIDs(listsA[1]), []string{"a", "b"}) {
		t.Errorf("A's second user_list wrong: %+v", listsA[1])
	}

	listsB := userLists(t, senderB)
	if len(listsB) != 1 {
		t.Fatalf("expected B to see 1 broadcast, got %d", len(listsB))
	}
	if !equalIDs(memberIDs(listsB[0]), []string{"a", "b"}) {
		t.Errorf("B's user_list wrong: %+v", listsB[0])
	}
}

func TestBroadcaster_LeaveExcludesDeparted(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster()

	senderA := &fakeSender{}
	senderB := &fakeSender{}
	connA, _ := reg.Register("a", "alice", senderA)
	connB, _ := reg.Register("b", "bob", senderB)

	b.Join("room-1", connA)
	b.Join("room-1", connB)

	senderA.reset()
	senderB.reset()

	b.Leave("room-1", "b")

	if got := len(userLists(t, senderB)); got != 0 {
		t.Errorf("departed member received %d broadcasts, expected none", got)
	}

	listsA := userLists(t, senderA)
	if len(listsA) != 1 {
		t.Fatalf("expected remaining member to receive 1 broadcast, got %d", len(listsA))
	}
	if !equalIDs(memberIDs(listsA[0]), []string{"a"}) {
		t.Errorf("post-leave user_list wrong: %+v", listsA[0])
	}
}

func TestBroadcaster_LeaveUnknownMemberIsNoop(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster()

	sender := &fakeSender{}
	conn, _ := reg.Register("a", "alice", sender)
	b.Join("room-1", conn)
	sender.reset()

	b.Leave("room-1", "stranger")
	b.Leave("no-such-room", "a")

	if got := len(userLists(t, sender)); got != 0 {
		t.Errorf("no-op leaves still produced %d broadcasts", got)
	}
	if got := len(b.ListMembers("room-1")); got != 1 {
		t.Errorf("membership changed by no-op leave: %d members", got)
	}
}

func TestBroadcaster_JoinIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster()

	conn, _ := reg.Register("a", "alice", &fakeSender{})
	b.Join("room-1", conn)
	b.Join("room-1", conn)

	if got := len(b.ListMembers("room-1")); got != 1 {
		t.Errorf("expected 1 member after double join, got %d", got)
	}
}

func TestBroadcaster_UnreachableMemberSkipped(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster()

	senderA := &fakeSender{}
	stuck := &fakeSender{full: true}
	connA, _ := reg.Register("a", "alice", senderA)
	connStuck, _ := reg.Register("b", "bob", stuck)

	b.Join("room-1", connA)
	b.Join("room-1", connStuck)
	senderA.reset()

	senderC := &fakeSender{}
	connC, _ := reg.Register("c", "carol", senderC)
	b.Join("room-1", connC)

	// The reachable members still got the broadcast, stuck stays a member.
	if got := len(userLists(t, senderA)); got != 1 {
		t.Errorf("reachable member got %d broadcasts, expected 1", got)
	}
	if got := len(userLists(t, senderC)); got != 1 {
		t.Errorf("joiner got %d broadcasts, expected 1", got)
	}
	if got := len(b.ListMembers("room-1")); got != 3 {
		t.Errorf("stuck member evicted: %d members", got)
	}
}

func TestBroadcaster_LeaveAllSpansRooms(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster()

	senderA := &fakeSender{}
	senderB := &fakeSender{}
	connA, _ := reg.Register("a", "alice", senderA)
	connB, _ := reg.Register("b", "bob", senderB)

	b.Join("room-1", connA)
	b.Join("room-2", connA)
	b.Join("room-1", connB)
	senderB.reset()

	b.LeaveAll("a")

	if got := len(b.ListMembers("room-1")); got != 1 {
		t.Errorf("room-1 should have 1 member, got %d", got)
	}
	if got := len(b.ListMembers("room-2")); got != 0 {
		t.Errorf("room-2 should be empty, got %d members", got)
	}

	listsB := userLists(t, senderB)
	if len(listsB) != 1 {
		t.Fatalf("expected remaining member to get 1 broadcast, got %d", len(listsB))
	}
	if !equalIDs(memberIDs(listsB[0]), []string{"b"}) {
		t.Errorf("post-LeaveAll user_list wrong: %+v", listsB[0])
	}
}

func TestBroadcaster_MembershipMatchesNetEffect(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster()

	// Concurrent joins and leaves must net out with no lost updates and no
	// duplicates.
	conns := make([]*Connection, 40)
	for i := range conns {
		conn, err := reg.Register(string(rune('A'+i)), "u", &fakeSender{})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		conns[i] = conn
	}

	var wg sync.WaitGroup
	for i, conn := range conns {
		wg.Add(1)
		go func(i int, conn *Connection) {
			defer wg.Done()
			b.Join("room-1", conn)
			if i%2 == 0 {
				b.Leave("room-1", conn.ID)
			}
		}(i, conn)
	}
	wg.Wait()

	members := b.ListMembers("room-1")
	if len(members) != 20 {
		t.Fatalf("expected 20 members after net effect, got %d", len(members))
	}

	seen := make(map[string]bool)
	for _, m := range members {
		if seen[m.ID] {
			t.Errorf("duplicate member %s", m.ID)
		}
		seen[m.ID] = true
	}
}
