package relay

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakePeer struct {
	name string

	mu   sync.Mutex
	got  [][]byte
	err  error
	gate chan struct{} // when set, Send blocks until it is closed
}

func newPeer(name string) *fakePeer { return &fakePeer{name: name} }

func (p *fakePeer) Send(msg []byte) error {
	if p.gate != nil {
		<-p.gate
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.got = append(p.got, append([]byte(nil), msg...))
	return nil
}

func (p *fakePeer) received() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.got))
	for i, m := range p.got {
		out[i] = string(m)
	}
	return out
}

func assertReceived(t *testing.T, p *fakePeer, want ...string) {
	t.Helper()
	got := p.received()
	if len(got) != len(want) {
		t.Fatalf("%s received %q, want %q", p.name, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%s received %q, want %q", p.name, got, want)
		}
	}
}

func TestBroadcast_SkipsSender(t *testing.T) {
	r := New(nil)
	a, b, c := newPeer("A"), newPeer("B"), newPeer("C")
	r.Join("r1", a)
	r.Join("r1", b)
	r.Join("r1", c)

	r.Broadcast("r1", []byte("hi"), a)

	assertReceived(t, a)
	assertReceived(t, b, "hi")
	assertReceived(t, c, "hi")
}

func TestBroadcast_AfterLeave(t *testing.T) {
	r := New(nil)
	a, b, c := newPeer("A"), newPeer("B"), newPeer("C")
	r.Join("r1", a)
	r.Join("r1", b)
	r.Join("r1", c)

	r.Leave("r1", b)
	r.Broadcast("r1", []byte("bye"), a)

	assertReceived(t, a)
	assertReceived(t, b)
	assertReceived(t, c, "bye")
	if r.Peers("r1") != 2 {
		t.Fatalf("Peers = %d, want 2", r.Peers("r1"))
	}
}

func TestLastLeave_RemovesRoom(t *testing.T) {
	r := New(nil)
	a := newPeer("A")
	r.Join("r1", a)
	r.Leave("r1", a)

	if r.Contains("r1") || r.Rooms() != 0 {
		t.Fatalf("room should be gone: contains=%v rooms=%d", r.Contains("r1"), r.Rooms())
	}

	other := newPeer("X")
	r.Broadcast("r1", []byte("anyone?"), other)
	assertReceived(t, a)
	if r.Contains("r1") {
		t.Fatal("broadcast must not recreate the room")
	}
}

func TestBroadcast_UnknownRoom(t *testing.T) {
	r := New(nil)
	a := newPeer("A")
	r.Join("r1", a)

	r.Broadcast("nope", []byte("x"), nil)
	assertReceived(t, a)
}

func TestBroadcast_RecipientCount(t *testing.T) {
	for n := 1; n <= 6; n++ {
		t.Run(fmt.Sprintf("peers=%d", n), func(t *testing.T) {
			r := New(nil)
			peers := make([]*fakePeer, n)
			for i := range peers {
				peers[i] = newPeer(fmt.Sprint(i))
				r.Join("room", peers[i])
			}

			r.Broadcast("room", []byte("m"), peers[0])

			delivered := 0
			for _, p := range peers {
				delivered += len(p.received())
			}
			if delivered != n-1 {
				t.Fatalf("delivered %d, want %d", delivered, n-1)
			}
		})
	}
}

func TestLeave_Noops(t *testing.T) {
	r := New(nil)
	a, b := newPeer("A"), newPeer("B")

	r.Leave("ghost", a)
	r.Join("r1", a)
	r.Leave("r1", b)
	r.Leave("r2", a)

	if r.Peers("r1") != 1 || r.Rooms() != 1 {
		t.Fatalf("unexpected state: rooms=%d peers=%d", r.Rooms(), r.Peers("r1"))
	}
}

func TestJoin_Idempotent(t *testing.T) {
	r := New(nil)
	a, b := newPeer("A"), newPeer("B")
	r.Join("r1", a)
	r.Join("r1", b)
	r.Join("r1", b)

	if r.Peers("r1") != 2 {
		t.Fatalf("Peers = %d, want 2", r.Peers("r1"))
	}

	r.Broadcast("r1", []byte("once"), a)
	assertReceived(t, b, "once")

	// a single Leave undoes any number of Joins
	r.Leave("r1", b)
	r.Broadcast("r1", []byte("twice"), a)
	assertReceived(t, b, "once")
}

func TestJoin_OtherRoomMovesPeer(t *testing.T) {
	r := New(nil)
	a, b := newPeer("A"), newPeer("B")
	r.Join("r1", a)
	r.Join("r1", b)
	r.Join("r2", b)

	if r.Peers("r1") != 1 || r.Peers("r2") != 1 {
		t.Fatalf("r1=%d r2=%d", r.Peers("r1"), r.Peers("r2"))
	}

	r.Broadcast("r1", []byte("to r1"), a)
	assertReceived(t, b)

	r.Join("r2", a)
	if r.Contains("r1") {
		t.Fatal("emptied room must be pruned on move")
	}
	r.Broadcast("r2", []byte("to r2"), a)
	assertReceived(t, b, "to r2")
}

func TestBroadcast_FailingPeerDoesNotStopOthers(t *testing.T) {
	r := New(nil)
	a, b, c := newPeer("A"), newPeer("B"), newPeer("C")
	b.err = errors.New("broken pipe")
	r.Join("r1", a)
	r.Join("r1", b)
	r.Join("r1", c)

	r.Broadcast("r1", []byte("hi"), a)

	assertReceived(t, c, "hi")
	if r.Peers("r1") != 3 {
		t.Fatal("a failed delivery must not change membership")
	}
}

type panicPeer struct{}

func (*panicPeer) Send([]byte) error { panic("boom") }

func TestBroadcast_PanickingPeerIsContained(t *testing.T) {
	r := New(nil)
	a, c := newPeer("A"), newPeer("C")
	r.Join("r1", a)
	r.Join("r1", &panicPeer{})
	r.Join("r1", c)

	r.Broadcast("r1", []byte("hi"), a)
	assertReceived(t, c, "hi")
}

func TestBroadcast_BlockedPeerDoesNotDelayOthers(t *testing.T) {
	r := New(nil)
	a, slow, c := newPeer("A"), newPeer("slow"), newPeer("C")
	slow.gate = make(chan struct{})
	r.Join("r1", a)
	r.Join("r1", slow)
	r.Join("r1", c)

	done := make(chan struct{})
	go func() {
		r.Broadcast("r1", []byte("hi"), a)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for len(c.received()) == 0 {
		select {
		case <-deadline:
			t.Fatal("fast peer was held back by the blocked one")
		case <-time.After(5 * time.Millisecond):
		}
	}

	// the room stays usable while the slow delivery is in flight
	r.Leave("r1", c)
	if r.Peers("r1") != 2 {
		t.Fatalf("Peers = %d, want 2", r.Peers("r1"))
	}

	close(slow.gate)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast did not return after the slow peer drained")
	}
	assertReceived(t, slow, "hi")
}

func TestBroadcast_PreservesSenderOrder(t *testing.T) {
	r := New(nil)
	a, b, c := newPeer("A"), newPeer("B"), newPeer("C")
	r.Join("r1", a)
	r.Join("r1", b)
	r.Join("r1", c)

	want := make([]string, 50)
	for i := range want {
		want[i] = fmt.Sprint(i)
		r.Broadcast("r1", []byte(want[i]), a)
	}
	assertReceived(t, b, want...)
	assertReceived(t, c, want...)
}

func TestConcurrentJoinLeaveBroadcast(t *testing.T) {
	r := New(nil)
	rooms := []string{"a", "b", "c"}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := newPeer(fmt.Sprint(i))
			for j := 0; j < 200; j++ {
				room := rooms[(i+j)%len(rooms)]
				r.Join(room, p)
				r.Broadcast(room, []byte("x"), p)
				_ = r.Peers(room)
				_ = r.Contains(room)
				r.Leave(room, p)
			}
		}(i)
	}
	wg.Wait()

	if r.Rooms() != 0 {
		t.Fatalf("rooms left behind: %d", r.Rooms())
	}
	for _, room := range rooms {
		if r.Contains(room) {
			t.Fatalf("empty room %q still mapped", room)
		}
	}
}
