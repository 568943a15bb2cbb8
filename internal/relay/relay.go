package relay

import (
	"log/slog"
	"sync"
)

// Peer is one connected client. Implementations must be comparable (pointer types)
// and serialize their own writes; the relay never closes them.
type Peer interface {
	Send(msg []byte) error
}

// Relay fans text messages out to the other peers of a room.
type Relay struct {
	mu     sync.RWMutex
	rooms  map[string]map[Peer]struct{} // roomID -> set of peers
	roomOf map[Peer]string              // peer -> its only room
	log    *slog.Logger
}

func New(log *slog.Logger) *Relay {
	if log == nil {
		log = slog.Default()
	}
	return &Relay{
		rooms:  make(map[string]map[Peer]struct{}),
		roomOf: make(map[Peer]string),
		log:    log,
	}
}

// Join registers p under roomID. Joining again is a no-op; joining another room moves p.
func (r *Relay) Join(roomID string, p Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.roomOf[p]; ok {
		if cur == roomID {
			return
		}
		r.removeLocked(cur, p)
	}

	rs, ok := r.rooms[roomID]
	if !ok {
		rs = make(map[Peer]struct{})
		r.rooms[roomID] = rs
	}
	rs[p] = struct{}{}
	r.roomOf[p] = roomID
}

// Leave removes p from roomID. Unknown rooms and absent peers are ignored.
func (r *Relay) Leave(roomID string, p Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.roomOf[p]; !ok || cur != roomID {
		return
	}
	r.removeLocked(roomID, p)
}

func (r *Relay) removeLocked(roomID string, p Peer) {
	delete(r.roomOf, p)
	if rs, ok := r.rooms[roomID]; ok {
		delete(rs, p)
		if len(rs) == 0 {
			delete(r.rooms, roomID)
		}
	}
}

// Broadcast delivers msg to every peer in roomID except sender and returns
// once every delivery has finished. Delivery errors are logged and dropped.
// The caller is held for as long as the slowest recipient's Send, so peers
// must bound their writes (the websocket peer uses its write deadline).
func (r *Relay) Broadcast(roomID string, msg []byte, sender Peer) {
	targets := r.recipients(roomID, sender)

	switch len(targets) {
	case 0:
		return
	case 1:
		r.deliver(roomID, targets[0], msg)
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(targets))
	for _, p := range targets {
		go func(p Peer) {
			defer wg.Done()
			r.deliver(roomID, p, msg)
		}(p)
	}
	wg.Wait()
}

func (r *Relay) recipients(roomID string, sender Peer) []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rs, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]Peer, 0, len(rs))
	for p := range rs {
		if p == sender {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (r *Relay) deliver(roomID string, p Peer, msg []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Debug("relay delivery panicked", slog.String("room", roomID), slog.Any("panic", rec))
		}
	}()
	if err := p.Send(msg); err != nil {
		r.log.Debug("relay delivery failed", slog.String("room", roomID), slog.Any("err", err))
	}
}

// Rooms returns the number of non-empty rooms.
func (r *Relay) Rooms() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Peers returns the number of peers in roomID.
func (r *Relay) Peers(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

// Contains reports whether roomID currently has any peers.
func (r *Relay) Contains(roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomID]
	return ok
}
