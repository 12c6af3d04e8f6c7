package signal

import (
	"errors"
	"sync"

	"log/slog"
)

// ErrDuplicatePeer means the peer id is already taken in that room (or in
// the lobby). Joins reject rather than overwrite the existing entry.
var ErrDuplicatePeer = errors.New("peer id already in use")

// Handle is a send-capable channel to one peer. TrySend must never block;
// false means the peer is backed up or gone. Kill must not call back into
// the registry synchronously — it tears the transport down and the owning
// session does the Leave on its own goroutine.
type Handle interface {
	TrySend(frame []byte) bool
	Kill()
}

type peerEntry struct {
	id     string
	name   string
	handle Handle
}

// Registry owns all live membership state: which peers are in which room
// and which are watching the room list from the lobby. Every operation is
// one critical section under a single mutex, so the snapshot-notify-insert
// sequence in Join can never interleave with another mutation. Delivery
// happens through non-blocking handles, so holding the lock across a
// broadcast is cheap.
type Registry struct {
	log *slog.Logger

	mu    sync.Mutex
	rooms map[int64]map[string]*peerEntry // room id -> peer id -> entry
	lobby map[string]*peerEntry
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:   log,
		rooms: map[int64]map[string]*peerEntry{},
		lobby: map[string]*peerEntry{},
	}
}

// Join registers a peer and returns the members that were present before
// it, excluding itself. Those members are sent a new_peer notice; the
// joiner is not. A room key exists only while it has at least one peer.
func (r *Registry) Join(roomID int64, peerID, name string, h Handle) ([]PeerInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.rooms[roomID]
	if _, ok := members[peerID]; ok {
		return nil, ErrDuplicatePeer
	}
	if members == nil {
		members = map[string]*peerEntry{}
		r.rooms[roomID] = members
	}

	existing := make([]PeerInfo, 0, len(members))
	notice := newPeerFrame(peerID, name)
	for _, p := range members {
		existing = append(existing, PeerInfo{ID: p.id, Name: p.name})
		r.deliver(roomID, members, p, notice)
	}

	members[peerID] = &peerEntry{id: peerID, name: name, handle: h}
	return existing, nil
}

// Leave removes a peer. The last peer out drops the room key entirely;
// the durable room record is not touched here. Remaining members get a
// peer_left notice.
func (r *Registry) Leave(roomID int64, peerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.rooms[roomID]
	if _, ok := members[peerID]; !ok {
		return
	}
	delete(members, peerID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
		return
	}

	notice := peerLeftFrame(peerID)
	for _, p := range members {
		r.deliver(roomID, members, p, notice)
	}
	if len(members) == 0 { // every remaining recipient turned out stale
		delete(r.rooms, roomID)
	}
}

// SendTo delivers a frame to exactly one peer. False means the peer isn't
// there — a disconnect racing a relay is expected, not an error.
func (r *Registry) SendTo(roomID int64, peerID string, frame []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.rooms[roomID]
	p, ok := members[peerID]
	if !ok {
		return false
	}
	delivered := r.deliver(roomID, members, p, frame)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
	return delivered
}

// Broadcast delivers a frame to every peer in the room except excludePeerID.
// Each delivery is independent; a failing recipient is dropped, never the
// rest of the fan-out.
func (r *Registry) Broadcast(roomID int64, frame []byte, excludePeerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.rooms[roomID]
	for _, p := range members {
		if p.id == excludePeerID {
			continue
		}
		r.deliver(roomID, members, p, frame)
	}
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}

// Members returns the current room membership, excluding one peer id
// (pass "" for all).
func (r *Registry) Members(roomID int64, exclude string) []PeerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]PeerInfo, 0, len(r.rooms[roomID]))
	for _, p := range r.rooms[roomID] {
		if p.id == exclude {
			continue
		}
		out = append(out, PeerInfo{ID: p.id, Name: p.name})
	}
	return out
}

func (r *Registry) RoomMemberCount(roomID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[roomID])
}

// IsRoomRegistered reports whether the room has any live members. The
// durable record may still exist for rooms this returns false for.
func (r *Registry) IsRoomRegistered(roomID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rooms[roomID]
	return ok
}

// LobbyJoin registers a room-list watcher. Lobby ids are unique too.
func (r *Registry) LobbyJoin(peerID, name string, h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lobby[peerID]; ok {
		return ErrDuplicatePeer
	}
	r.lobby[peerID] = &peerEntry{id: peerID, name: name, handle: h}
	return nil
}

func (r *Registry) LobbyLeave(peerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lobby, peerID)
}

func (r *Registry) LobbyCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lobby)
}

// LobbyBroadcast fans a frame out to every lobby watcher, dropping any
// that can't take it, same as room broadcast.
func (r *Registry) LobbyBroadcast(frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.lobby {
		if !p.handle.TrySend(frame) {
			r.log.Warn("lobby.recipient_stale", "peer", p.id)
			delete(r.lobby, p.id)
			p.handle.Kill()
		}
	}
}

// NotifyRoomsUpdated tells every lobby watcher that the room list changed.
// Wired as the event bus subscription callback.
func (r *Registry) NotifyRoomsUpdated(event string) {
	r.LobbyBroadcast(roomsUpdatedFrame(event))
}

// deliver enqueues a frame to one room member; lock held by caller. A full
// or dead handle gets the peer evicted and its transport killed so it
// can't error again on the next broadcast.
func (r *Registry) deliver(roomID int64, members map[string]*peerEntry, p *peerEntry, frame []byte) bool {
	if p.handle.TrySend(frame) {
		return true
	}
	r.log.Warn("room.recipient_stale", "room", roomID, "peer", p.id)
	delete(members, p.id)
	p.handle.Kill()
	return false
}
