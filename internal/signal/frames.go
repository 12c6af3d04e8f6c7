package signal

import "encoding/json"

// Inbound frame types
const (
	FrameSDP          = "sdp"
	FrameICE          = "ice"
	FrameRefreshUsers = "refresh_users"
)

// Outbound frame types
const (
	FrameRoomState    = "room_state"
	FrameNewPeer      = "new_peer"
	FramePeerLeft     = "peer_left"
	FrameRoomsUpdated = "rooms_updated"
)

// Directory-change events carried by rooms_updated frames
const (
	EventRoomCreated = "room_created"
	EventRoomDeleted = "room_deleted"
	EventRoomUpdated = "room_updated"
)

// Frame is the single wire shape for both directions. Relay frames carry
// to_id inbound and from_id outbound; rooms_updated frames carry event.
type Frame struct {
	Type    string          `json:"type"`
	ToID    string          `json:"to_id,omitempty"`
	FromID  string          `json:"from_id,omitempty"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// credentialFrame is the first frame every signaling connection must send
type credentialFrame struct {
	Password string `json:"password"`
}

// PeerInfo identifies one room member on the wire
type PeerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func roomStateFrame(peers []PeerInfo) []byte {
	if peers == nil {
		peers = []PeerInfo{}
	}
	payload, _ := json.Marshal(peers)
	return mustFrame(Frame{Type: FrameRoomState, Payload: payload})
}

func newPeerFrame(id, name string) []byte {
	payload, _ := json.Marshal(PeerInfo{ID: id, Name: name})
	return mustFrame(Frame{Type: FrameNewPeer, Payload: payload})
}

func peerLeftFrame(id string) []byte {
	payload, _ := json.Marshal(struct {
		ID string `json:"id"`
	}{id})
	return mustFrame(Frame{Type: FramePeerLeft, Payload: payload})
}

func roomsUpdatedFrame(event string) []byte {
	return mustFrame(Frame{Type: FrameRoomsUpdated, Event: event})
}

func mustFrame(f Frame) []byte {
	b, err := json.Marshal(f)
	if err != nil {
		panic(err) // frames are built from plain structs, marshal cannot fail
	}
	return b
}
