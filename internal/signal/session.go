package signal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"log/slog"
	"nhooyr.io/websocket"

	"github.com/tignatov6/CallMi/internal/directory"
	"github.com/tignatov6/CallMi/pkg/metrics"
)

// State tracks one connection's lifecycle through the signaling protocol.
type State int

const (
	StateConnecting State = iota
	StateAuthenticating
	StateJoined
	StateDisconnected
)

// transport is the session's view of its own connection: the registry
// Handle plus the read/close side. *Conn implements it; tests use an
// in-memory fake.
type transport interface {
	Handle
	Read(ctx context.Context) ([]byte, bool)
	Close(code websocket.StatusCode, reason string)
}

// Session drives one signaling connection:
// Connecting -> Authenticating -> Joined -> Disconnected.
// Authenticating is passed immediately for open rooms, but the credential
// frame is consumed either way to keep the framing symmetric.
type Session struct {
	log *slog.Logger
	dir directory.Directory
	reg *Registry
	tr  transport

	roomID int64
	peerID string
	name   string
	state  State
}

func NewSession(log *slog.Logger, dir directory.Directory, reg *Registry, tr transport, roomID int64, peerID, name string) *Session {
	return &Session{
		log:    log.With("room", roomID, "peer", peerID),
		dir:    dir,
		reg:    reg,
		tr:     tr,
		roomID: roomID,
		peerID: peerID,
		name:   name,
		state:  StateConnecting,
	}
}

func (s *Session) State() State { return s.state }

// Run executes the session to completion. It returns once the peer is
// gone; registry state is always cleaned up on the way out.
func (s *Session) Run(ctx context.Context) {
	room, err := s.dir.Get(ctx, s.roomID)
	if err != nil {
		if !errors.Is(err, directory.ErrNotFound) {
			s.log.Error("session.lookup", "err", err)
		}
		s.close(CloseRoomNotFound, "room not found")
		return
	}

	s.state = StateAuthenticating
	if !s.authenticate(ctx, room) {
		return
	}

	existing, err := s.reg.Join(s.roomID, s.peerID, s.name, s.tr)
	if err != nil {
		s.log.Warn("session.join", "err", err)
		s.close(CloseDuplicatePeer, "peer id already in use")
		return
	}
	s.state = StateJoined
	s.tr.TrySend(roomStateFrame(existing))

	if err := s.dir.UpdateActivity(ctx, s.roomID, time.Now().UTC()); err != nil {
		s.log.Warn("session.activity", "err", err)
	}

	s.relay(ctx)

	s.reg.Leave(s.roomID, s.peerID)
	s.state = StateDisconnected
}

// authenticate consumes exactly one credential frame. Open rooms accept
// anything; password rooms compare digests byte-for-byte. Wrong password
// and garbage input close differently on the wire but both end the
// session before any registry state exists.
func (s *Session) authenticate(ctx context.Context, room directory.Room) bool {
	raw, ok := s.tr.Read(ctx)
	if !ok {
		s.state = StateDisconnected
		return false
	}
	if !room.HasPassword() {
		return true
	}

	var cred credentialFrame
	if err := json.Unmarshal(raw, &cred); err != nil {
		s.log.Warn("session.auth.malformed", "err", err)
		s.close(CloseAuthFailed, "authentication failed")
		return false
	}
	if directory.HashPassword(cred.Password) != room.PasswordHash {
		s.log.Warn("session.auth.wrong_password")
		s.close(CloseIncorrectPassword, "incorrect password")
		return false
	}
	return true
}

// relay is the Joined steady state: sdp/ice frames are stamped with the
// sender and forwarded to their target, refresh_users is answered
// locally, anything else is dropped without ending the session.
func (s *Session) relay(ctx context.Context) {
	for {
		raw, ok := s.tr.Read(ctx)
		if !ok {
			return
		}

		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			s.log.Debug("session.frame.malformed", "err", err)
			continue
		}

		switch f.Type {
		case FrameSDP, FrameICE:
			if f.ToID == "" {
				s.log.Debug("session.frame.no_target", "type", f.Type)
				continue
			}
			f.FromID = s.peerID
			out, _ := json.Marshal(f)
			if s.reg.SendTo(s.roomID, f.ToID, out) {
				metrics.RelayedFrames.Inc()
			} else {
				// Target likely disconnected mid-flight; drop silently.
				s.log.Debug("session.relay.target_missing", "to", f.ToID)
			}

		case FrameRefreshUsers:
			s.tr.TrySend(roomStateFrame(s.reg.Members(s.roomID, s.peerID)))

		default:
			s.log.Debug("session.frame.unknown", "type", f.Type)
		}
	}
}

func (s *Session) close(code websocket.StatusCode, reason string) {
	s.tr.Close(code, reason)
	s.state = StateDisconnected
}

// LobbySession is the room-list variant: it only registers for
// rooms_updated fan-out and discards whatever the client sends.
type LobbySession struct {
	log *slog.Logger
	reg *Registry
	tr  transport

	peerID string
	name   string
}

func NewLobbySession(log *slog.Logger, reg *Registry, tr transport, peerID, name string) *LobbySession {
	return &LobbySession{
		log:    log.With("lobby_peer", peerID),
		reg:    reg,
		tr:     tr,
		peerID: peerID,
		name:   name,
	}
}

func (s *LobbySession) Run(ctx context.Context) {
	if err := s.reg.LobbyJoin(s.peerID, s.name, s.tr); err != nil {
		s.log.Warn("lobby.join", "err", err)
		s.tr.Close(CloseDuplicatePeer, "peer id already in use")
		return
	}
	defer s.reg.LobbyLeave(s.peerID)

	// Inbound traffic is keep-alive only.
	for {
		if _, ok := s.tr.Read(ctx); !ok {
			return
		}
	}
}
