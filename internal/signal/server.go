package signal

import (
	"net/http"
	"strconv"

	"log/slog"
	"nhooyr.io/websocket"

	"github.com/google/uuid"
	"github.com/tignatov6/CallMi/internal/directory"
	"github.com/tignatov6/CallMi/pkg/metrics"
)

// Server owns the two websocket endpoints: per-room signaling and the
// lobby room-list feed.
type Server struct {
	log *slog.Logger
	dir directory.Directory
	reg *Registry
}

func NewServer(log *slog.Logger, dir directory.Directory, reg *Registry) *Server {
	return &Server{log: log, dir: dir, reg: reg}
}

// ServeRoom handles /ws/rooms/{roomID}/{peerID}/{name}. Room existence
// and the password check happen after the upgrade so the client gets a
// websocket close code it can show, not a bare HTTP error.
func (s *Server) ServeRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := strconv.ParseInt(r.PathValue("roomID"), 10, 64)
	if err != nil {
		http.Error(w, "bad room id", http.StatusBadRequest)
		return
	}
	peerID := r.PathValue("peerID")
	name := r.PathValue("name")
	if peerID == "" || name == "" {
		http.Error(w, "peer id and name required", http.StatusBadRequest)
		return
	}

	c, err := Accept(w, r)
	if err != nil {
		s.log.Error("ws.accept", "err", err)
		return
	}

	metrics.ActiveConnections.Inc()
	defer metrics.ActiveConnections.Dec()

	ctx := r.Context()
	go c.WriteLoop(ctx)

	NewSession(s.log, s.dir, s.reg, c, roomID, peerID, name).Run(ctx)
	c.Close(websocket.StatusNormalClosure, "")
}

// ServeLobby handles /ws/lobby?peerId=...&name=... — a feed of
// rooms_updated notifications for clients browsing the room list. A
// missing peerId gets a server-assigned one.
func (s *Server) ServeLobby(w http.ResponseWriter, r *http.Request) {
	peerID := r.URL.Query().Get("peerId")
	if peerID == "" {
		peerID = uuid.NewString()
	}
	name := r.URL.Query().Get("name")

	c, err := Accept(w, r)
	if err != nil {
		s.log.Error("ws.accept", "err", err)
		return
	}

	metrics.LobbyWatchers.Inc()
	defer metrics.LobbyWatchers.Dec()

	ctx := r.Context()
	go c.WriteLoop(ctx)

	NewLobbySession(s.log, s.reg, c, peerID, name).Run(ctx)
	c.Close(websocket.StatusNormalClosure, "")
}
