package httpx

import (
	"net/http"

	"log/slog"

	"github.com/tignatov6/CallMi/internal/app"
	"github.com/tignatov6/CallMi/internal/directory"
	"github.com/tignatov6/CallMi/internal/signal"
	"github.com/tignatov6/CallMi/pkg/metrics"
)

// NewRouter wires up all HTTP routes, middleware, and handlers
func NewRouter(cfg app.Config, logger *slog.Logger, sig *signal.Server, dir directory.Directory, events signal.Publisher) http.Handler {
	mw := NewMiddleware(cfg)
	api := &RoomsAPI{Log: logger, Dir: dir, Events: events}

	mux := http.NewServeMux()

	// Health / readiness / metrics
	mux.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/readyz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket endpoints
	mux.Handle("/ws/rooms/{roomID}/{peerID}/{name}", http.HandlerFunc(sig.ServeRoom))
	mux.Handle("/ws/lobby", http.HandlerFunc(sig.ServeLobby))

	// Rooms API
	mux.Handle("/api/rooms", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			api.Create(w, r)
			return
		}
		if r.Method == http.MethodGet {
			api.List(w, r)
			return
		}
		http.NotFound(w, r)
	}))

	// CORS + rate limit applied globally
	return mw.Wrap(mux)
}
