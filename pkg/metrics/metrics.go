package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "callmi_signaling_connections",
		Help: "Open signaling websocket connections.",
	})
	LobbyWatchers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "callmi_lobby_watchers",
		Help: "Open lobby websocket connections.",
	})
	RelayedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callmi_relayed_frames_total",
		Help: "SDP/ICE frames relayed between peers.",
	})
	ReclaimedRooms = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callmi_reclaimed_rooms_total",
		Help: "Stale empty rooms deleted by the reclaimer.",
	})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
