package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PacketsReceived counts inbound packets by wire type.
	PacketsReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "burrow_packets_received_total",
		Help: "Inbound packets processed by the dispatcher, by packet type.",
	}, []string{"type"})

	// PacketsSent counts outbound packets by wire type.
	PacketsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "burrow_packets_sent_total",
		Help: "Outbound packets written to client sessions, by packet type.",
	}, []string{"type"})

	// SessionsActive tracks the number of connected sessions.
	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "burrow_sessions_active",
		Help: "Currently connected client sessions.",
	})

	// Broadcasts counts entity broadcasts by kind (update, add, remove).
	Broadcasts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "burrow_entity_broadcasts_total",
		Help: "Entity broadcasts fanned out to interested sessions, by kind.",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(PacketsReceived, PacketsSent, SessionsActive, Broadcasts)
}

// Handler returns the HTTP handler serving the registered collectors.
func Handler() http.Handler {
	return promhttp.Handler()
}
