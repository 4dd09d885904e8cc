package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iamasit07/4-in-a-row/client/internal/domain"
)

// Metrics groups the client's Prometheus collectors. A nil *Metrics is valid
// and records nothing, so components can run without a registry.
type Metrics struct {
	DialAttempts        prometheus.Counter
	ReconnectsScheduled prometheus.Counter
	FramesReceived      *prometheus.CounterVec
	FramesDropped       prometheus.Counter
	FramesSent          prometheus.Counter
	SendsDropped        prometheus.Counter
	LeaderboardFailures prometheus.Counter
	ConnectionStatus    prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DialAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "connect4_client",
			Name:      "dial_attempts_total",
			Help:      "WebSocket dial attempts.",
		}),
		ReconnectsScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "connect4_client",
			Name:      "reconnects_scheduled_total",
			Help:      "Reconnect timers armed after a lost or failed connection.",
		}),
		FramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "connect4_client",
			Name:      "frames_received_total",
			Help:      "Decoded inbound frames by message type.",
		}, []string{"type"}),
		FramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "connect4_client",
			Name:      "frames_dropped_total",
			Help:      "Inbound frames dropped because they could not be decoded.",
		}),
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "connect4_client",
			Name:      "frames_sent_total",
			Help:      "Outbound frames written to the socket.",
		}),
		SendsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "connect4_client",
			Name:      "sends_dropped_total",
			Help:      "Outbound messages dropped because the socket was not open.",
		}),
		LeaderboardFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "connect4_client",
			Name:      "leaderboard_fetch_failures_total",
			Help:      "Leaderboard fetches that degraded to an empty list.",
		}),
		ConnectionStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "connect4_client",
			Name:      "connection_status",
			Help:      "0 disconnected, 1 connecting, 2 connected, 3 error.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.DialAttempts,
			m.ReconnectsScheduled,
			m.FramesReceived,
			m.FramesDropped,
			m.FramesSent,
			m.SendsDropped,
			m.LeaderboardFailures,
			m.ConnectionStatus,
		)
	}
	return m
}

func (m *Metrics) IncDial() {
	if m != nil {
		m.DialAttempts.Inc()
	}
}

func (m *Metrics) IncReconnect() {
	if m != nil {
		m.ReconnectsScheduled.Inc()
	}
}

func (m *Metrics) IncReceived(msgType string) {
	if m != nil {
		m.FramesReceived.WithLabelValues(msgType).Inc()
	}
}

func (m *Metrics) IncDropped() {
	if m != nil {
		m.FramesDropped.Inc()
	}
}

func (m *Metrics) IncSent() {
	if m != nil {
		m.FramesSent.Inc()
	}
}

func (m *Metrics) IncSendDropped() {
	if m != nil {
		m.SendsDropped.Inc()
	}
}

func (m *Metrics) IncLeaderboardFailure() {
	if m != nil {
		m.LeaderboardFailures.Inc()
	}
}

func (m *Metrics) SetConnectionStatus(status domain.ConnectionStatus) {
	if m != nil {
		m.ConnectionStatus.Set(status.Level())
	}
}
