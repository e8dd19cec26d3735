// monitor/monitor.go
package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OnlinePlayers    prometheus.Gauge
	ActiveRooms      prometheus.Gauge
	MessagesReceived *prometheus.CounterVec
	MessageLatency   prometheus.Histogram
	DiceRolled       *prometheus.CounterVec
	GamesFinished    *prometheus.CounterVec
	RoomsClosed      *prometheus.CounterVec
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OnlinePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_players",
			Help:      "Number of connected websocket sessions",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of live rooms",
		}),
		MessagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Inbound messages by type",
		}, []string{"type"}),
		MessageLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "message_latency_seconds",
			Help:      "Inbound message processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		DiceRolled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dice_rolled_total",
			Help:      "Dice rolled, by face",
		}, []string{"face"}),
		GamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Matches won, by winning seat",
		}, []string{"seat"}),
		RoomsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_closed_total",
			Help:      "Rooms torn down, by reason",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		m.OnlinePlayers,
		m.ActiveRooms,
		m.MessagesReceived,
		m.MessageLatency,
		m.DiceRolled,
		m.GamesFinished,
		m.RoomsClosed,
	)

	return m
}

// Monitor is the narrow recording API the rest of the server uses.
type Monitor struct {
	metrics   *Metrics
	gatherer  prometheus.Gatherer
	startTime time.Time
}

// NewMonitor registers metrics on a private registry, so several monitors
// can coexist in one process.
func NewMonitor(namespace string) *Monitor {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Monitor{
		metrics:   NewMetrics(namespace, reg),
		gatherer:  reg,
		startTime: time.Now(),
	}
}

// Handler serves the metrics in the Prometheus text format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Monitor) Metrics() *Metrics {
	return m.metrics
}

func (m *Monitor) Uptime() time.Duration {
	return time.Since(m.startTime)
}

func (m *Monitor) IncOnlinePlayers() {
	m.metrics.OnlinePlayers.Inc()
}

func (m *Monitor) DecOnlinePlayers() {
	m.metrics.OnlinePlayers.Dec()
}

func (m *Monitor) SetActiveRooms(count int) {
	m.metrics.ActiveRooms.Set(float64(count))
}

func (m *Monitor) IncMessagesReceived(msgType string) {
	m.metrics.MessagesReceived.WithLabelValues(msgType).Inc()
}

func (m *Monitor) ObserveMessageLatency(duration time.Duration) {
	m.metrics.MessageLatency.Observe(duration.Seconds())
}

func (m *Monitor) ObserveRoll(face int) {
	m.metrics.DiceRolled.WithLabelValues(faceLabel(face)).Inc()
}

func (m *Monitor) IncGamesFinished(seat int) {
	label := "0"
	if seat == 1 {
		label = "1"
	}
	m.metrics.GamesFinished.WithLabelValues(label).Inc()
}

func (m *Monitor) IncRoomsClosed(reason string) {
	m.metrics.RoomsClosed.WithLabelValues(reason).Inc()
}

func faceLabel(face int) string {
	if face < 1 || face > 6 {
		return "invalid"
	}
	return string(rune('0' + face))
}
