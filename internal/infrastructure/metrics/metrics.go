// Package metrics contains the Prometheus metrics of the bot
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics of the bot
type Metrics struct {
	// Event pipeline metrics
	EventsTotal    *prometheus.CounterVec
	ReactionsTotal *prometheus.CounterVec
	NewsItems      prometheus.Gauge

	// Command metrics
	CommandsTotal *prometheus.CounterVec

	// Snapshot metrics
	SnapshotWrites        prometheus.Counter
	SnapshotWriteErrors   prometheus.Counter
	SnapshotWriteDuration prometheus.Histogram

	// Render metrics
	RendersTotal   *prometheus.CounterVec
	RenderDuration prometheus.Histogram

	// Outbound metrics
	MatrixSendErrors      *prometheus.CounterVec
	KafkaMessagesProduced prometheus.Counter
	KafkaProduceErrors    prometheus.Counter
}

var (
	// DefaultMetrics is the default metrics instance
	DefaultMetrics *Metrics
	once           sync.Once
)

// GetDefaultMetrics returns the singleton metrics instance
func GetDefaultMetrics() *Metrics {
	once.Do(func() {
		DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return DefaultMetrics
}

// NewMetrics creates all counters and gauges on the given registerer
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hebbot_events_total",
				Help: "Total number of room events by normalized kind",
			},
			[]string{"kind"},
		),
		ReactionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hebbot_reactions_total",
				Help: "Total number of classified reactions by outcome",
			},
			[]string{"outcome"},
		),
		NewsItems: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hebbot_news_items",
			Help: "Current number of stored news items",
		}),

		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hebbot_commands_total",
				Help: "Total number of admin commands by name and result",
			},
			[]string{"command", "result"},
		),

		SnapshotWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "hebbot_snapshot_writes_total",
			Help: "Total number of successful snapshot writes",
		}),
		SnapshotWriteErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "hebbot_snapshot_write_errors_total",
			Help: "Total number of failed snapshot writes",
		}),
		SnapshotWriteDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hebbot_snapshot_write_duration_seconds",
			Help:    "Duration of snapshot writes in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		RendersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hebbot_renders_total",
				Help: "Total number of renders by result",
			},
			[]string{"result"},
		),
		RenderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hebbot_render_duration_seconds",
			Help:    "Duration of template rendering in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),

		MatrixSendErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hebbot_matrix_send_errors_total",
				Help: "Total number of failed Matrix sends by kind",
			},
			[]string{"kind"},
		),
		KafkaMessagesProduced: factory.NewCounter(prometheus.CounterOpts{
			Name: "hebbot_kafka_messages_produced_total",
			Help: "Total number of change events produced to Kafka",
		}),
		KafkaProduceErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "hebbot_kafka_produce_errors_total",
			Help: "Total number of Kafka produce errors",
		}),
	}
}

// RecordEvent records a normalized room event
func (m *Metrics) RecordEvent(kind string) {
	m.EventsTotal.WithLabelValues(kind).Inc()
}

// RecordReaction records the outcome of a classified reaction
func (m *Metrics) RecordReaction(outcome string) {
	m.ReactionsTotal.WithLabelValues(outcome).Inc()
}

// UpdateNewsItems updates the news items gauge
func (m *Metrics) UpdateNewsItems(count int) {
	m.NewsItems.Set(float64(count))
}

// RecordCommand records an admin command with its result label
func (m *Metrics) RecordCommand(command, result string) {
	if command == "" {
		command = "unknown"
	}
	m.CommandsTotal.WithLabelValues(command, result).Inc()
}

// RecordSnapshotWrite records a snapshot write with duration
func (m *Metrics) RecordSnapshotWrite(duration float64, err error) {
	m.SnapshotWriteDuration.Observe(duration)
	if err != nil {
		m.SnapshotWriteErrors.Inc()
		return
	}
	m.SnapshotWrites.Inc()
}

// RecordRender records a render with duration
func (m *Metrics) RecordRender(duration float64, err error) {
	m.RenderDuration.Observe(duration)
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.RendersTotal.WithLabelValues(result).Inc()
}

// RecordMatrixSendError records a failed Matrix send
func (m *Metrics) RecordMatrixSendError(kind string) {
	m.MatrixSendErrors.WithLabelValues(kind).Inc()
}

// RecordKafkaMessage records a produced change event
func (m *Metrics) RecordKafkaMessage(err error) {
	if err != nil {
		m.KafkaProduceErrors.Inc()
		return
	}
	m.KafkaMessagesProduced.Inc()
}
