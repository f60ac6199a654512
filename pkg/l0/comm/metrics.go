package comm

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects link statistics. A nil *Metrics records nothing.
type Metrics struct {
	FramesCommitted prometheus.Counter
	FramesDropped   prometheus.Counter
	BytesDrained    prometheus.Counter
	FramesReceived  prometheus.Counter
	DecodeErrors    *prometheus.CounterVec
	TxSpaceLeft     prometheus.Gauge
}

// NewMetrics creates Metrics with constant labels (e.g. the device id).
func NewMetrics(namespace string, labels prometheus.Labels) *Metrics {
	return &Metrics{
		FramesCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "tx_frames_committed_total",
			Help:        "Frames committed into the TX ring.",
			ConstLabels: labels,
		}),
		FramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "tx_frames_dropped_total",
			Help:        "Frames rolled back because the TX ring was full.",
			ConstLabels: labels,
		}),
		BytesDrained: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "tx_bytes_drained_total",
			Help:        "Bytes drained from the TX ring to the transport.",
			ConstLabels: labels,
		}),
		FramesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "rx_frames_total",
			Help:        "Valid frames received.",
			ConstLabels: labels,
		}),
		DecodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "rx_decode_errors_total",
			Help:        "Receive errors by kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
		TxSpaceLeft: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "tx_space_left_bytes",
			Help:        "Free space in the TX ring after the last drain.",
			ConstLabels: labels,
		}),
	}
}

// Collectors lists all collectors for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FramesCommitted,
		m.FramesDropped,
		m.BytesDrained,
		m.FramesReceived,
		m.DecodeErrors,
		m.TxSpaceLeft,
	}
}

// MustRegister registers all collectors and panics on error.
func (m *Metrics) MustRegister(reg prometheus.Registerer) *Metrics {
	reg.MustRegister(m.Collectors()...)
	return m
}

func (m *Metrics) frameCommitted() {
	if m != nil {
		m.FramesCommitted.Inc()
	}
}

func (m *Metrics) frameDropped() {
	if m != nil {
		m.FramesDropped.Inc()
	}
}

func (m *Metrics) drained(n int64, spaceLeft uint32) {
	if m != nil {
		m.BytesDrained.Add(float64(n))
		m.TxSpaceLeft.Set(float64(spaceLeft))
	}
}

func (m *Metrics) frameReceived() {
	if m != nil {
		m.FramesReceived.Inc()
	}
}

func (m *Metrics) decodeError(err error) {
	if m != nil {
		m.DecodeErrors.WithLabelValues(errorKind(err)).Inc()
	}
}
