package board

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "flerm"

// Metrics counts board activity. A nil *Metrics records nothing.
type Metrics struct {
	OperationsApplied *prometheus.CounterVec
	OperationsSkipped *prometheus.CounterVec
	BatchesRejected   prometheus.Counter
	Applies           *prometheus.CounterVec
	Gestures          *prometheus.CounterVec
	HistoryDepth      prometheus.Gauge
}

// NewMetrics creates the board metrics and registers them on reg. Pass a
// fresh prometheus.NewRegistry() in tests to avoid collisions.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "board",
				Name:      "operations_applied_total",
				Help:      "Operations applied to the element tree by type",
			},
			[]string{"type"},
		),
		OperationsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "board",
				Name:      "operations_skipped_total",
				Help:      "Operations skipped because their path no longer resolved",
			},
			[]string{"type"},
		),
		BatchesRejected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "board",
				Name:      "batches_rejected_total",
				Help:      "Batches rejected as a whole",
			},
		),
		Applies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "board",
				Name:      "applies_total",
				Help:      "Apply calls by mode (preview or commit)",
			},
			[]string{"mode"},
		),
		Gestures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "board",
				Name:      "gestures_total",
				Help:      "Gestures claimed per plugin",
			},
			[]string{"plugin"},
		),
		HistoryDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "board",
				Name:      "history_depth",
				Help:      "Undo entries currently held",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.OperationsApplied,
			m.OperationsSkipped,
			m.BatchesRejected,
			m.Applies,
			m.Gestures,
			m.HistoryDepth,
		)
	}
	return m
}

func (m *Metrics) applied(ops []Operation, commit bool) {
	if m == nil {
		return
	}
	mode := "preview"
	if commit {
		mode = "commit"
	}
	m.Applies.WithLabelValues(mode).Inc()
	for _, op := range ops {
		m.OperationsApplied.WithLabelValues(op.Type.String()).Inc()
	}
}

func (m *Metrics) skipped(op Operation) {
	if m == nil {
		return
	}
	m.OperationsSkipped.WithLabelValues(op.Type.String()).Inc()
}

func (m *Metrics) rejected() {
	if m == nil {
		return
	}
	m.BatchesRejected.Inc()
}

func (m *Metrics) gesture(plugin string) {
	if m == nil {
		return
	}
	m.Gestures.WithLabelValues(plugin).Inc()
}

func (m *Metrics) historyDepth(n int) {
	if m == nil {
		return
	}
	m.HistoryDepth.Set(float64(n))
}
