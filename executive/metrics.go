package executive

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the executor's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	blocksExecuted prometheus.Counter
	blocksRejected *prometheus.CounterVec
	extrinsics     *prometheus.CounterVec
	label          func(error) string
}

// NewMetrics registers the executor collectors on reg. One Metrics value
// may be shared by many executors.
//
// label maps a dispatch error to the "result" label of the extrinsic
// counter and must return a small fixed set of values. If nil, failures
// are labelled "failed".
func NewMetrics(reg prometheus.Registerer, label func(error) string) *Metrics {
	if label == nil {
		label = func(error) string { return "failed" }
	}
	f := promauto.With(reg)
	return &Metrics{
		blocksExecuted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "ledgerkit",
			Subsystem: "executive",
			Name:      "blocks_executed_total",
			Help:      "Blocks that passed the structural phase",
		}),
		blocksRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgerkit",
			Subsystem: "executive",
			Name:      "blocks_rejected_total",
			Help:      "Blocks rejected in the structural phase by reason",
		}, []string{"reason"}), // mismatch, halt
		extrinsics: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgerkit",
			Subsystem: "executive",
			Name:      "extrinsics_total",
			Help:      "Applied extrinsics by dispatch result",
		}, []string{"result"}),
		label: label,
	}
}

func (m *Metrics) blockExecuted() {
	if m == nil {
		return
	}
	m.blocksExecuted.Inc()
}

func (m *Metrics) blockRejected(reason string) {
	if m == nil {
		return
	}
	m.blocksRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) extrinsicApplied(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = m.label(err)
	}
	m.extrinsics.WithLabelValues(result).Inc()
}
