package telemetry

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the counters this library's callers can
// attach around their own CRDT usage. It is never constructed or
// populated by the crdt package itself.
type Metrics struct {
	MergesTotal      metrics.Counter
	MergeFailures    metrics.Counter
	MutationsTotal   metrics.Counter
	MutationFailures metrics.Counter
}

// NewMetrics returns a Metrics bound to real Prometheus collectors under
// the given namespace/subsystem, or a Metrics backed by discard.Counter
// (every observation is dropped) if namespace is empty — the same
// enable/disable-by-empty-string convention the mail-server distributor
// used for its own Prometheus wiring.
func NewMetrics(namespace, subsystem string) *Metrics {
	if namespace == "" {
		return &Metrics{
			MergesTotal:      discard.NewCounter(),
			MergeFailures:    discard.NewCounter(),
			MutationsTotal:   discard.NewCounter(),
			MutationFailures: discard.NewCounter(),
		}
	}

	return &Metrics{
		MergesTotal: prometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "merges_total",
			Help:      "Number of merge operations attempted.",
		}, []string{"crdt"}),
		MergeFailures: prometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "merge_failures_total",
			Help:      "Number of merge operations that returned an error.",
		}, []string{"crdt"}),
		MutationsTotal: prometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "mutations_total",
			Help:      "Number of local mutation operations attempted.",
		}, []string{"crdt", "op"}),
		MutationFailures: prometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "mutation_failures_total",
			Help:      "Number of local mutation operations that returned an error.",
		}, []string{"crdt", "op"}),
	}
}

// ObserveMerge increments MergesTotal, and MergeFailures if err is
// non-nil, labeled by crdtType.
func (m *Metrics) ObserveMerge(crdtType string, err error) {
	m.MergesTotal.With("crdt", crdtType).Add(1)
	if err != nil {
		m.MergeFailures.With("crdt", crdtType).Add(1)
	}
}

// ObserveMutation increments MutationsTotal, and MutationFailures if err
// is non-nil, labeled by crdtType and op.
func (m *Metrics) ObserveMutation(crdtType, op string, err error) {
	m.MutationsTotal.With("crdt", crdtType, "op", op).Add(1)
	if err != nil {
		m.MutationFailures.With("crdt", crdtType, "op", op).Add(1)
	}
}
