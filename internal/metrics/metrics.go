// Package metrics provides application-level metrics collection backed by
// Prometheus collectors registered on a per-instance registry.
//
// A nil *Metrics is valid and records nothing, so components can take an
// optional instance without guarding every call.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

const namespace = "chaincore"

// Unrecognized payload kinds.
const (
	KindCall  = "call"
	KindEvent = "event"
)

// Metrics holds the collectors for parsing, building and batch work.
type Metrics struct {
	registry *prometheus.Registry

	parsedTotal       *prometheus.CounterVec
	unrecognizedTotal *prometheus.CounterVec
	builtTotal        *prometheus.CounterVec
	buildErrorsTotal  *prometheus.CounterVec
	batchDuration     prometheus.Histogram
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		parsedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parser",
			Name:      "transactions_total",
			Help:      "Normalized transactions by chain and status",
		}, []string{"chain", "status"}),
		unrecognizedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parser",
			Name:      "unrecognized_total",
			Help:      "Unrecognized contract calls and events by chain",
		}, []string{"chain", "kind"}),
		builtTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      "transactions_total",
			Help:      "Unsigned transactions built by chain and family",
		}, []string{"chain", "family"}),
		buildErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      "errors_total",
			Help:      "Failed builds by chain and error code",
		}, []string{"chain", "code"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "duration_seconds",
			Help:      "Duration of batch parse runs",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(
		m.parsedTotal,
		m.unrecognizedTotal,
		m.builtTotal,
		m.buildErrorsTotal,
		m.batchDuration,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordParse records a normalized transaction.
func (m *Metrics) RecordParse(chain, status string) {
	if m == nil {
		return
	}
	m.parsedTotal.WithLabelValues(chain, status).Inc()
}

// RecordUnrecognized records a call or event outside the known set.
func (m *Metrics) RecordUnrecognized(chain, kind string) {
	if m == nil {
		return
	}
	m.unrecognizedTotal.WithLabelValues(chain, kind).Inc()
}

// RecordBuild records a build attempt; failures are counted by error code.
func (m *Metrics) RecordBuild(chain, family string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.buildErrorsTotal.WithLabelValues(chain, coreerr.Code(err)).Inc()
		return
	}
	m.builtTotal.WithLabelValues(chain, family).Inc()
}

// ObserveBatch records the duration of a batch run.
func (m *Metrics) ObserveBatch(duration time.Duration) {
	if m == nil {
		return
	}
	m.batchDuration.Observe(duration.Seconds())
}
