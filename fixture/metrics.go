package fixture

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const metricsNamespace = "compose_test"

// Registry holds the metrics of every session in this process
var Registry = prometheus.NewRegistry()

var (
	lifecycleDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "lifecycle_duration_seconds",
		Help:      "Time spent bringing environments up and down.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 12),
	}, []string{"operation", "result"})

	sessions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "sessions_total",
		Help:      "Sessions started, by mode.",
	}, []string{"mode"})

	portLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "port_lookups_total",
		Help:      "Port lookups, by outcome.",
	}, []string{"result"})

	waitPolls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "wait_polls_total",
		Help:      "Readiness checks run while waiting on services, by outcome.",
	}, []string{"result"})
)

func init() {
	Registry.MustRegister(lifecycleDuration, sessions, portLookups, waitPolls)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// WriteMetrics writes the current metrics in the Prometheus text format
func WriteMetrics(w io.Writer) error {
	families, err := gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func gather() ([]*dto.MetricFamily, error) {
	return Registry.Gather()
}
