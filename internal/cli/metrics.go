package cli

import (
	"fmt"
	"io"

	"github.com/prometheus/common/expfmt"

	"github.com/mrz1836/chaincore/internal/metrics"
)

// writeMetrics dumps the collected metrics in the Prometheus text format.
func writeMetrics(w io.Writer, m *metrics.Metrics) error {
	if m == nil {
		return nil
	}
	families, err := m.Registry().Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
