package testutil

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// GaugeValue returns the value of the single gauge whose name ends in suffix.
func GaugeValue(t testing.TB, g prometheus.Gatherer, suffix string) float64 {
	t.Helper()

	families, err := g.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if !strings.HasSuffix(mf.GetName(), suffix) {
			continue
		}
		require.Len(t, mf.GetMetric(), 1, mf.GetName())
		return mf.GetMetric()[0].GetGauge().GetValue()
	}
	require.Failf(t, "gauge not found", "no gauge ending in %q", suffix)
	return 0
}
