package testutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestMockErrorsAreDistinct(t *testing.T) {
	all := []error{
		ErrMockExecutableNotFound,
		ErrMockExitStatus,
		ErrMockDiskFull,
		ErrMockConnectionRefused,
		ErrMockProvider,
	}

	for i, a := range all {
		for j, b := range all {
			if i == j {
				continue
			}
			assert.NotErrorIs(t, a, b)
		}
	}
}

func TestMockErrorsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("write main.py: %w", ErrMockDiskFull)

	assert.ErrorIs(t, wrapped, ErrMockDiskFull)
	assert.False(t, errors.Is(wrapped, ErrMockExitStatus))
}

func TestGaugeValue(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "nemo", Name: "coverage_percent"})
	reg.MustRegister(g)
	g.Set(72)

	assert.InDelta(t, 72, GaugeValue(t, reg, "coverage_percent"), 0.001)
}
