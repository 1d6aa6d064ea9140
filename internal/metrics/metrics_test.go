package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vludko/workformat-bot/internal/metrics"
)

func TestNewMetrics(_ *testing.T) {
	reg := prometheus.NewRegistry()

	_ = metrics.NewMetrics(reg)
}
