package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"saferun/internal/platform/metrics"
)

func TestCollectorsCountOutcomes(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	c := metrics.New(reg)

	c.ObservePass(20*time.Millisecond, 2, 1, 0)
	c.ObservePass(10*time.Millisecond, 1, 0, 1)
	c.ObserveDelivery("overdue", true)
	c.ObserveDelivery("overdue", false)
	c.ObserveDelivery("started", false)
	c.ObserveTransition("check_in")

	assert.InDelta(t, 2, testutil.ToFloat64(c.SweepPasses), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(c.Escalations.WithLabelValues("sent")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.Escalations.WithLabelValues("failed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.Deliveries.WithLabelValues("overdue", "failed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.Transitions.WithLabelValues("check_in")), 0)
}
