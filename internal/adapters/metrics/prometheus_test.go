package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchMetrics_CountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDispatchMetrics(reg, "matrix")

	m.OnFlushSuccess(10, 120, 250*time.Millisecond)
	m.OnFlushSuccess(5, 60, 100*time.Millisecond)
	m.OnRateLimited(time.Unix(1700000000, 0), 3)
	m.OnFlushError(errors.New("boom"), 3, 1)
	m.OnFlushError(errors.New("boom"), 3, 2)
	m.OnDiscard([]string{"a", "b", "c"}, 50)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FlushesTotal.WithLabelValues(OutcomeDelivered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FlushesTotal.WithLabelValues(OutcomeRateLimited)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FlushesTotal.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.MessagesDelivered))
	assert.Equal(t, 180.0, testutil.ToFloat64(m.BytesDelivered))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.MessagesDiscarded))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.ResumeAt))
}

func TestDispatchMetrics_ProviderLabelAndPending(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDispatchMetrics(reg, "mattermost")

	pending := 7
	m.ObservePending(func() int { return pending })

	expected := `
# HELP chatship_dispatch_pending_messages Number of messages in the pending batch.
# TYPE chatship_dispatch_pending_messages gauge
chatship_dispatch_pending_messages{provider="mattermost"} 7
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "chatship_dispatch_pending_messages"))
}

func TestNewDispatchMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewDispatchMetrics(prometheus.NewRegistry(), "matrix")
		NewDispatchMetrics(prometheus.NewRegistry(), "matrix")
	})
}
