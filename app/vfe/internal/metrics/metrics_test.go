package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
)

func TestEngineMetrics(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, m.Register(prometheus.NewRegistry()))
	assert.Equal(t, "/metrics", m.Path())

	m.RecordCall("bind_device", nil, time.Millisecond)
	m.RecordCall("bind_device", vfeerr.ErrSignatureInvalid, time.Millisecond)
	m.RecordCall("bind_device", vfeerr.ErrSignatureInvalid, time.Millisecond)
	m.RecordReward(500)
	m.RecordBurn("level_up", 7)
	m.SetHeight(42)
	m.RecordEvents("kafka", 3, nil)
	m.RecordSnapshot(128, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallTotal.WithLabelValues("bind_device", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CallTotal.WithLabelValues("bind_device", "signature_invalid")))
	assert.Equal(t, 500.0, testutil.ToFloat64(m.RewardMinted))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.Burned.WithLabelValues("level_up")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.Height))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.EventTotal.WithLabelValues("kafka", "success")))
	assert.Equal(t, 128.0, testutil.ToFloat64(m.SnapshotBytes))
}

func TestNilMetricsSafe(t *testing.T) {
	var m *EngineMetrics
	assert.NotPanics(t, func() {
		m.RecordCall("x", nil, 0)
		m.RecordReward(1)
		m.RecordBurn("x", 1)
		m.SetHeight(1)
		m.RecordEvents("x", 1, nil)
		m.RecordSnapshot(1, nil)
	})
}
