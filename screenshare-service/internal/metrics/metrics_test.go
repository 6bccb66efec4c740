package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func TestCountersIncrement(t *testing.T) {
	before := counterValue(t, FramesDropped.WithLabelValues(DropBufferFull))
	FramesDropped.WithLabelValues(DropBufferFull).Inc()
	assert.Equal(t, before+1, counterValue(t, FramesDropped.WithLabelValues(DropBufferFull)))

	before = counterValue(t, MessagesTotal.WithLabelValues("ping"))
	MessagesTotal.WithLabelValues("ping").Add(2)
	assert.Equal(t, before+2, counterValue(t, MessagesTotal.WithLabelValues("ping")))
}

func TestRegisteredWithDefaultRegistry(t *testing.T) {
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["screenshare_connections"])
	assert.True(t, names["screenshare_active_streams"])
	assert.True(t, names["screenshare_frames_published_total"])
}
