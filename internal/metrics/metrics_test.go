package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"TrafficRain/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveEvent(model.PacketEvent{Protocol: model.Dns, Direction: model.Outbound, Fast: true})
	m.ObserveEvent(model.PacketEvent{Protocol: model.Dns, Direction: model.Outbound})
	m.ObserveEvent(model.PacketEvent{Protocol: model.Arp, Direction: model.Undirected})
	m.EventDropped()
	m.FlowSweep(10, 4090)
	m.SetParticles(42)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.packetsTotal.WithLabelValues("DNS", "out")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.packetsTotal.WithLabelValues("ARP", "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fastTotal.WithLabelValues("DNS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.droppedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.flowSweeps))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.flowSweepEvicts))
	assert.Equal(t, 4090.0, testutil.ToFloat64(m.flowCacheSize))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.particles))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveEvent(model.PacketEvent{})
		m.EventDropped()
		m.FlowSweep(1, 1)
		m.CaptureError()
		m.SetParticles(1)
	})
}

func TestRouterServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.EventDropped()

	srv := httptest.NewServer(NewRouter(reg, "/metrics"))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "trafficrain_events_dropped_total 1")

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
