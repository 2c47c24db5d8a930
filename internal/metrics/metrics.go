package metrics

import (
	"TrafficRain/internal/model"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors shared by the capture path and the
// front ends. The zero value is not usable; a nil *Metrics is, and records nothing.
type Metrics struct {
	packetsTotal    *prometheus.CounterVec
	fastTotal       *prometheus.CounterVec
	droppedTotal    prometheus.Counter
	flowCacheSize   prometheus.Gauge
	flowSweeps      prometheus.Counter
	flowSweepEvicts prometheus.Counter
	captureErrors   prometheus.Counter
	particles       prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		packetsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trafficrain_packets_total",
				Help: "Frames classified, by protocol and direction.",
			},
			[]string{"protocol", "direction"},
		),
		fastTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trafficrain_fast_packets_total",
				Help: "Frames flagged as fast control-plane activity, by protocol.",
			},
			[]string{"protocol"},
		),
		droppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trafficrain_events_dropped_total",
				Help: "Events discarded because the event channel was full.",
			},
		),
		flowCacheSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "trafficrain_flow_cache_entries",
				Help: "UDP flows tracked by the recency cache after the last sweep.",
			},
		),
		flowSweeps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trafficrain_flow_cache_sweeps_total",
				Help: "Size-triggered sweeps of the flow recency cache.",
			},
		),
		flowSweepEvicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trafficrain_flow_cache_evictions_total",
				Help: "Flows removed by sweeps of the flow recency cache.",
			},
		),
		captureErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trafficrain_capture_read_errors_total",
				Help: "Non-timeout errors returned by the frame source.",
			},
		),
		particles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "trafficrain_particles",
				Help: "Live particles in the particle front end.",
			},
		),
	}
	reg.MustRegister(
		m.packetsTotal,
		m.fastTotal,
		m.droppedTotal,
		m.flowCacheSize,
		m.flowSweeps,
		m.flowSweepEvicts,
		m.captureErrors,
		m.particles,
	)
	return m
}

// ObserveEvent counts one classified frame.
func (m *Metrics) ObserveEvent(ev model.PacketEvent) {
	if m == nil {
		return
	}
	m.packetsTotal.WithLabelValues(ev.Protocol.String(), ev.Direction.String()).Inc()
	if ev.Fast {
		m.fastTotal.WithLabelValues(ev.Protocol.String()).Inc()
	}
}

// EventDropped counts one event lost to a full channel.
func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.droppedTotal.Inc()
}

// FlowSweep records the outcome of a flow cache sweep.
func (m *Metrics) FlowSweep(removed, remaining int) {
	if m == nil {
		return
	}
	m.flowSweeps.Inc()
	m.flowSweepEvicts.Add(float64(removed))
	m.flowCacheSize.Set(float64(remaining))
}

// CaptureError counts one failed read from the frame source.
func (m *Metrics) CaptureError() {
	if m == nil {
		return
	}
	m.captureErrors.Inc()
}

// SetParticles records the particle pool size.
func (m *Metrics) SetParticles(n int) {
	if m == nil {
		return
	}
	m.particles.Set(float64(n))
}
