package probe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"TrafficRain/internal/engine/protocol"
	"TrafficRain/internal/metrics"
	"TrafficRain/internal/model"
)

// maxConsecutiveErrors ends the capture loop when the source keeps failing.
const maxConsecutiveErrors = 100

// Sniffer drives one FrameSource through a Classifier into a Sink. It owns
// the classifier and must be run on a single goroutine.
type Sniffer struct {
	src     FrameSource
	cls     *protocol.Classifier
	sink    model.Sink
	metrics *metrics.Metrics

	// now stamps frames whose capture info carries no timestamp.
	now func() time.Time
}

// NewSniffer wires a source, a classifier and a sink together. m may be nil.
func NewSniffer(src FrameSource, cls *protocol.Classifier, sink model.Sink, m *metrics.Metrics) *Sniffer {
	if m != nil {
		cls.Flows().OnSweep = m.FlowSweep
	}
	return &Sniffer{src: src, cls: cls, sink: sink, metrics: m, now: time.Now}
}

// Run reads frames until the context is cancelled or the source is closed.
// A closed source ends the loop with a nil error. Read timeouts are retried.
func (s *Sniffer) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, s.src.Close)
	defer stop()

	var (
		total  uint64
		failed int
	)
	defer func() { slog.Info("capture stopped", "frames", total) }()

	for {
		if ctx.Err() != nil {
			return nil
		}
		data, ci, err := s.src.ReadPacketData()
		if err != nil {
			switch classifyReadError(err) {
			case readRetry:
				continue
			case readClosed:
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			s.metrics.CaptureError()
			failed++
			if failed >= maxConsecutiveErrors {
				return fmt.Errorf("capture read failed %d times in a row: %w", failed, err)
			}
			continue
		}
		failed = 0
		total++

		ts := ci.Timestamp
		if ts.IsZero() {
			ts = s.now()
		}
		ev := s.cls.Classify(data, ts)
		s.metrics.ObserveEvent(ev)
		if !s.sink.Send(ev) {
			s.metrics.EventDropped()
		}
	}
}
