package lanes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"TrafficRain/internal/iface"
	"TrafficRain/internal/model"
)

// Source yields the events queued since the previous call without blocking.
type Source interface {
	Drain(fn func(model.PacketEvent)) int
}

// Options tune the bar's cadence and styling.
type Options struct {
	// Interval is the tick period.
	Interval time.Duration
	// SpeedEvery is the number of ticks between speed refreshes.
	SpeedEvery int
	Class      string
}

// Bar renders the lane buffer to a status-bar record once per tick.
type Bar struct {
	out      *RecordWriter
	src      Source
	counters iface.CounterReader
	name     string
	opts     Options

	buf   Buffer
	meter *iface.RateMeter
	ticks int
	speed string

	ppsCount int
	ppsAt    time.Time
	pps      string

	sb strings.Builder
}

// NewBar creates a bar for the named interface. counters may be nil, in
// which case no speed line is shown.
func NewBar(out *RecordWriter, src Source, counters iface.CounterReader, name string, opts Options) *Bar {
	if opts.Interval <= 0 {
		opts.Interval = time.Second / 60
	}
	if opts.SpeedEvery <= 0 {
		opts.SpeedEvery = 30
	}
	return &Bar{out: out, src: src, counters: counters, name: name, opts: opts, pps: "pps: 0"}
}

// Step runs one tick at now: scroll, absorb queued events, refresh the
// speed and rate lines when due, and build the record.
func (b *Bar) Step(now time.Time) Record {
	if b.ppsAt.IsZero() {
		b.ppsAt = now
	}
	if b.meter == nil && b.counters != nil {
		rx, tx, _ := b.counters.Counters(b.name)
		b.meter = iface.NewRateMeter(rx, tx, now)
	}

	b.buf.Tick()
	b.ppsCount += b.src.Drain(b.buf.Apply)
	if now.Sub(b.ppsAt) >= time.Second {
		b.pps = fmt.Sprintf("pps: %d", b.ppsCount)
		slog.Debug("lane tick stats", "pps", b.ppsCount)
		b.ppsCount = 0
		b.ppsAt = now
	}

	b.ticks++
	if b.ticks >= b.opts.SpeedEvery {
		b.ticks = 0
		b.refreshSpeed(now)
	}

	b.sb.Reset()
	b.buf.Render(&b.sb)
	b.sb.WriteString(b.speed)
	fmt.Fprintf(&b.sb, "\n\n<span size='small' color='#a6adc8'>%s</span>", b.pps)

	return Record{
		Text:    b.sb.String(),
		Tooltip: "Interface: " + b.name,
		Class:   b.opts.Class,
	}
}

func (b *Bar) refreshSpeed(now time.Time) {
	if b.meter == nil {
		return
	}
	rx, tx, err := b.counters.Counters(b.name)
	if err != nil {
		slog.Debug("failed to read interface counters", "interface", b.name, "error", err)
		return
	}
	rxRate, txRate := b.meter.Sample(rx, tx, now)
	b.speed = fmt.Sprintf("\n<span size='small' color='#cba6f7'>⬇%s</span>\n<span size='small' color='#fab387'>⬆%s</span>",
		FormatBytes(rxRate), FormatBytes(txRate))
}

// Run ticks until ctx is done or the output is closed. A closed output is
// a normal exit.
func (b *Bar) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if err := b.out.Write(b.Step(now)); err != nil {
				if IsClosedOutput(err) {
					slog.Info("output closed, stopping")
					return nil
				}
				return fmt.Errorf("failed to write record: %w", err)
			}
		}
	}
}

// IsClosedOutput reports whether err means the reader of our output is gone.
func IsClosedOutput(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed)
}

// RunDegraded announces that capture is unavailable, repeating every
// interval until ctx is done or the output is closed.
func RunDegraded(ctx context.Context, out *RecordWriter, reason string, interval time.Duration) error {
	rec := Record{Text: NeedsPrivilegeText, Tooltip: reason, Class: ErrorClass}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := out.Write(rec); err != nil {
			if IsClosedOutput(err) {
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
