package probe

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"TrafficRain/internal/config"
	"TrafficRain/internal/model"

	"github.com/nats-io/nats.go"
)

// Publisher relays classified events to a NATS subject. It satisfies
// model.Sink so a Sniffer can feed it directly.
type Publisher struct {
	nc      *nats.Conn
	subject string
	failed  atomic.Uint64
	buf     []byte
	now     func() time.Time
}

// NewPublisher connects to the NATS server named in cfg.
func NewPublisher(cfg config.NATSConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.URL, nats.Name("rain-probe"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}
	slog.Info("connected to NATS", "url", cfg.URL, "subject", cfg.Subject)
	return &Publisher{nc: nc, subject: cfg.Subject, now: time.Now}, nil
}

// Publish encodes ev and publishes it. The connection buffers outgoing
// messages, so this does not wait for the server.
func (p *Publisher) Publish(ev model.PacketEvent, ts time.Time) error {
	p.buf = EncodeEvent(p.buf[:0], ev, ts)
	return p.nc.Publish(p.subject, p.buf)
}

// Send publishes ev stamped with the current time. It reports false when
// the event could not be handed to the connection.
func (p *Publisher) Send(ev model.PacketEvent) bool {
	if err := p.Publish(ev, p.now()); err != nil {
		if p.failed.Add(1) == 1 {
			slog.Warn("failed to publish event", "error", err)
		}
		return false
	}
	return true
}

// Failed returns how many events could not be published.
func (p *Publisher) Failed() uint64 {
	return p.failed.Load()
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			slog.Warn("failed to drain NATS connection", "error", err)
		}
		slog.Info("NATS connection drained and closed")
	}
}
