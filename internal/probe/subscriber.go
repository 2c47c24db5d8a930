package probe

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"TrafficRain/internal/config"
	"TrafficRain/internal/model"

	"github.com/nats-io/nats.go"
)

// Subscriber consumes events published by a Publisher and pushes them into
// a local Sink.
type Subscriber struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
	invalid atomic.Uint64
}

// NewSubscriber connects to the NATS server named in cfg.
func NewSubscriber(cfg config.NATSConfig) (*Subscriber, error) {
	nc, err := nats.Connect(cfg.URL, nats.Name("trafficrain-subscriber"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}
	slog.Info("connected to NATS", "url", cfg.URL)
	return &Subscriber{nc: nc, subject: cfg.Subject}, nil
}

// Start subscribes to the configured subject and forwards each decoded
// event to sink. Undecodable messages are counted and skipped.
func (s *Subscriber) Start(sink model.Sink) error {
	sub, err := s.nc.Subscribe(s.subject, s.handler(sink))
	if err != nil {
		return fmt.Errorf("failed to subscribe to %q: %w", s.subject, err)
	}
	s.sub = sub
	slog.Info("subscribed to events", "subject", s.subject)
	return nil
}

func (s *Subscriber) handler(sink model.Sink) nats.MsgHandler {
	return func(msg *nats.Msg) {
		ev, _, err := DecodeEvent(msg.Data)
		if err != nil {
			if s.invalid.Add(1) == 1 {
				slog.Warn("dropping undecodable event", "subject", msg.Subject, "error", err)
			}
			return
		}
		sink.Send(ev)
	}
}

// Invalid returns how many messages failed to decode.
func (s *Subscriber) Invalid() uint64 {
	return s.invalid.Load()
}

// Close unsubscribes and closes the NATS connection.
func (s *Subscriber) Close() {
	if s.sub != nil {
		if err := s.sub.Unsubscribe(); err != nil {
			slog.Warn("failed to unsubscribe", "subject", s.subject, "error", err)
		}
	}
	if s.nc != nil {
		s.nc.Close()
		slog.Info("NATS connection closed")
	}
}
