package events

import (
	"sync/atomic"

	"TrafficRain/internal/model"
)

// DefaultCapacity is the queue depth between the capture goroutine and the
// presentation loop.
const DefaultCapacity = 10000

// Channel is a bounded FIFO of classified events with a non-blocking send.
// When full, new events are dropped and counted rather than blocking the
// producer. It is meant for exactly one producer and one consumer.
type Channel struct {
	ch      chan model.PacketEvent
	dropped atomic.Uint64
}

// NewChannel creates a channel holding up to capacity events. A non-positive
// capacity selects DefaultCapacity.
func NewChannel(capacity int) *Channel {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Channel{ch: make(chan model.PacketEvent, capacity)}
}

// Send enqueues ev without blocking. It reports false if the event was dropped.
func (c *Channel) Send(ev model.PacketEvent) bool {
	select {
	case c.ch <- ev:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}

// Drain passes every currently queued event to fn and returns how many were
// consumed. It never waits for new events.
func (c *Channel) Drain(fn func(model.PacketEvent)) int {
	n := 0
	for {
		select {
		case ev := <-c.ch:
			fn(ev)
			n++
		default:
			return n
		}
	}
}

// Len returns the number of queued events.
func (c *Channel) Len() int {
	return len(c.ch)
}

// Cap returns the channel capacity.
func (c *Channel) Cap() int {
	return cap(c.ch)
}

// Dropped returns how many events have been discarded because the channel was full.
func (c *Channel) Dropped() uint64 {
	return c.dropped.Load()
}
