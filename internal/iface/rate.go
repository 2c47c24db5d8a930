package iface

import "time"

// CounterReader returns cumulative byte counters for an interface.
type CounterReader interface {
	Counters(name string) (rx, tx uint64, err error)
}

// RateMeter turns successive counter readings into bytes per second.
type RateMeter struct {
	rx, tx uint64
	at     time.Time
}

// NewRateMeter starts a meter from an initial reading.
func NewRateMeter(rx, tx uint64, now time.Time) *RateMeter {
	return &RateMeter{rx: rx, tx: tx, at: now}
}

// Sample records a new reading and returns the receive and transmit rates
// since the previous one. A counter that went backwards yields zero for
// that direction.
func (m *RateMeter) Sample(rx, tx uint64, now time.Time) (rxRate, txRate float64) {
	dt := now.Sub(m.at).Seconds()
	if dt > 0 {
		if rx >= m.rx {
			rxRate = float64(rx-m.rx) / dt
		}
		if tx >= m.tx {
			txRate = float64(tx-m.tx) / dt
		}
	}
	m.rx, m.tx, m.at = rx, tx, now
	return rxRate, txRate
}
