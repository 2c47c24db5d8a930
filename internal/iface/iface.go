// Package iface chooses the network interface to monitor and samples its
// byte counters.
package iface

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"TrafficRain/internal/engine/protocol"
)

var (
	// ErrNotFound is returned when the requested interface does not exist.
	ErrNotFound = errors.New("interface not found")
	// ErrNoInterface is returned when no interface qualifies for monitoring.
	ErrNoInterface = errors.New("no usable interface")
)

// Strategy picks among eligible interfaces when no override is given.
type Strategy int

const (
	// StrategyScore prefers wired, then wireless, then other names, and
	// ranks bridges and container links last.
	StrategyScore Strategy = iota
	// StrategyTraffic prefers the interface with the most bytes moved.
	StrategyTraffic
)

// ParseStrategy maps a config value to a Strategy. Empty returns def.
func ParseStrategy(s string, def Strategy) (Strategy, error) {
	switch s {
	case "":
		return def, nil
	case "score":
		return StrategyScore, nil
	case "traffic":
		return StrategyTraffic, nil
	default:
		return def, fmt.Errorf("unknown selector %q", s)
	}
}

func (s Strategy) String() string {
	if s == StrategyTraffic {
		return "traffic"
	}
	return "score"
}

// Candidate describes one interface as seen at startup.
type Candidate struct {
	Name     string
	Up       bool
	Loopback bool
	Addrs    []netip.Addr
	RxBytes  uint64
	TxBytes  uint64
}

// LocalAddrs returns the classifier's view of the addresses owned by c.
func (c Candidate) LocalAddrs() protocol.LocalAddrs {
	return protocol.NewLocalAddrs(c.Addrs...)
}

// Lister enumerates the host's interfaces.
type Lister interface {
	Interfaces() ([]Candidate, error)
}

// Select returns the interface to monitor. A non-empty override must match
// an interface name exactly and bypasses all filtering.
func Select(l Lister, override string, strategy Strategy) (Candidate, error) {
	all, err := l.Interfaces()
	if err != nil {
		return Candidate{}, fmt.Errorf("failed to list interfaces: %w", err)
	}

	if override != "" {
		for _, c := range all {
			if c.Name == override {
				return c, nil
			}
		}
		return Candidate{}, fmt.Errorf("%w: %s", ErrNotFound, override)
	}

	var (
		best  Candidate
		found bool
	)
	for _, c := range all {
		if c.Loopback || !c.Up || len(c.Addrs) == 0 {
			continue
		}
		if !found || better(c, best, strategy) {
			best, found = c, true
		}
	}
	if !found {
		return Candidate{}, ErrNoInterface
	}
	return best, nil
}

// better reports whether c strictly beats cur, so ties keep the first listed.
func better(c, cur Candidate, strategy Strategy) bool {
	if strategy == StrategyTraffic {
		return c.RxBytes+c.TxBytes > cur.RxBytes+cur.TxBytes
	}
	return Score(c.Name) > Score(cur.Name)
}

// Score ranks an interface name for StrategyScore.
func Score(name string) int {
	switch {
	case strings.HasPrefix(name, "en"), strings.HasPrefix(name, "eth"):
		return 4
	case strings.HasPrefix(name, "w"):
		return 3
	case strings.HasPrefix(name, "br"), strings.HasPrefix(name, "docker"), strings.HasPrefix(name, "veth"):
		return 0
	default:
		return 2
	}
}
