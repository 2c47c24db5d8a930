package model

import "fmt"

// Direction tells whether a packet was addressed to the monitored host.
type Direction uint8

const (
	Inbound Direction = iota
	Outbound
	// Undirected is used for link-layer traffic without a clear local endpoint, e.g. ARP.
	Undirected
)

func (d Direction) String() string {
	switch d {
	case Inbound:
		return "in"
	case Outbound:
		return "out"
	case Undirected:
		return "none"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// PacketEvent is the classification of a single observed frame.
// It carries no identity beyond its value and is consumed exactly once
// by a front end's update step.
type PacketEvent struct {
	Protocol  Protocol
	Direction Direction
	// Fast marks handshake, teardown or low-latency control traffic.
	Fast bool
}

// Unclassified is the least-informative classification, returned for
// unknown ethertypes and for frames that fail to decode.
var Unclassified = PacketEvent{Protocol: Other, Direction: Undirected}

func (e PacketEvent) String() string {
	return fmt.Sprintf("%s/%s fast=%t", e.Protocol, e.Direction, e.Fast)
}

// Sink consumes classified events. Implementations must not block.
type Sink interface {
	Send(ev PacketEvent) bool
}
