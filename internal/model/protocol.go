package model

import "fmt"

// Protocol is the closed set of traffic categories the classifier emits.
type Protocol uint8

const (
	Tcp Protocol = iota
	Http
	Https
	Ssh
	Udp
	Dns
	Mdns
	Quic
	Dhcp
	Ntp
	Ssdp
	Stun
	Turn
	Icmp
	Icmpv6
	Arp
	Other

	numProtocols = int(Other) + 1
)

// NumProtocols is the number of Protocol tags.
const NumProtocols = numProtocols

// LaneGroup is the coarse category used to route an event to a rendering lane.
type LaneGroup uint8

const (
	LaneTCP LaneGroup = iota
	LaneUDP
	LaneControl

	NumLanes = 3
)

func (g LaneGroup) String() string {
	switch g {
	case LaneTCP:
		return "tcp"
	case LaneUDP:
		return "udp"
	case LaneControl:
		return "control"
	default:
		return fmt.Sprintf("lane(%d)", uint8(g))
	}
}

type protocolInfo struct {
	name string
	lane LaneGroup
}

var protocolTable = [numProtocols]protocolInfo{
	Tcp:    {"TCP", LaneTCP},
	Http:   {"HTTP", LaneTCP},
	Https:  {"HTTPS", LaneTCP},
	Ssh:    {"SSH", LaneTCP},
	Udp:    {"UDP", LaneUDP},
	Dns:    {"DNS", LaneUDP},
	Mdns:   {"mDNS", LaneUDP},
	Quic:   {"QUIC", LaneUDP},
	Dhcp:   {"DHCP", LaneUDP},
	Ntp:    {"NTP", LaneUDP},
	Ssdp:   {"SSDP", LaneUDP},
	Stun:   {"STUN", LaneUDP},
	Turn:   {"TURN", LaneUDP},
	Icmp:   {"ICMP", LaneControl},
	Icmpv6: {"ICMPv6", LaneControl},
	Arp:    {"ARP", LaneControl},
	Other:  {"Other", LaneControl},
}

// Valid reports whether p is one of the defined tags.
func (p Protocol) Valid() bool {
	return int(p) < numProtocols
}

func (p Protocol) String() string {
	if !p.Valid() {
		return fmt.Sprintf("protocol(%d)", uint8(p))
	}
	return protocolTable[p].name
}

// Lane returns the lane group the protocol renders in. Unknown values fall
// into the control lane.
func (p Protocol) Lane() LaneGroup {
	if !p.Valid() {
		return LaneControl
	}
	return protocolTable[p].lane
}

// Protocols lists every tag in enumeration order.
func Protocols() []Protocol {
	out := make([]Protocol, numProtocols)
	for i := range out {
		out[i] = Protocol(i)
	}
	return out
}
