package protocol

import (
	"net/netip"
	"time"

	"TrafficRain/internal/engine/flowcache"
	"TrafficRain/internal/model"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// FastUDPWindow is how recently the reverse flow must have been seen for
	// a UDP packet to count as the second half of a request/response pair.
	FastUDPWindow = 150 * time.Millisecond
	// FastUDPMaxPayload is the largest UDP payload eligible for the fast-port rule.
	FastUDPMaxPayload = 192
	// FastTCPMaxPayload is the largest TCP payload for which a bare ACK is fast.
	FastTCPMaxPayload = 32
)

var tcpPorts = map[uint16]model.Protocol{
	80:  model.Http,
	443: model.Https,
	22:  model.Ssh,
}

var udpPorts = map[uint16]model.Protocol{
	53:   model.Dns,
	5353: model.Mdns,
	443:  model.Quic,
	67:   model.Dhcp,
	68:   model.Dhcp,
	123:  model.Ntp,
	1900: model.Ssdp,
	3478: model.Stun,
	5349: model.Turn,
}

var udpFastPorts = map[uint16]struct{}{
	53:   {},
	5353: {},
	443:  {},
	3478: {},
	5349: {},
	1900: {},
}

// LocalAddrs is the set of addresses assigned to the monitored interface.
type LocalAddrs map[netip.Addr]struct{}

// NewLocalAddrs builds a LocalAddrs set. IPv4-mapped IPv6 addresses are unmapped.
func NewLocalAddrs(addrs ...netip.Addr) LocalAddrs {
	set := make(LocalAddrs, len(addrs))
	for _, a := range addrs {
		if a.IsValid() {
			set[a.Unmap()] = struct{}{}
		}
	}
	return set
}

// Contains reports whether addr is local.
func (l LocalAddrs) Contains(addr netip.Addr) bool {
	_, ok := l[addr]
	return ok
}

// Classifier turns raw Ethernet frames into PacketEvents.
//
// The local address set is a snapshot taken at construction; traffic is
// misclassified if the interface is renumbered while running. A Classifier
// owns its flow cache and must only be used from one goroutine.
type Classifier struct {
	local LocalAddrs
	flows *flowcache.Cache
	dec   *frameDecoder
}

// NewClassifier creates a classifier for an interface with the given local
// addresses. If flows is nil a fresh cache is created.
func NewClassifier(local LocalAddrs, flows *flowcache.Cache) *Classifier {
	if flows == nil {
		flows = flowcache.New()
	}
	return &Classifier{
		local: local,
		flows: flows,
		dec:   newFrameDecoder(),
	}
}

// Flows exposes the classifier's flow cache.
func (c *Classifier) Flows() *flowcache.Cache {
	return c.flows
}

// Reset clears the flow cache. Identical frame sequences classified after a
// Reset yield identical event sequences.
func (c *Classifier) Reset() {
	c.flows.Reset()
}

// Classify decodes frame, observed at ts, and returns its classification.
// It never fails: frames that cannot be decoded yield model.Unclassified.
func (c *Classifier) Classify(frame []byte, ts time.Time) model.PacketEvent {
	h, err := c.dec.decode(frame)
	if err != nil {
		return model.Unclassified
	}

	switch h.etherType {
	case layers.EthernetTypeARP:
		return model.PacketEvent{Protocol: model.Arp, Direction: model.Undirected}
	case layers.EthernetTypeIPv4:
		if h.network != layers.LayerTypeIPv4 {
			return model.Unclassified
		}
	case layers.EthernetTypeIPv6:
		if h.network != layers.LayerTypeIPv6 {
			return model.Unclassified
		}
	default:
		return model.Unclassified
	}

	ev := model.PacketEvent{
		Protocol:  baseProtocol(h.network, h.ipProto),
		Direction: model.Outbound,
	}
	if c.local.Contains(h.dst) {
		ev.Direction = model.Inbound
	}

	switch {
	case ev.Protocol == model.Tcp && h.transport == layers.LayerTypeTCP:
		c.overlayTCP(&ev, h)
	case ev.Protocol == model.Udp && h.transport == layers.LayerTypeUDP:
		c.overlayUDP(&ev, h, ts)
	}
	return ev
}

func baseProtocol(network gopacket.LayerType, proto layers.IPProtocol) model.Protocol {
	switch proto {
	case layers.IPProtocolTCP:
		return model.Tcp
	case layers.IPProtocolUDP:
		return model.Udp
	case layers.IPProtocolICMPv4:
		if network == layers.LayerTypeIPv4 {
			return model.Icmp
		}
	case layers.IPProtocolICMPv6:
		if network == layers.LayerTypeIPv6 {
			return model.Icmpv6
		}
	}
	return model.Other
}

func (c *Classifier) overlayTCP(ev *model.PacketEvent, h headers) {
	tcp := &c.dec.tcp
	if tcp.SYN || tcp.FIN || tcp.RST || (tcp.ACK && c.dec.tcpPayloadLen(h) <= FastTCPMaxPayload) {
		ev.Fast = true
	}
	if p, ok := tcpPorts[uint16(tcp.SrcPort)]; ok {
		ev.Protocol = p
	}
	// Destination port is applied last and wins.
	if p, ok := tcpPorts[uint16(tcp.DstPort)]; ok {
		ev.Protocol = p
	}
}

func (c *Classifier) overlayUDP(ev *model.PacketEvent, h headers, ts time.Time) {
	udp := &c.dec.udp
	srcPort, dstPort := uint16(udp.SrcPort), uint16(udp.DstPort)
	key := flowcache.FlowKey{SrcAddr: h.src, SrcPort: srcPort, DstAddr: h.dst, DstPort: dstPort}

	if prev, ok := c.flows.Lookup(key.Reverse()); ok {
		if ts.Sub(prev) <= FastUDPWindow {
			ev.Fast = true
		}
	}
	_, srcFast := udpFastPorts[srcPort]
	_, dstFast := udpFastPorts[dstPort]
	if c.dec.udpPayloadLen(h) <= FastUDPMaxPayload && (srcFast || dstFast) {
		ev.Fast = true
	}

	if p, ok := udpPorts[srcPort]; ok {
		ev.Protocol = p
	}
	if p, ok := udpPorts[dstPort]; ok {
		ev.Protocol = p
	}

	c.flows.Insert(key, ts)
	c.flows.MaybeEvict(ts)
}
