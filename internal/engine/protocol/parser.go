package protocol

import (
	"net"
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// frameDecoder decodes the link, network and transport headers of a frame
// into preallocated layers. It is reused for every frame and is not safe for
// concurrent use.
type frameDecoder struct {
	eth   layers.Ethernet
	dot1q layers.Dot1Q
	ip4   layers.IPv4
	ip6   layers.IPv6
	tcp   layers.TCP
	udp   layers.UDP

	parser  *gopacket.DecodingLayerParser
	decoded []gopacket.LayerType
}

// headers is the subset of a decoded frame the classifier looks at.
type headers struct {
	etherType layers.EthernetType
	network   gopacket.LayerType
	src, dst  netip.Addr
	ipProto   layers.IPProtocol
	transport gopacket.LayerType
	// truncated is set when the capture holds fewer bytes than the IP
	// header announces; segLen is the announced transport length.
	truncated bool
	segLen    int
}

func newFrameDecoder() *frameDecoder {
	d := &frameDecoder{decoded: make([]gopacket.LayerType, 0, 8)}
	d.parser = gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet,
		&d.eth, &d.dot1q, &d.ip4, &d.ip6, &d.tcp, &d.udp)
	// Layers above the transport header (DNS, TLS, payload...) are not needed.
	d.parser.IgnoreUnsupported = true
	return d
}

// decode parses data and returns the headers found. Any error from a layer
// the classifier relies on is returned as is.
func (d *frameDecoder) decode(data []byte) (headers, error) {
	var h headers
	if err := d.parser.DecodeLayers(data, &d.decoded); err != nil {
		return h, err
	}

	for _, lt := range d.decoded {
		switch lt {
		case layers.LayerTypeEthernet:
			h.etherType = d.eth.EthernetType
		case layers.LayerTypeDot1Q:
			h.etherType = d.dot1q.Type
		case layers.LayerTypeIPv4:
			h.network = lt
			h.src = toAddr(d.ip4.SrcIP)
			h.dst = toAddr(d.ip4.DstIP)
			h.ipProto = d.ip4.Protocol
			h.segLen = int(d.ip4.Length) - int(d.ip4.IHL)*4
		case layers.LayerTypeIPv6:
			h.network = lt
			h.src = toAddr(d.ip6.SrcIP)
			h.dst = toAddr(d.ip6.DstIP)
			h.ipProto = d.ip6.NextHeader
			h.segLen = int(d.ip6.Length)
			if d.ip6.HopByHop != nil {
				h.ipProto = d.ip6.HopByHop.NextHeader
				h.segLen -= d.ip6.HopByHop.ActualLength
			}
		case layers.LayerTypeTCP, layers.LayerTypeUDP:
			h.transport = lt
		}
	}
	h.truncated = d.parser.Truncated
	return h, nil
}

// tcpPayloadLen is the TCP payload size on the wire, which exceeds the
// captured payload when the snapshot length cut the frame.
func (d *frameDecoder) tcpPayloadLen(h headers) int {
	n := len(d.tcp.Payload)
	if h.truncated {
		n = max(n, h.segLen-int(d.tcp.DataOffset)*4)
	}
	return n
}

// udpPayloadLen is the UDP payload size on the wire.
func (d *frameDecoder) udpPayloadLen(h headers) int {
	n := len(d.udp.Payload)
	if h.truncated {
		n = max(n, int(d.udp.Length)-8)
	}
	return n
}

func toAddr(ip net.IP) netip.Addr {
	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return netip.Addr{}
	}
	return addr.Unmap()
}
