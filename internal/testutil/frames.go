// Package testutil builds synthetic Ethernet frames for tests and fixtures.
package testutil

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

var (
	SrcMAC = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	DstMAC = net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xaa}
)

// TCPFlags selects the flags set on a TCP segment.
type TCPFlags struct {
	SYN, ACK, FIN, RST, PSH bool
}

// Serialize encodes ls into a frame, computing lengths and checksums.
func Serialize(ls ...gopacket.SerializableLayer) []byte {
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, ls...); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func ethernet(t layers.EthernetType) *layers.Ethernet {
	return &layers.Ethernet{SrcMAC: SrcMAC, DstMAC: DstMAC, EthernetType: t}
}

func ipLayer(src, dst string, proto layers.IPProtocol) (gopacket.SerializableLayer, gopacket.NetworkLayer, layers.EthernetType) {
	s, d := net.ParseIP(src), net.ParseIP(dst)
	if s.To4() != nil {
		ip := &layers.IPv4{Version: 4, TTL: 64, SrcIP: s.To4(), DstIP: d.To4(), Protocol: proto}
		return ip, ip, layers.EthernetTypeIPv4
	}
	ip := &layers.IPv6{Version: 6, HopLimit: 64, SrcIP: s, DstIP: d, NextHeader: proto}
	return ip, ip, layers.EthernetTypeIPv6
}

// TCP builds an Ethernet/IP/TCP frame. IPv6 is used when the addresses are IPv6.
func TCP(src string, srcPort uint16, dst string, dstPort uint16, flags TCPFlags, payloadLen int) []byte {
	ip, nl, et := ipLayer(src, dst, layers.IPProtocolTCP)
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(srcPort),
		DstPort: layers.TCPPort(dstPort),
		Seq:     1000,
		Window:  14600,
		SYN:     flags.SYN,
		ACK:     flags.ACK,
		FIN:     flags.FIN,
		RST:     flags.RST,
		PSH:     flags.PSH,
	}
	if flags.ACK {
		tcp.Ack = 2000
	}
	tcp.SetNetworkLayerForChecksum(nl)
	return Serialize(ethernet(et), ip, tcp, gopacket.Payload(make([]byte, payloadLen)))
}

// UDP builds an Ethernet/IP/UDP frame.
func UDP(src string, srcPort uint16, dst string, dstPort uint16, payloadLen int) []byte {
	ip, nl, et := ipLayer(src, dst, layers.IPProtocolUDP)
	udp := &layers.UDP{SrcPort: layers.UDPPort(srcPort), DstPort: layers.UDPPort(dstPort)}
	udp.SetNetworkLayerForChecksum(nl)
	return Serialize(ethernet(et), ip, udp, gopacket.Payload(make([]byte, payloadLen)))
}

// ICMPv4Echo builds an IPv4 echo request.
func ICMPv4Echo(src, dst string) []byte {
	ip, _, et := ipLayer(src, dst, layers.IPProtocolICMPv4)
	icmp := &layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0), Id: 1, Seq: 1}
	return Serialize(ethernet(et), ip, icmp, gopacket.Payload(make([]byte, 32)))
}

// ICMPv6Echo builds an IPv6 echo request.
func ICMPv6Echo(src, dst string) []byte {
	ip, nl, et := ipLayer(src, dst, layers.IPProtocolICMPv6)
	icmp := &layers.ICMPv6{TypeCode: layers.CreateICMPv6TypeCode(layers.ICMPv6TypeEchoRequest, 0)}
	icmp.SetNetworkLayerForChecksum(nl)
	return Serialize(ethernet(et), ip, icmp, gopacket.Payload(make([]byte, 32)))
}

// ARPRequest builds a who-has request.
func ARPRequest(src, dst string) []byte {
	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   SrcMAC,
		SourceProtAddress: net.ParseIP(src).To4(),
		DstHwAddress:      net.HardwareAddr{0, 0, 0, 0, 0, 0},
		DstProtAddress:    net.ParseIP(dst).To4(),
	}
	return Serialize(ethernet(layers.EthernetTypeARP), arp)
}

// VLANTCP builds an 802.1Q tagged Ethernet/IPv4/TCP frame.
func VLANTCP(src string, srcPort uint16, dst string, dstPort uint16, flags TCPFlags) []byte {
	ip, nl, et := ipLayer(src, dst, layers.IPProtocolTCP)
	tag := &layers.Dot1Q{VLANIdentifier: 10, Type: et}
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(srcPort),
		DstPort: layers.TCPPort(dstPort),
		SYN:     flags.SYN,
		ACK:     flags.ACK,
		FIN:     flags.FIN,
		RST:     flags.RST,
		Window:  14600,
	}
	tcp.SetNetworkLayerForChecksum(nl)
	return Serialize(ethernet(layers.EthernetTypeDot1Q), tag, ip, tcp)
}

// Raw builds a frame with an arbitrary ethertype and payload.
func Raw(t layers.EthernetType, payload []byte) []byte {
	return Serialize(ethernet(t), gopacket.Payload(payload))
}
