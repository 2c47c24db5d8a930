package protocol

import (
	"net/netip"
	"testing"
	"time"

	"TrafficRain/internal/engine/flowcache"
	"TrafficRain/internal/model"
	"TrafficRain/internal/testutil"

	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	localV4  = "192.168.1.10"
	remoteV4 = "93.184.216.34"
	localV6  = "fd00::10"
	remoteV6 = "2001:db8::1"
)

var t0 = time.Unix(1700000000, 0)

func newTestClassifier() *Classifier {
	return NewClassifier(NewLocalAddrs(
		netip.MustParseAddr(localV4),
		netip.MustParseAddr(localV6),
	), nil)
}

func TestClassifyTCPSynToHTTPSIsOutboundFast(t *testing.T) {
	c := newTestClassifier()
	frame := testutil.TCP(localV4, 51000, remoteV4, 443, testutil.TCPFlags{SYN: true}, 0)

	ev := c.Classify(frame, t0)
	assert.Equal(t, model.PacketEvent{Protocol: model.Https, Direction: model.Outbound, Fast: true}, ev)
}

func TestClassifyTCPFastFlags(t *testing.T) {
	c := newTestClassifier()
	cases := []struct {
		name  string
		flags testutil.TCPFlags
		size  int
		fast  bool
	}{
		{"syn", testutil.TCPFlags{SYN: true}, 0, true},
		{"syn with payload", testutil.TCPFlags{SYN: true}, 500, true},
		{"fin", testutil.TCPFlags{FIN: true, ACK: true}, 200, true},
		{"rst", testutil.TCPFlags{RST: true}, 100, true},
		{"bare ack", testutil.TCPFlags{ACK: true}, 0, true},
		{"ack small payload", testutil.TCPFlags{ACK: true, PSH: true}, 32, true},
		{"ack large payload", testutil.TCPFlags{ACK: true, PSH: true}, 33, false},
		{"ack bulk payload", testutil.TCPFlags{ACK: true}, 1200, false},
		{"no flags", testutil.TCPFlags{}, 10, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frame := testutil.TCP(remoteV4, 40000, localV4, 41000, tc.flags, tc.size)
			ev := c.Classify(frame, t0)
			assert.Equal(t, model.Tcp, ev.Protocol)
			assert.Equal(t, model.Inbound, ev.Direction)
			assert.Equal(t, tc.fast, ev.Fast)
		})
	}
}

func TestClassifySnapshotTruncatedUsesWireLength(t *testing.T) {
	c := newTestClassifier()
	ack := testutil.TCPFlags{ACK: true, PSH: true}

	// A 1000 byte segment captured with an 80 byte snapshot keeps 26 payload bytes.
	ev := c.Classify(testutil.TCP(remoteV4, 40000, localV4, 41000, ack, 1000)[:80], t0)
	assert.Equal(t, model.PacketEvent{Protocol: model.Tcp, Direction: model.Inbound}, ev)

	ev = c.Classify(testutil.TCP(remoteV6, 40000, localV6, 41000, ack, 1000)[:100], t0)
	assert.Equal(t, model.PacketEvent{Protocol: model.Tcp, Direction: model.Inbound}, ev)

	ev = c.Classify(testutil.UDP(localV4, 53000, "8.8.8.8", 53, 600)[:62], t0)
	assert.Equal(t, model.PacketEvent{Protocol: model.Dns, Direction: model.Outbound}, ev)

	// Truncation alone does not make a small segment slow.
	ev = c.Classify(testutil.TCP(remoteV4, 40000, localV4, 41000, ack, 30)[:60], t0)
	assert.True(t, ev.Fast)
}

func TestClassifyTCPPortOverlay(t *testing.T) {
	c := newTestClassifier()
	ack := testutil.TCPFlags{ACK: true}

	ev := c.Classify(testutil.TCP(remoteV4, 80, localV4, 50000, ack, 900), t0)
	assert.Equal(t, model.Http, ev.Protocol)

	ev = c.Classify(testutil.TCP(localV4, 50000, remoteV4, 22, ack, 900), t0)
	assert.Equal(t, model.Ssh, ev.Protocol)

	// Both ports known: destination wins.
	ev = c.Classify(testutil.TCP(remoteV4, 80, localV4, 22, ack, 900), t0)
	assert.Equal(t, model.Ssh, ev.Protocol)
	ev = c.Classify(testutil.TCP(remoteV4, 22, localV4, 443, ack, 900), t0)
	assert.Equal(t, model.Https, ev.Protocol)
}

func TestClassifyUDPFastPortRule(t *testing.T) {
	c := newTestClassifier()

	ev := c.Classify(testutil.UDP(localV4, 53000, "8.8.8.8", 53, 40), t0)
	assert.Equal(t, model.Dns, ev.Protocol)
	assert.True(t, ev.Fast)

	for _, port := range []uint16{53, 5353, 443, 3478, 5349, 1900} {
		c.Reset()
		ev := c.Classify(testutil.UDP(remoteV4, port, localV4, 60000, FastUDPMaxPayload), t0)
		assert.True(t, ev.Fast, "port %d", port)
		assert.Equal(t, model.Inbound, ev.Direction)
	}

	c.Reset()
	ev = c.Classify(testutil.UDP(localV4, 53000, "8.8.8.8", 53, FastUDPMaxPayload+1), t0)
	assert.Equal(t, model.Dns, ev.Protocol)
	assert.False(t, ev.Fast)

	// Known protocol but not in the fast allow-list.
	ev = c.Classify(testutil.UDP(localV4, 123, remoteV4, 123, 48), t0)
	assert.Equal(t, model.Ntp, ev.Protocol)
	assert.False(t, ev.Fast)
}

func TestClassifyUDPPortOverlay(t *testing.T) {
	c := newTestClassifier()
	cases := []struct {
		src, dst uint16
		want     model.Protocol
	}{
		{40000, 40001, model.Udp},
		{40000, 53, model.Dns},
		{5353, 5353, model.Mdns},
		{50000, 443, model.Quic},
		{68, 67, model.Dhcp},
		{67, 68, model.Dhcp},
		{40000, 123, model.Ntp},
		{40000, 1900, model.Ssdp},
		{40000, 3478, model.Stun},
		{40000, 5349, model.Turn},
		{53, 123, model.Ntp},
		{123, 53, model.Dns},
	}
	for _, tc := range cases {
		ev := c.Classify(testutil.UDP(localV4, tc.src, remoteV4, tc.dst, 600), t0)
		assert.Equal(t, tc.want, ev.Protocol, "%d -> %d", tc.src, tc.dst)
	}
}

func TestClassifyUDPReversePair(t *testing.T) {
	c := newTestClassifier()

	req := testutil.UDP(localV4, 40000, remoteV4, 50000, 600)
	resp := testutil.UDP(remoteV4, 50000, localV4, 40000, 600)

	ev := c.Classify(req, t0)
	assert.Equal(t, model.Udp, ev.Protocol)
	assert.False(t, ev.Fast)

	ev = c.Classify(resp, t0.Add(100*time.Millisecond))
	assert.True(t, ev.Fast, "response within window")

	c.Reset()
	c.Classify(req, t0)
	ev = c.Classify(resp, t0.Add(FastUDPWindow))
	assert.True(t, ev.Fast, "response exactly at window edge")

	c.Reset()
	c.Classify(req, t0)
	ev = c.Classify(resp, t0.Add(200*time.Millisecond))
	assert.False(t, ev.Fast, "response outside window")

	// Same direction twice is not a pair.
	c.Reset()
	c.Classify(req, t0)
	ev = c.Classify(req, t0.Add(10*time.Millisecond))
	assert.False(t, ev.Fast)
}

func TestClassifyUDPInsertsForwardKey(t *testing.T) {
	flows := flowcache.New()
	c := NewClassifier(NewLocalAddrs(netip.MustParseAddr(localV4)), flows)

	c.Classify(testutil.UDP(localV4, 40000, remoteV4, 53, 20), t0)
	ts, ok := flows.Lookup(flowcache.FlowKey{
		SrcAddr: netip.MustParseAddr(localV4),
		SrcPort: 40000,
		DstAddr: netip.MustParseAddr(remoteV4),
		DstPort: 53,
	})
	require.True(t, ok)
	assert.Equal(t, t0, ts)
	assert.Same(t, flows, c.Flows())
}

func TestClassifyUDPSweepsFlowCache(t *testing.T) {
	c := newTestClassifier()
	for i := 0; i <= flowcache.SoftLimit; i++ {
		c.Classify(testutil.UDP(localV4, uint16(1024+i), remoteV4, 40000, 600), t0)
	}
	require.Equal(t, flowcache.SoftLimit+1, c.Flows().Len())

	c.Classify(testutil.UDP(localV4, 9, remoteV4, 40000, 600), t0.Add(3*time.Second))
	assert.Equal(t, 1, c.Flows().Len())
}

func TestClassifyControlTraffic(t *testing.T) {
	c := newTestClassifier()

	ev := c.Classify(testutil.ARPRequest(localV4, "192.168.1.1"), t0)
	assert.Equal(t, model.PacketEvent{Protocol: model.Arp, Direction: model.Undirected}, ev)

	ev = c.Classify(testutil.ICMPv4Echo(remoteV4, localV4), t0)
	assert.Equal(t, model.PacketEvent{Protocol: model.Icmp, Direction: model.Inbound}, ev)

	ev = c.Classify(testutil.ICMPv6Echo(localV6, remoteV6), t0)
	assert.Equal(t, model.PacketEvent{Protocol: model.Icmpv6, Direction: model.Outbound}, ev)
}

func TestClassifyIPv6Transport(t *testing.T) {
	c := newTestClassifier()

	ev := c.Classify(testutil.TCP(remoteV6, 443, localV6, 50000, testutil.TCPFlags{FIN: true, ACK: true}, 0), t0)
	assert.Equal(t, model.PacketEvent{Protocol: model.Https, Direction: model.Inbound, Fast: true}, ev)

	ev = c.Classify(testutil.UDP(localV6, 50000, remoteV6, 443, 1200), t0)
	assert.Equal(t, model.PacketEvent{Protocol: model.Quic, Direction: model.Outbound}, ev)
}

func TestClassifyVLANTagged(t *testing.T) {
	c := newTestClassifier()
	ev := c.Classify(testutil.VLANTCP(localV4, 50000, remoteV4, 80, testutil.TCPFlags{SYN: true}), t0)
	assert.Equal(t, model.PacketEvent{Protocol: model.Http, Direction: model.Outbound, Fast: true}, ev)
}

func TestClassifyFailsOpen(t *testing.T) {
	c := newTestClassifier()
	valid := testutil.TCP(localV4, 50000, remoteV4, 443, testutil.TCPFlags{SYN: true}, 0)

	cases := map[string][]byte{
		"empty":             nil,
		"short ethernet":    valid[:10],
		"truncated ip":      valid[:14+8],
		"truncated tcp":     valid[:14+20+6],
		"unknown ethertype": testutil.Raw(layers.EthernetType(0x88b5), []byte("hello")),
		"garbage ipv4":      testutil.Raw(layers.EthernetTypeIPv4, []byte{0xff, 0xff, 0xff}),
	}
	for name, frame := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, model.Unclassified, c.Classify(frame, t0))
		})
	}
}

func TestClassifyIsDeterministicAfterReset(t *testing.T) {
	frames := [][]byte{
		testutil.UDP(localV4, 40000, remoteV4, 50000, 600),
		testutil.UDP(remoteV4, 50000, localV4, 40000, 600),
		testutil.TCP(localV4, 50000, remoteV4, 443, testutil.TCPFlags{SYN: true}, 0),
		testutil.UDP(localV4, 40001, remoteV4, 53, 30),
		testutil.ARPRequest(localV4, "192.168.1.1"),
	}
	c := newTestClassifier()
	run := func() []model.PacketEvent {
		c.Reset()
		out := make([]model.PacketEvent, 0, len(frames))
		for i, f := range frames {
			out = append(out, c.Classify(f, t0.Add(time.Duration(i)*20*time.Millisecond)))
		}
		return out
	}
	first := run()
	assert.Equal(t, first, run())
	assert.True(t, first[1].Fast)
}
