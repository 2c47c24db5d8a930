package probe

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"TrafficRain/internal/engine/protocol"
	"TrafficRain/internal/model"
	"TrafficRain/internal/testutil"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readResult struct {
	data []byte
	ts   time.Time
	err  error
}

type fakeSource struct {
	results []readResult
	// tail is returned once results are exhausted.
	tail   error
	closed atomic.Bool
}

func (f *fakeSource) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	if len(f.results) == 0 {
		return nil, gopacket.CaptureInfo{}, f.tail
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r.data, gopacket.CaptureInfo{Timestamp: r.ts, CaptureLength: len(r.data), Length: len(r.data)}, r.err
}

func (f *fakeSource) Close() { f.closed.Store(true) }

type sliceSink struct {
	events []model.PacketEvent
	reject bool
}

func (s *sliceSink) Send(ev model.PacketEvent) bool {
	if s.reject {
		return false
	}
	s.events = append(s.events, ev)
	return true
}

func newSniffer(src FrameSource, sink model.Sink) *Sniffer {
	local := protocol.NewLocalAddrs(netipMust("10.0.0.1"))
	return NewSniffer(src, protocol.NewClassifier(local, nil), sink, nil)
}

func TestSnifferClassifiesUntilEOF(t *testing.T) {
	base := time.Unix(1700000000, 0)
	src := &fakeSource{
		results: []readResult{
			{data: testutil.TCP("10.0.0.1", 50000, "1.1.1.1", 443, testutil.TCPFlags{SYN: true}, 0), ts: base},
			{err: pcap.NextErrorTimeoutExpired},
			{data: testutil.UDP("8.8.8.8", 53, "10.0.0.1", 40000, 80), ts: base.Add(time.Millisecond)},
			{data: testutil.ARPRequest("10.0.0.2", "10.0.0.1"), ts: base.Add(2 * time.Millisecond)},
		},
		tail: io.EOF,
	}
	sink := &sliceSink{}

	require.NoError(t, newSniffer(src, sink).Run(context.Background()))
	assert.Equal(t, []model.PacketEvent{
		{Protocol: model.Https, Direction: model.Outbound, Fast: true},
		{Protocol: model.Dns, Direction: model.Inbound, Fast: true},
		{Protocol: model.Arp, Direction: model.Undirected},
	}, sink.events)
}

func TestSnifferStampsFramesWithoutTimestamp(t *testing.T) {
	src := &fakeSource{
		results: []readResult{{data: testutil.UDP("10.0.0.1", 40000, "9.9.9.9", 9999, 500)}},
		tail:    io.EOF,
	}
	sink := &sliceSink{}
	s := newSniffer(src, sink)
	fixed := time.Unix(1700000000, 0)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.Run(context.Background()))
	require.Len(t, sink.events, 1)

	seen, ok := s.cls.Flows().Lookup(flowKey("10.0.0.1", 40000, "9.9.9.9", 9999))
	require.True(t, ok)
	assert.Equal(t, fixed, seen)
}

func TestSnifferKeepsRunningWhenSinkIsFull(t *testing.T) {
	frame := testutil.TCP("10.0.0.1", 50000, "1.1.1.1", 80, testutil.TCPFlags{ACK: true, PSH: true}, 200)
	src := &fakeSource{
		results: []readResult{{data: frame}, {data: frame}, {data: frame}},
		tail:    io.EOF,
	}
	require.NoError(t, newSniffer(src, &sliceSink{reject: true}).Run(context.Background()))
	assert.Empty(t, src.results)
}

func TestSnifferGivesUpOnPersistentErrors(t *testing.T) {
	boom := errors.New("device gone")
	src := &fakeSource{tail: boom}

	err := newSniffer(src, &sliceSink{}).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestSnifferStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &fakeSource{tail: pcap.NextErrorTimeoutExpired}

	require.NoError(t, newSniffer(src, &sliceSink{}).Run(ctx))
	assert.Eventually(t, src.closed.Load, time.Second, 5*time.Millisecond)
}

func TestOpenLiveRejectsUnknownEngine(t *testing.T) {
	_, err := OpenLive(configCapture("netmap"), "eth0", time.Second)
	assert.ErrorIs(t, err, ErrUnsupportedEngine)
}
