package iface

import (
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLister []Candidate

func (s staticLister) Interfaces() ([]Candidate, error) { return s, nil }

type failingLister struct{}

func (failingLister) Interfaces() ([]Candidate, error) { return nil, errors.New("netlink unavailable") }

var addr = []netip.Addr{netip.MustParseAddr("192.168.1.10")}

func hosts() staticLister {
	return staticLister{
		{Name: "lo", Up: true, Loopback: true, Addrs: []netip.Addr{netip.MustParseAddr("127.0.0.1")}, RxBytes: 1 << 40},
		{Name: "docker0", Up: true, Addrs: addr, RxBytes: 1 << 30},
		{Name: "wlp2s0", Up: true, Addrs: addr, RxBytes: 500, TxBytes: 500},
		{Name: "enp3s0", Up: false, Addrs: addr, RxBytes: 1 << 35},
		{Name: "tun0", Up: true, Addrs: addr, RxBytes: 10},
		{Name: "eth1", Up: true, RxBytes: 1 << 36},
	}
}

func TestSelectOverride(t *testing.T) {
	c, err := Select(hosts(), "enp3s0", StrategyScore)
	require.NoError(t, err)
	assert.Equal(t, "enp3s0", c.Name)

	_, err = Select(hosts(), "eth9", StrategyScore)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSelectByScore(t *testing.T) {
	c, err := Select(hosts(), "", StrategyScore)
	require.NoError(t, err)
	assert.Equal(t, "wlp2s0", c.Name)
}

func TestSelectByTraffic(t *testing.T) {
	c, err := Select(hosts(), "", StrategyTraffic)
	require.NoError(t, err)
	assert.Equal(t, "docker0", c.Name)
}

func TestSelectTiesKeepFirstListed(t *testing.T) {
	l := staticLister{
		{Name: "eth0", Up: true, Addrs: addr},
		{Name: "eno1", Up: true, Addrs: addr},
	}
	for _, s := range []Strategy{StrategyScore, StrategyTraffic} {
		c, err := Select(l, "", s)
		require.NoError(t, err)
		assert.Equal(t, "eth0", c.Name, s.String())
	}
}

func TestSelectNoEligibleInterface(t *testing.T) {
	l := staticLister{{Name: "lo", Up: true, Loopback: true, Addrs: addr}}
	_, err := Select(l, "", StrategyScore)
	assert.ErrorIs(t, err, ErrNoInterface)

	_, err = Select(failingLister{}, "", StrategyScore)
	assert.Error(t, err)
}

func TestScore(t *testing.T) {
	for name, want := range map[string]int{
		"eth0": 4, "enp0s31f6": 4, "wlan0": 3, "wlp2s0": 3,
		"br-1a2b": 0, "docker0": 0, "veth12": 0, "tun0": 2, "ppp0": 2,
	} {
		assert.Equal(t, want, Score(name), name)
	}
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("", StrategyTraffic)
	require.NoError(t, err)
	assert.Equal(t, StrategyTraffic, s)

	s, err = ParseStrategy("score", StrategyTraffic)
	require.NoError(t, err)
	assert.Equal(t, StrategyScore, s)

	_, err = ParseStrategy("fastest", StrategyScore)
	assert.Error(t, err)
}

func TestCandidateLocalAddrs(t *testing.T) {
	c := Candidate{Addrs: []netip.Addr{netip.MustParseAddr("10.0.0.1"), netip.MustParseAddr("fe80::1")}}
	local := c.LocalAddrs()
	assert.True(t, local.Contains(netip.MustParseAddr("10.0.0.1")))
	assert.True(t, local.Contains(netip.MustParseAddr("fe80::1")))
	assert.False(t, local.Contains(netip.MustParseAddr("10.0.0.2")))
}

func TestRateMeter(t *testing.T) {
	start := time.Unix(1700000000, 0)
	m := NewRateMeter(1000, 2000, start)

	rx, tx := m.Sample(3048, 2512, start.Add(2*time.Second))
	assert.InDelta(t, 1024.0, rx, 1e-9)
	assert.InDelta(t, 256.0, tx, 1e-9)

	rx, tx = m.Sample(100, 3512, start.Add(3*time.Second))
	assert.Zero(t, rx)
	assert.InDelta(t, 1000.0, tx, 1e-9)

	rx, tx = m.Sample(200, 3600, start.Add(3*time.Second))
	assert.Zero(t, rx)
	assert.Zero(t, tx)
}
