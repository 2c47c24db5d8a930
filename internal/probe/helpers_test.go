package probe

import (
	"net/netip"

	"TrafficRain/internal/config"
	"TrafficRain/internal/engine/flowcache"
)

func netipMust(s string) netip.Addr {
	return netip.MustParseAddr(s)
}

func flowKey(src string, srcPort uint16, dst string, dstPort uint16) flowcache.FlowKey {
	return flowcache.FlowKey{
		SrcAddr: netipMust(src), SrcPort: srcPort,
		DstAddr: netipMust(dst), DstPort: dstPort,
	}
}

func configCapture(engine string) config.CaptureConfig {
	c := config.Default().Capture
	c.Engine = engine
	return c
}
