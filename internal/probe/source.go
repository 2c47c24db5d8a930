package probe

import (
	"errors"
	"fmt"
	"io"
	"time"

	"TrafficRain/internal/config"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// ErrUnsupportedEngine is returned when the configured capture engine is not
// available on this platform.
var ErrUnsupportedEngine = errors.New("unsupported capture engine")

// FrameSource yields raw link-layer frames. Close unblocks a pending read.
type FrameSource interface {
	gopacket.PacketDataSource
	Close()
}

// OpenLive opens a live capture on the named interface using the engine
// selected in cfg. timeout bounds a single blocking read.
func OpenLive(cfg config.CaptureConfig, iface string, timeout time.Duration) (FrameSource, error) {
	switch cfg.Engine {
	case "", "pcap":
		return openPcap(cfg, iface, timeout)
	case "afpacket":
		return openAFPacket(cfg, iface, timeout)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEngine, cfg.Engine)
	}
}

func openPcap(cfg config.CaptureConfig, iface string, timeout time.Duration) (FrameSource, error) {
	handle, err := pcap.OpenLive(iface, cfg.SnapshotLen, cfg.Promiscuous, timeout)
	if err != nil {
		return nil, fmt.Errorf("error opening device %s: %w", iface, err)
	}
	if lt := handle.LinkType(); lt != layers.LinkTypeEthernet {
		handle.Close()
		return nil, fmt.Errorf("device %s has link type %s, want Ethernet", iface, lt)
	}
	if cfg.BPFFilter != "" {
		if err := handle.SetBPFFilter(cfg.BPFFilter); err != nil {
			handle.Close()
			return nil, fmt.Errorf("failed to set BPF filter %q: %w", cfg.BPFFilter, err)
		}
	}
	return handle, nil
}

// readOutcome sorts a read error into retry, stop or failure.
type readOutcome int

const (
	readRetry readOutcome = iota
	readClosed
	readFailed
)

func classifyReadError(err error) readOutcome {
	switch {
	case errors.Is(err, pcap.NextErrorTimeoutExpired), isAFPacketTimeout(err):
		return readRetry
	case errors.Is(err, io.EOF), errors.Is(err, pcap.NextErrorNoMorePackets):
		return readClosed
	default:
		return readFailed
	}
}
