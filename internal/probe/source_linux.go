//go:build linux

package probe

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"TrafficRain/internal/config"

	"github.com/google/gopacket/afpacket"
	"github.com/vishvananda/netlink"
)

const (
	ringFrameSize = 4096
	ringBlocks    = 32
)

type ringSource struct {
	*afpacket.TPacket
	link netlink.Link
}

func openAFPacket(cfg config.CaptureConfig, iface string, timeout time.Duration) (FrameSource, error) {
	tp, err := afpacket.NewTPacket(
		afpacket.OptInterface(iface),
		afpacket.OptFrameSize(ringFrameSize),
		afpacket.OptBlockSize(ringFrameSize*128),
		afpacket.OptNumBlocks(ringBlocks),
		afpacket.OptPollTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("error opening AF_PACKET ring on %s: %w", iface, err)
	}
	src := &ringSource{TPacket: tp}
	if cfg.Promiscuous {
		link, err := netlink.LinkByName(iface)
		if err == nil {
			err = netlink.SetPromiscOn(link)
		}
		if err != nil {
			slog.Warn("failed to enable promiscuous mode", "interface", iface, "error", err)
		} else {
			src.link = link
		}
	}
	return src, nil
}

func (s *ringSource) Close() {
	if s.link != nil {
		if err := netlink.SetPromiscOff(s.link); err != nil {
			slog.Warn("failed to disable promiscuous mode", "interface", s.link.Attrs().Name, "error", err)
		}
	}
	s.TPacket.Close()
}

func isAFPacketTimeout(err error) bool {
	return errors.Is(err, afpacket.ErrTimeout)
}
