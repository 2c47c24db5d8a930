//go:build !linux

package probe

import (
	"fmt"
	"time"

	"TrafficRain/internal/config"
)

func openAFPacket(_ config.CaptureConfig, _ string, _ time.Duration) (FrameSource, error) {
	return nil, fmt.Errorf("%w: afpacket requires linux", ErrUnsupportedEngine)
}

func isAFPacketTimeout(error) bool { return false }
