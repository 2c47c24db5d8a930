package particles

import "TrafficRain/internal/model"

// RGBA is a linear color with components in [0, 1].
type RGBA [4]float32

type style struct {
	color  RGBA
	offset float32 // fraction of lane width
	speed  float32
}

var styles = [model.NumProtocols]style{
	model.Tcp:    {RGBA{0.95, 0.55, 0.62, 0.95}, -0.15, 1.0},
	model.Http:   {RGBA{0.98, 0.78, 0.55, 0.95}, -0.25, 1.1},
	model.Https:  {RGBA{0.88, 0.65, 0.95, 0.95}, 0.05, 0.95},
	model.Ssh:    {RGBA{0.72, 0.92, 0.76, 0.95}, 0.22, 1.05},
	model.Udp:    {RGBA{0.54, 0.71, 0.98, 0.95}, 0.0, 1.0},
	model.Dns:    {RGBA{0.62, 0.86, 0.98, 0.95}, -0.2, 1.2},
	model.Mdns:   {RGBA{0.45, 0.8, 0.95, 0.95}, -0.32, 1.15},
	model.Quic:   {RGBA{0.4, 0.75, 0.95, 0.95}, 0.24, 1.25},
	model.Dhcp:   {RGBA{0.95, 0.9, 0.6, 0.95}, 0.12, 1.1},
	model.Ntp:    {RGBA{0.8, 0.85, 0.95, 0.95}, -0.05, 1.1},
	model.Ssdp:   {RGBA{0.95, 0.75, 0.5, 0.95}, 0.3, 1.0},
	model.Stun:   {RGBA{0.6, 0.95, 0.85, 0.95}, -0.12, 1.2},
	model.Turn:   {RGBA{0.55, 0.95, 0.7, 0.95}, 0.18, 1.15},
	model.Icmp:   {RGBA{0.66, 0.9, 0.62, 0.95}, -0.18, 1.05},
	model.Icmpv6: {RGBA{0.55, 0.85, 0.58, 0.95}, 0.18, 1.05},
	model.Arp:    {RGBA{0.95, 0.7, 0.6, 0.95}, 0.0, 0.9},
	model.Other:  {RGBA{0.75, 0.75, 0.8, 0.9}, 0.12, 0.95},
}

func styleOf(p model.Protocol) style {
	if !p.Valid() {
		return styles[model.Other]
	}
	return styles[p]
}

// Color returns the particle color of p.
func Color(p model.Protocol) RGBA {
	return styleOf(p).color
}

// Background colors of the canvas.
var (
	IdleBackground   = RGBA{0.01, 0.01, 0.02, 1}
	ActiveBackground = RGBA{0.05, 0.05, 0.12, 1}
)
