package lanes

import (
	"fmt"
	"strings"

	"TrafficRain/internal/model"
)

const (
	brailleBase = 0x2800

	placeholderColor = "#313244"
	placeholderGlyph = '·'
)

// dotBits maps (row within group, side) to the Braille dot bit.
var dotBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

var barColors = [model.NumProtocols]string{
	model.Tcp:    "#f38ba8",
	model.Http:   "#f8c176",
	model.Https:  "#d8b4fe",
	model.Ssh:    "#a6e3a1",
	model.Udp:    "#89b4fa",
	model.Dns:    "#8ad6ff",
	model.Mdns:   "#73d4ff",
	model.Quic:   "#66c8ff",
	model.Dhcp:   "#f9e2af",
	model.Ntp:    "#c4d4ff",
	model.Ssdp:   "#fab387",
	model.Stun:   "#7de3c5",
	model.Turn:   "#7ff0b3",
	model.Icmp:   "#a6e3a1",
	model.Icmpv6: "#7dd3a4",
	model.Arp:    "#f2b8a1",
	model.Other:  "#cdd6f4",
}

// Color returns the status-bar color of p.
func Color(p model.Protocol) string {
	if !p.Valid() {
		return barColors[model.Other]
	}
	return barColors[p]
}

// Glyph is one rendered group of four rows.
type Glyph struct {
	Rune  rune
	Color string
	Empty bool
}

// Glyph renders rows [4*group, 4*group+4) of the lane.
func (l *Lane) Glyph(group int) Glyph {
	var (
		mask   uint8
		counts [model.NumProtocols]int
	)
	for r := 0; r < 4; r++ {
		for side, x := range l.rows[group*4+r] {
			if p, ok := x.protocol(); ok {
				mask |= dotBits[r][side]
				counts[p]++
			}
		}
	}
	if mask == 0 {
		return Glyph{Rune: placeholderGlyph, Color: placeholderColor, Empty: true}
	}
	return Glyph{Rune: rune(brailleBase + int(mask)), Color: Color(dominant(&counts))}
}

// dominant returns the most frequent protocol. Ties go to the lowest tag.
func dominant(counts *[model.NumProtocols]int) model.Protocol {
	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return model.Protocol(best)
}

// Render writes GlyphRows lines of Pango markup, one glyph per lane per
// line, separated by newlines with no trailing newline.
func (b *Buffer) Render(sb *strings.Builder) {
	for g := 0; g < GlyphRows; g++ {
		if g > 0 {
			sb.WriteByte('\n')
		}
		for i := range b.lanes {
			gl := b.lanes[i].Glyph(g)
			fmt.Fprintf(sb, "<span size='small' color='%s'>%c</span>", gl.Color, gl.Rune)
		}
	}
}
