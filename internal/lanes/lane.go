// Package lanes keeps the scrolling per-lane pixel history behind the
// status-bar front end and renders it as Braille glyphs.
package lanes

import "TrafficRain/internal/model"

const (
	// Rows is the number of pixel rows kept per lane.
	Rows = 128
	// GlyphRows is the number of text lines a lane renders to.
	GlyphRows = Rows / 4
)

// Side selects the sub-pixel column of a row.
type Side int

const (
	In Side = iota
	Out
)

// pixel is an optional protocol: zero is empty, otherwise protocol+1.
type pixel uint8

func mark(p model.Protocol) pixel { return pixel(p) + 1 }

func (x pixel) protocol() (model.Protocol, bool) {
	if x == 0 {
		return 0, false
	}
	return model.Protocol(x - 1), true
}

// Lane is a fixed-length history of rows, newest first.
type Lane struct {
	rows [Rows][2]pixel
}

// Cell returns the protocol stamped at row/side, if any.
func (l *Lane) Cell(row int, side Side) (model.Protocol, bool) {
	return l.rows[row][side].protocol()
}

// Occupied counts the non-empty cells.
func (l *Lane) Occupied() int {
	n := 0
	for _, r := range l.rows {
		for _, x := range r {
			if x != 0 {
				n++
			}
		}
	}
	return n
}

func (l *Lane) shift() {
	copy(l.rows[1:], l.rows[:Rows-1])
	l.rows[0] = [2]pixel{}
}

func (l *Lane) apply(ev model.PacketEvent) {
	x := mark(ev.Protocol)
	switch ev.Direction {
	case model.Inbound:
		l.rows[0][In] = x
	case model.Outbound:
		l.rows[0][Out] = x
	default:
		l.rows[0] = [2]pixel{x, x}
	}
	if ev.Fast {
		l.rows[1] = [2]pixel{x, x}
	}
}

// Buffer holds one lane per lane group.
type Buffer struct {
	lanes [model.NumLanes]Lane
}

// Lane returns the lane for g.
func (b *Buffer) Lane(g model.LaneGroup) *Lane {
	return &b.lanes[g]
}

// Tick scrolls every lane down by one row and clears the top row.
func (b *Buffer) Tick() {
	for i := range b.lanes {
		b.lanes[i].shift()
	}
}

// Apply stamps ev into the top row of its lane. Later events in the same
// tick overwrite earlier ones.
func (b *Buffer) Apply(ev model.PacketEvent) {
	b.lanes[ev.Protocol.Lane()].apply(ev)
}
