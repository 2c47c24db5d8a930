package probe

import (
	"errors"
	"fmt"
	"time"

	"TrafficRain/internal/model"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the event message on the wire.
const (
	fieldProtocol  protowire.Number = 1
	fieldDirection protowire.Number = 2
	fieldFast      protowire.Number = 3
	fieldTimestamp protowire.Number = 4
)

// ErrMalformedEvent is returned by DecodeEvent for payloads that cannot be
// turned into a PacketEvent.
var ErrMalformedEvent = errors.New("malformed event")

// EncodeEvent appends the protobuf wire encoding of ev observed at ts to b.
func EncodeEvent(b []byte, ev model.PacketEvent, ts time.Time) []byte {
	b = protowire.AppendTag(b, fieldProtocol, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(ev.Protocol))
	b = protowire.AppendTag(b, fieldDirection, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(ev.Direction))
	if ev.Fast {
		b = protowire.AppendTag(b, fieldFast, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	if !ts.IsZero() {
		b = protowire.AppendTag(b, fieldTimestamp, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(ts.UnixNano()))
	}
	return b
}

// DecodeEvent parses a payload produced by EncodeEvent. Unknown fields are
// skipped. Missing fields take their zero values; the zero timestamp is
// returned when the sender did not set one.
func DecodeEvent(b []byte) (model.PacketEvent, time.Time, error) {
	var (
		ev model.PacketEvent
		ts time.Time
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return ev, ts, fmt.Errorf("%w: %v", ErrMalformedEvent, protowire.ParseError(n))
		}
		b = b[n:]

		if typ != protowire.VarintType || num < fieldProtocol || num > fieldTimestamp {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return ev, ts, fmt.Errorf("%w: %v", ErrMalformedEvent, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return ev, ts, fmt.Errorf("%w: %v", ErrMalformedEvent, protowire.ParseError(n))
		}
		b = b[n:]

		switch num {
		case fieldProtocol:
			if v >= uint64(model.NumProtocols) {
				return ev, ts, fmt.Errorf("%w: protocol %d", ErrMalformedEvent, v)
			}
			ev.Protocol = model.Protocol(v)
		case fieldDirection:
			if v > uint64(model.Undirected) {
				return ev, ts, fmt.Errorf("%w: direction %d", ErrMalformedEvent, v)
			}
			ev.Direction = model.Direction(v)
		case fieldFast:
			ev.Fast = protowire.DecodeBool(v)
		case fieldTimestamp:
			ts = time.Unix(0, int64(v))
		}
	}
	return ev, ts, nil
}
