package pcap

import (
	"errors"
	"fmt"
	"io"
	"os"

	"TrafficRain/internal/engine/protocol"
	"TrafficRain/internal/model"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// ErrUnsupportedLinkType is returned for captures that are not Ethernet.
var ErrUnsupportedLinkType = errors.New("unsupported link type")

type linkSource interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

// Reader reads frames from a pcap or pcapng file.
type Reader struct {
	file *os.File
	src  linkSource
}

// NewReader opens the capture file at filePath. Both the classic pcap and
// the pcapng formats are accepted.
func NewReader(filePath string) (*Reader, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}

	var src linkSource
	if r, err := pcapgo.NewReader(f); err == nil {
		src = r
	} else {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return nil, err
		}
		ng, ngErr := pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions)
		if ngErr != nil {
			f.Close()
			return nil, fmt.Errorf("failed to read capture header of '%s': %w", filePath, err)
		}
		src = ng
	}

	if lt := src.LinkType(); lt != layers.LinkTypeEthernet {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLinkType, lt)
	}
	return &Reader{file: f, src: src}, nil
}

// ReadPacketData returns the next frame in the file, or io.EOF.
func (r *Reader) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	return r.src.ReadPacketData()
}

// Close closes the underlying file.
func (r *Reader) Close() {
	r.file.Close()
}

// ReadEvents classifies every frame in the file using the capture timestamps
// and sends the results to out. It closes out when done. A truncated trailing
// record ends the replay without an error.
func (r *Reader) ReadEvents(c *protocol.Classifier, out chan<- model.PacketEvent) error {
	defer close(out)
	for {
		data, ci, err := r.src.ReadPacketData()
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return nil
		default:
			return fmt.Errorf("failed to read frame: %w", err)
		}
		out <- c.Classify(data, ci.Timestamp)
	}
}
