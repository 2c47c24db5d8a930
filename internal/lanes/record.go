package lanes

import (
	"encoding/json"
	"fmt"
	"io"
)

// Record is one status-bar update, written as a single JSON line.
type Record struct {
	Text    string `json:"text"`
	Tooltip string `json:"tooltip,omitempty"`
	Class   string `json:"class,omitempty"`
}

// Records shown when the front end cannot capture.
const (
	NeedsPrivilegeText = "NEEDS SUDO"
	NoInterfaceText    = "No IFace"
	ErrorClass         = "error"
)

// RecordWriter encodes records as newline-terminated JSON without HTML
// escaping, so markup reaches the bar verbatim.
type RecordWriter struct {
	enc *json.Encoder
}

// NewRecordWriter returns a writer on w.
func NewRecordWriter(w io.Writer) *RecordWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &RecordWriter{enc: enc}
}

// Write emits r.
func (w *RecordWriter) Write(r Record) error {
	return w.enc.Encode(r)
}

var byteUnits = [...]string{"", "K", "M", "G", "T"}

// FormatBytes renders a byte quantity compactly: integers below 1024 and for
// values of ten or more in the chosen unit, one decimal otherwise.
func FormatBytes(b float64) string {
	i := 0
	for b >= 1024 && i < len(byteUnits)-1 {
		b /= 1024
		i++
	}
	if b >= 10 || i == 0 {
		return fmt.Sprintf("%.0f%s", b, byteUnits[i])
	}
	return fmt.Sprintf("%.1f%s", b, byteUnits[i])
}
