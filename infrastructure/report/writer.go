package report

import (
	"fmt"
	"io"

	"github.com/ahrav/go-ballot/internal/ports"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New returns the writer for format. precision only applies to text.
func New(format string, w io.Writer, precision int) (ports.ResultWriter, error) {
	switch format {
	case FormatText, "":
		return NewTextWriter(w, precision), nil
	case FormatJSON:
		return NewJSONWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: output format %q", ports.ErrUnsupportedFormat, format)
	}
}
