package ballots

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ahrav/go-ballot/internal/ports"
)

// Supported input formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// NewSource builds the BallotSource for format. An empty format is
// inferred from the file extension.
func NewSource(format, path string, sheets []string, layout Layout) (ports.BallotSource, error) {
	if format == "" {
		format = FormatFromPath(path)
	}
	switch format {
	case FormatCSV:
		return NewCSVSource(path, layout)
	case FormatXLSX:
		return NewXLSXSource(path, sheets, layout)
	default:
		return nil, fmt.Errorf("%w: input format %q", ports.ErrUnsupportedFormat, format)
	}
}

// FormatFromPath maps a file extension to an input format, defaulting to CSV.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatCSV
	}
}
