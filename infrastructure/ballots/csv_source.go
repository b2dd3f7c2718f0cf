package ballots

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ahrav/go-ballot/internal/domain"
	"github.com/ahrav/go-ballot/internal/ports"
)

// CSVSource reads ballots from a comma-separated file in the block layout.
// Each physical line is one row; quoting is honored within a line.
type CSVSource struct {
	name   string
	open   func() (io.ReadCloser, error)
	layout Layout
}

// NewCSVSource creates a source reading the file at path.
func NewCSVSource(path string, layout Layout) (*CSVSource, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &CSVSource{
		name:   filepath.Base(path),
		open:   func() (io.ReadCloser, error) { return os.Open(path) },
		layout: layout,
	}, nil
}

// NewCSVReaderSource creates a source over an in-memory reader. The reader
// is consumed by the first Load.
func NewCSVReaderSource(name string, r io.Reader, layout Layout) (*CSVSource, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &CSVSource{
		name:   name,
		open:   func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
		layout: layout,
	}, nil
}

// Name returns the base name of the source.
func (s *CSVSource) Name() string { return s.name }

// Load parses every ballot in the file.
func (s *CSVSource) Load(ctx context.Context) ([]domain.Ballot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, err := s.open()
	if err != nil {
		return nil, ports.NewLoaderError(s.name, 0, fmt.Errorf("open: %w", err))
	}
	defer rc.Close()

	rows, err := readCSVRows(ctx, s.name, rc)
	if err != nil {
		return nil, err
	}
	ballots, err := parseBlocks(s.name, rows, s.layout)
	if err != nil {
		return nil, err
	}
	if len(ballots) == 0 {
		return nil, ports.NewLoaderError(s.name, 0, ports.ErrNoBallots)
	}
	return ballots, nil
}

// readCSVRows splits r into physical lines and parses each line as a CSV
// record. Blank lines become nil rows so block boundaries stay aligned
// with line numbers.
func readCSVRows(ctx context.Context, source string, r io.Reader) ([][]string, error) {
	var rows [][]string
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			rows = append(rows, nil)
			continue
		}
		cr := csv.NewReader(strings.NewReader(text))
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		cr.LazyQuotes = true
		record, err := cr.Read()
		if err != nil {
			return nil, ports.NewLoaderError(source, line, fmt.Errorf("%w: %w", ports.ErrMalformedRecord, err))
		}
		rows = append(rows, record)
	}
	if err := sc.Err(); err != nil {
		return nil, ports.NewLoaderError(source, 0, fmt.Errorf("read: %w", err))
	}
	return rows, nil
}

var _ ports.BallotSource = (*CSVSource)(nil)
