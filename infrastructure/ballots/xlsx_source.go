package ballots

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-ballot/internal/domain"
	"github.com/ahrav/go-ballot/internal/ports"
)

// XLSXSource reads ballots from one or more worksheets of a workbook. Each
// sheet uses the same block layout as a CSV file and sheets are
// concatenated in the configured order.
type XLSXSource struct {
	path   string
	sheets []string
	layout Layout
}

// NewXLSXSource creates a workbook source. An empty sheets list means every
// sheet in workbook order.
func NewXLSXSource(path string, sheets []string, layout Layout) (*XLSXSource, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &XLSXSource{path: path, sheets: slices.Clone(sheets), layout: layout}, nil
}

// Name returns the workbook base name.
func (s *XLSXSource) Name() string { return filepath.Base(s.path) }

// Load reads the configured sheets concurrently and parses them in order.
func (s *XLSXSource) Load(ctx context.Context) ([]domain.Ballot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, ports.NewLoaderError(s.Name(), 0, fmt.Errorf("open workbook: %w", err))
	}
	defer f.Close()

	sheets := s.sheets
	if len(sheets) == 0 {
		sheets = f.GetSheetList()
	}
	available := f.GetSheetList()
	for _, name := range sheets {
		if !slices.Contains(available, name) {
			return nil, ports.NewLoaderError(s.Name(), 0,
				fmt.Errorf("%w: sheet %q not found", ports.ErrConfigNotFound, name))
		}
	}

	sheetRows := make([][][]string, len(sheets))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range sheets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows, err := f.GetRows(name)
			if err != nil {
				return ports.NewLoaderError(s.sheetSource(name), 0, fmt.Errorf("read sheet: %w", err))
			}
			sheetRows[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var ballots []domain.Ballot
	for i, name := range sheets {
		parsed, err := parseBlocks(s.sheetSource(name), sheetRows[i], s.layout)
		if err != nil {
			return nil, err
		}
		ballots = append(ballots, parsed...)
	}
	if len(ballots) == 0 {
		return nil, ports.NewLoaderError(s.Name(), 0, ports.ErrNoBallots)
	}
	return ballots, nil
}

func (s *XLSXSource) sheetSource(sheet string) string {
	return s.Name() + ":" + sheet
}

var _ ports.BallotSource = (*XLSXSource)(nil)
