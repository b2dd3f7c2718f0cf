// Package ballots loads ballots from tabular sources. Every source shares
// the block layout: a ballot is a fixed-size run of rows made of header
// rows, category rows of the form "category,significance,a,b,c,d", and
// trailing rows that are ignored.
package ballots

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-ballot/internal/domain"
	"github.com/ahrav/go-ballot/internal/ports"
)

// rowWidth is the number of cells in a category row.
const rowWidth = 2 + domain.NumCandidates

// Layout describes how rows are grouped into ballots.
type Layout struct {
	// BlockSize is the number of rows per ballot, separators included.
	BlockSize int `yaml:"block_size" json:"block_size" validate:"min=1,max=1000"`

	// HeaderRows is the number of rows skipped at the start of each block.
	HeaderRows int `yaml:"header_rows" json:"header_rows" validate:"min=0"`

	// CategoryRows is the number of category rows following the header.
	CategoryRows int `yaml:"category_rows" json:"category_rows" validate:"min=1"`
}

// DefaultLayout matches the scoring sheet the tally was designed for: ten
// rows per ballot, one header, eight categories and a separator.
func DefaultLayout() Layout {
	return Layout{BlockSize: 10, HeaderRows: 1, CategoryRows: 8}
}

var validate = validator.New()

// Validate checks the layout is internally consistent.
func (l Layout) Validate() error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("layout validation failed: %w", err)
	}
	if l.HeaderRows+l.CategoryRows > l.BlockSize {
		return fmt.Errorf("layout: header_rows (%d) + category_rows (%d) exceeds block_size (%d)",
			l.HeaderRows, l.CategoryRows, l.BlockSize)
	}
	return nil
}

var errBlankRow = errors.New("blank category row")

// parseBlocks groups rows into ballots using layout. A nil or all-empty row
// is blank. Blocks with no non-blank rows are skipped, which tolerates
// trailing newlines; a short final block is accepted as long as its
// category rows are present.
func parseBlocks(source string, rows [][]string, layout Layout) ([]domain.Ballot, error) {
	var ballots []domain.Ballot
	for start := 0; start < len(rows); start += layout.BlockSize {
		end := min(start+layout.BlockSize, len(rows))
		block := rows[start:end]
		if allBlank(block) {
			continue
		}

		b := domain.NewBallot(fmt.Sprintf("%s#%d", source, len(ballots)+1))
		catEnd := min(layout.HeaderRows+layout.CategoryRows, len(block))
		for i := layout.HeaderRows; i < catEnd; i++ {
			line := start + i + 1
			name, entry, err := parseCategoryRow(block[i])
			if err != nil {
				return nil, ports.NewLoaderError(source, line, err)
			}
			if _, dup := b.Entry(name); dup {
				return nil, ports.NewLoaderError(source, line,
					fmt.Errorf("%w: duplicate category %q", ports.ErrMalformedRecord, name))
			}
			b.Set(name, entry)
		}
		if len(b.Categories) == 0 {
			return nil, ports.NewLoaderError(source, start+1,
				fmt.Errorf("%w: ballot has no category rows", ports.ErrMalformedRecord))
		}
		ballots = append(ballots, b)
	}

	return ballots, nil
}

// parseCategoryRow parses "category,significance,a,b,c,d". Short rows are
// padded with empty cells because spreadsheets drop trailing blanks.
// Empty cells take the defaults: significance 1, score 0.
func parseCategoryRow(cells []string) (string, domain.CategoryEntry, error) {
	var entry domain.CategoryEntry
	if isBlank(cells) {
		return "", entry, fmt.Errorf("%w: %w", ports.ErrMalformedRecord, errBlankRow)
	}
	if len(cells) > rowWidth {
		for _, extra := range cells[rowWidth:] {
			if strings.TrimSpace(extra) != "" {
				return "", entry, fmt.Errorf("%w: expected %d cells, got %d", ports.ErrMalformedRecord, rowWidth, len(cells))
			}
		}
	}
	padded := make([]string, rowWidth)
	copy(padded, cells)

	name := strings.TrimSpace(padded[0])
	if name == "" {
		return "", entry, fmt.Errorf("%w: empty category name", ports.ErrMalformedRecord)
	}
	if cases.Fold().String(name) == domain.ContextOverall {
		return "", entry, fmt.Errorf("%w: category name %q is reserved", ports.ErrMalformedRecord, name)
	}

	sig, err := parseCell(padded[1], domain.DefaultSignificance)
	if err != nil {
		return "", entry, fmt.Errorf("significance: %w", err)
	}
	if sig < 0 {
		return "", entry, fmt.Errorf("%w: negative significance %g", ports.ErrMalformedRecord, sig)
	}
	entry.Significance = sig

	for _, c := range domain.Candidates() {
		v, err := parseCell(padded[2+int(c)], 0)
		if err != nil {
			return "", entry, fmt.Errorf("score %s: %w", c, err)
		}
		entry.Scores[c] = v
	}
	return name, entry, nil
}

func parseCell(cell string, def float64) (float64, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ports.ErrMalformedRecord, s)
	}
	return v, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func allBlank(rows [][]string) bool {
	for _, r := range rows {
		if !isBlank(r) {
			return false
		}
	}
	return true
}
