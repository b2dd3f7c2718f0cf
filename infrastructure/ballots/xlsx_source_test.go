package ballots

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ahrav/go-ballot/internal/domain"
	"github.com/ahrav/go-ballot/internal/ports"
)

var smallLayout = Layout{BlockSize: 4, HeaderRows: 1, CategoryRows: 2}

// writeWorkbook saves a workbook whose sheets hold the given rows, starting
// at A1. Nil rows are left empty.
func writeWorkbook(t *testing.T, sheets map[string][][]any, order []string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			if row == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	path := filepath.Join(t.TempDir(), "ballots.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func judgeRows(taste, price []any) [][]any {
	return [][]any{
		{"category", "significance", "a", "b", "c", "d"},
		taste,
		price,
		nil,
	}
}

func TestXLSXSource_AllSheets(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Judge1": judgeRows(
			[]any{"Taste", 2, 8, 7, 5, 3},
			[]any{"Price", 1, 4, 9, 6, 2},
		),
		"Judge2": judgeRows(
			[]any{"Taste", "", 1, 2},
			[]any{"Price", 3, 1, 1, 1, 1},
		),
	}, []string{"Judge1", "Judge2"})

	src, err := NewXLSXSource(path, nil, smallLayout)
	require.NoError(t, err)
	assert.Equal(t, "ballots.xlsx", src.Name())

	got, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "ballots.xlsx:Judge1#1", got[0].ID)
	assert.Equal(t, "ballots.xlsx:Judge2#1", got[1].ID)

	taste, ok := got[0].Entry("Taste")
	require.True(t, ok)
	assert.Equal(t, 2.0, taste.Significance)
	assert.Equal(t, [domain.NumCandidates]float64{8, 7, 5, 3}, taste.Scores)

	short, ok := got[1].Entry("Taste")
	require.True(t, ok)
	assert.Equal(t, domain.DefaultSignificance, short.Significance)
	assert.Equal(t, [domain.NumCandidates]float64{1, 2, 0, 0}, short.Scores, "trimmed trailing cells default to 0")
}

func TestXLSXSource_SelectedSheets(t *testing.T) {
	rows := judgeRows([]any{"Taste", 1, 1, 2, 3, 4}, []any{"Price", 1, 4, 3, 2, 1})
	path := writeWorkbook(t, map[string][][]any{
		"A": rows, "B": rows, "C": rows,
	}, []string{"A", "B", "C"})

	src, err := NewXLSXSource(path, []string{"C", "A"}, smallLayout)
	require.NoError(t, err)

	got, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ballots.xlsx:C#1", got[0].ID)
	assert.Equal(t, "ballots.xlsx:A#1", got[1].ID)
}

func TestXLSXSource_EmptySheetSkipped(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Votes": judgeRows([]any{"Taste", 1, 1, 2, 3, 4}, []any{"Price", 1, 4, 3, 2, 1}),
		"Notes": nil,
	}, []string{"Votes", "Notes"})

	src, err := NewXLSXSource(path, nil, smallLayout)
	require.NoError(t, err)

	got, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestXLSXSource_Errors(t *testing.T) {
	t.Run("malformed cell reports row", func(t *testing.T) {
		path := writeWorkbook(t, map[string][][]any{
			"Votes": judgeRows([]any{"Taste", 1, 1, 2, 3, 4}, []any{"Price", 1, "lots", 3, 2, 1}),
		}, []string{"Votes"})

		src, err := NewXLSXSource(path, nil, smallLayout)
		require.NoError(t, err)

		_, err = src.Load(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ports.ErrMalformedRecord)

		var le *ports.LoaderError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, "ballots.xlsx:Votes", le.Source)
		assert.Equal(t, 3, le.Line)
	})

	t.Run("unknown sheet", func(t *testing.T) {
		path := writeWorkbook(t, map[string][][]any{
			"Votes": judgeRows([]any{"Taste", 1, 1, 2, 3, 4}, []any{"Price", 1, 4, 3, 2, 1}),
		}, []string{"Votes"})

		src, err := NewXLSXSource(path, []string{"Missing"}, smallLayout)
		require.NoError(t, err)

		_, err = src.Load(context.Background())
		assert.ErrorIs(t, err, ports.ErrConfigNotFound)
	})

	t.Run("no ballots", func(t *testing.T) {
		path := writeWorkbook(t, map[string][][]any{"Empty": nil}, []string{"Empty"})

		src, err := NewXLSXSource(path, nil, smallLayout)
		require.NoError(t, err)

		_, err = src.Load(context.Background())
		assert.ErrorIs(t, err, ports.ErrNoBallots)
	})

	t.Run("missing file", func(t *testing.T) {
		src, err := NewXLSXSource(filepath.Join(t.TempDir(), "none.xlsx"), nil, smallLayout)
		require.NoError(t, err)

		_, err = src.Load(context.Background())
		var le *ports.LoaderError
		assert.ErrorAs(t, err, &le)
	})
}

func TestXLSXSource_MatchesCSV(t *testing.T) {
	rows := make([][]any, 0, 8)
	csvData := ""
	for j := range 2 {
		rows = append(rows, []any{"h"})
		csvData += "h\n"
		for _, cat := range []string{"Taste", "Price"} {
			rows = append(rows, []any{cat, j + 1, 1, 2, 3, 4})
			csvData += fmt.Sprintf("%s,%d,1,2,3,4\n", cat, j+1)
		}
		rows = append(rows, nil)
		csvData += "\n"
	}
	path := writeWorkbook(t, map[string][][]any{"S": rows}, []string{"S"})

	xsrc, err := NewXLSXSource(path, nil, smallLayout)
	require.NoError(t, err)
	fromXLSX, err := xsrc.Load(context.Background())
	require.NoError(t, err)

	fromCSV, err := loadString(t, csvData, smallLayout)
	require.NoError(t, err)

	require.Len(t, fromXLSX, len(fromCSV))
	for i := range fromCSV {
		assert.Equal(t, fromCSV[i].Categories, fromXLSX[i].Categories)
		assert.Equal(t, fromCSV[i].Entries, fromXLSX[i].Entries)
	}
}
