// Package report renders election results for people and machines.
package report

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ahrav/go-ballot/internal/domain"
	"github.com/ahrav/go-ballot/internal/ports"
)

// DefaultPrecision is the number of decimals used for category weights.
const DefaultPrecision = 3

// TextWriter renders the human-readable report: one section per scoring
// context, overall first, followed by the general category weightings.
type TextWriter struct {
	w         io.Writer
	precision int
}

// NewTextWriter creates a TextWriter. A negative precision selects
// DefaultPrecision.
func NewTextWriter(w io.Writer, precision int) *TextWriter {
	if precision < 0 {
		precision = DefaultPrecision
	}
	return &TextWriter{w: w, precision: precision}
}

// Write renders result.
func (tw *TextWriter) Write(ctx context.Context, result *domain.ElectionResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("text report: nil result")
	}

	bw := bufio.NewWriter(tw.w)
	writeResolution(bw, result.Overall)
	for _, res := range result.PerCategory {
		writeResolution(bw, res)
	}

	fmt.Fprintln(bw, "General Category Weightings:")
	for _, cat := range result.Significance.Categories {
		fmt.Fprintf(bw, "    %s: %.*f\n", cat, tw.precision, result.Significance.Weights[cat])
	}
	return bw.Flush()
}

func writeResolution(w io.Writer, res domain.Resolution) {
	name := res.Context
	if name == "" {
		name = domain.ContextOverall
	}
	fmt.Fprintln(w, "Results for category:", name)

	for _, step := range res.Trace {
		switch step.Kind {
		case domain.TraceDefeated:
			fmt.Fprintf(w, "         %s defeated by %s by margin %s\n",
				candidate(step.Candidate), candidate(step.By), number(step.Margin))
		case domain.TraceSchwartzSet:
			if len(step.Members) == 1 {
				continue
			}
			fmt.Fprintln(w, "    No Condorcet winner found.")
			if len(step.Members) == 2 {
				fmt.Fprintf(w, "    Schwartz set (tie between two candidates): %s\n", set(step.Members))
			} else {
				fmt.Fprintf(w, "    Schwartz set: %s\n", set(step.Members))
			}
		case domain.TraceTiebreak:
			fmt.Fprintf(w, "    Score-based tie-break winner: %s by %s point margin\n",
				candidate(step.Candidate), number(step.Margin))
		case domain.TraceWeakestLink:
			fmt.Fprintf(w, "    Weakest link: %s over %s by %s points\n",
				candidate(step.Candidate), candidate(step.By), number(step.Margin))
		case domain.TraceCycleWinner:
			fmt.Fprintf(w, "    Condorcet winner after breaking cycle with lowest margin: %s\n",
				candidate(step.Candidate))
		case domain.TraceCondorcetWin:
			fmt.Fprintf(w, "    Condorcet winner: %s\n", candidate(step.Candidate))
		}
	}

	margin := number(res.Margin)
	if res.MarginUnit == domain.MarginPoints {
		margin += " points"
	}
	fmt.Fprintf(w, "    Margin of victory: %s\n", margin)
	fmt.Fprintf(w, "    Runner-up: %s\n", candidate(res.RunnerUp))
}

func candidate(c *domain.Candidate) string {
	if c == nil {
		return "none"
	}
	return c.String()
}

func set(members []domain.Candidate) string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.String()
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// number prints integral values without a fractional part.
func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var _ ports.ResultWriter = (*TextWriter)(nil)
