package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ahrav/go-ballot/internal/domain"
	"github.com/ahrav/go-ballot/internal/ports"
)

// JSONWriter emits the ElectionResult as indented JSON.
type JSONWriter struct {
	w io.Writer
}

// NewJSONWriter creates a JSONWriter.
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: w}
}

// Write encodes result followed by a newline.
func (jw *JSONWriter) Write(ctx context.Context, result *domain.ElectionResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("json report: nil result")
	}
	enc := json.NewEncoder(jw.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("json report: %w", err)
	}
	return nil
}

var _ ports.ResultWriter = (*JSONWriter)(nil)
