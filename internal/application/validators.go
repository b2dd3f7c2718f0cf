package application

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-ballot/infrastructure/ballots"
	"github.com/ahrav/go-ballot/internal/domain"
)

// registerCustomValidators adds the election-specific struct tags.
func registerCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return fmt.Errorf("failed to register semver validator: %w", err)
	}
	if err := v.RegisterValidation("candidate", validateCandidate); err != nil {
		return fmt.Errorf("failed to register candidate validator: %w", err)
	}
	if err := v.RegisterValidation("context_name", validateContextName); err != nil {
		return fmt.Errorf("failed to register context_name validator: %w", err)
	}
	return nil
}

// validateSemver accepts X.Y.Z where X, Y and Z are non-negative integers.
func validateSemver(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	var major, minor, patch int
	var rest string
	n, _ := fmt.Sscanf(value, "%d.%d.%d%s", &major, &minor, &patch, &rest)
	return n == 3 && major >= 0 && minor >= 0 && patch >= 0
}

// validateCandidate accepts a candidate letter in any case.
func validateCandidate(fl validator.FieldLevel) bool {
	_, err := domain.ParseCandidate(fl.Field().String())
	return err == nil
}

// validateContextName rejects empty names, names with surrounding blanks and
// the reserved overall context.
func validateContextName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || strings.TrimSpace(name) != name {
		return false
	}
	return cases.Fold().String(name) != domain.ContextOverall
}

// validateSemantics checks rules that span fields.
func validateSemantics(config *ElectionConfig) error {
	layout := config.Input.Layout
	if err := layout.Validate(); err != nil {
		return fmt.Errorf("input: %w", err)
	}

	// With neither format nor path the file arrives on the command line and
	// the sheets are checked against it there.
	format := config.Input.Format
	if format == "" && config.Input.Path != "" {
		format = ballots.FormatFromPath(config.Input.Path)
	}
	if len(config.Input.Sheets) > 0 && format != "" && format != ballots.FormatXLSX {
		return fmt.Errorf("input: sheets require xlsx input, got %q", format)
	}
	return nil
}
