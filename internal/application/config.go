package application

import (
	"github.com/ahrav/go-ballot/infrastructure/ballots"
	"github.com/ahrav/go-ballot/infrastructure/report"
	"github.com/ahrav/go-ballot/infrastructure/units"
)

// ElectionConfig is the declarative description of a tally run and the
// root of election.yaml.
type ElectionConfig struct {
	// Version is the configuration schema version (X.Y.Z).
	Version string `yaml:"version" validate:"required,semver"`

	// Metadata describes the election for operators and reports.
	Metadata Metadata `yaml:"metadata" validate:"required"`

	// Input locates the ballots and describes their layout.
	Input InputConfig `yaml:"input"`

	// Contexts selects which categories get their own resolution.
	Contexts ContextsConfig `yaml:"contexts"`

	// Resolver configures how winners are decided.
	Resolver ResolverConfig `yaml:"resolver"`

	// Concurrency bounds the number of contexts tallied in parallel.
	// Zero selects runtime.NumCPU()*2.
	Concurrency int `yaml:"concurrency" validate:"min=0,max=1024"`

	// Output selects the report format.
	Output OutputConfig `yaml:"output"`
}

// Metadata provides descriptive information about an election.
type Metadata struct {
	// Name is the human-readable name of the election.
	Name string `yaml:"name" validate:"required,min=1,max=255"`

	Description string            `yaml:"description" validate:"max=1000"`
	Tags        []string          `yaml:"tags" validate:"max=20,dive,min=1,max=50"`
	Labels      map[string]string `yaml:"labels" validate:"max=50"`
}

// InputConfig locates and describes the ballot source.
type InputConfig struct {
	// Format is csv or xlsx. Empty infers it from Path.
	Format string `yaml:"format" validate:"omitempty,oneof=csv xlsx"`

	// Path is the ballot file. It may be supplied on the command line
	// instead.
	Path string `yaml:"path"`

	// Sheets restricts an xlsx workbook to the named sheets, in order.
	Sheets []string `yaml:"sheets" validate:"omitempty,unique,dive,min=1"`

	ballots.Layout `yaml:",inline"`
}

// ContextsConfig selects per-category contexts. The overall context is
// always resolved.
type ContextsConfig struct {
	// Categories limits per-category resolutions to these names. Empty
	// means every category of the first ballot, in ballot order.
	Categories []string `yaml:"categories" validate:"omitempty,unique,dive,context_name"`
}

// ResolverConfig configures the Condorcet resolver.
type ResolverConfig struct {
	// WeakestLink selects the cycle-break search: pairwise or legacy.
	WeakestLink string `yaml:"weakest_link" validate:"omitempty,oneof=pairwise legacy"`

	// Candidates restricts the candidate universe. Empty means all four.
	Candidates []string `yaml:"candidates" validate:"omitempty,max=4,unique,dive,candidate"`
}

// OutputConfig selects how results are rendered.
type OutputConfig struct {
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`

	// Precision is the number of decimals for category weights in the
	// text report.
	Precision int `yaml:"precision" validate:"min=0,max=10"`
}

// newConfigDefaults returns a configuration holding every optional
// default. YAML is decoded on top of it, so keys absent from the file keep
// these values while explicit zeros are preserved.
func newConfigDefaults() *ElectionConfig {
	return &ElectionConfig{
		Input: InputConfig{Layout: ballots.DefaultLayout()},
		Resolver: ResolverConfig{
			WeakestLink: string(units.WeakestLinkPairwise),
		},
		Output: OutputConfig{
			Format:    report.FormatText,
			Precision: report.DefaultPrecision,
		},
	}
}

// DefaultElectionConfig returns a complete configuration that reads the
// standard ten-line CSV layout and resolves every category.
func DefaultElectionConfig() *ElectionConfig {
	cfg := newConfigDefaults()
	cfg.Version = "1.0.0"
	cfg.Metadata = Metadata{Name: "election"}
	return cfg
}
