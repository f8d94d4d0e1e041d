// Package formatting renders saptunectl results for the terminal and for
// machines: rounded tables with colors, JSON, or YAML.
package formatting

import (
	"fmt"
	"io"
	"os"

	"saptunectl/internal/app"
	"saptunectl/internal/engine"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// ParseFormat validates a --output value.
func ParseFormat(name string) (OutputFormat, error) {
	switch f := OutputFormat(name); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, json or yaml)", name)
	}
}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Quiet  bool // Suppress decorative elements
	Color  bool // Enable colored output
	// Output receives the rendered text. Nil means stdout.
	Output io.Writer
}

func (o Options) writer() io.Writer {
	if o.Output == nil {
		return os.Stdout
	}
	return o.Output
}

// Formatter renders the results of saptunectl commands.
type Formatter interface {
	// FormatResult renders a reconciliation cycle or its plan.
	FormatResult(result *app.Result) error
	// FormatStatus renders the decoded status of the host.
	FormatStatus(status engine.Status) error
	// FormatFacts renders the raw status as reported by saptune.
	FormatFacts(facts map[string]any) error
	// FormatNotes renders the Notes saptune knows.
	FormatNotes(inv engine.Inventory) error
	// FormatSolutions renders the Solutions saptune knows.
	FormatSolutions(inv engine.Inventory) error
	// FormatHistory renders run records, newest first.
	FormatHistory(records []app.Result) error

	// Configuration
	SetOptions(options Options)
	GetOptions() Options
}

// Factory creates formatters for different output formats
type Factory interface {
	CreateFormatter(options Options) Formatter
}

// NewFactory creates a new formatter factory
func NewFactory() Factory {
	return &factory{}
}

// factory implements the Factory interface
type factory struct{}

// CreateFormatter creates the appropriate formatter based on options
func (f *factory) CreateFormatter(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatTable:
		fallthrough
	default:
		return NewTableFormatter(options)
	}
}
