package formatting

import (
	"fmt"

	"sigs.k8s.io/yaml"

	"saptunectl/internal/app"
	"saptunectl/internal/engine"
)

// YAMLFormatter provides YAML output formatting. Field names follow the JSON
// output.
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) Formatter {
	return &YAMLFormatter{
		options: options,
	}
}

// FormatResult formats a cycle result as YAML
func (f *YAMLFormatter) FormatResult(result *app.Result) error {
	return f.write(newResultDocument(result))
}

// FormatStatus formats the host status as YAML
func (f *YAMLFormatter) FormatStatus(status engine.Status) error {
	return f.write(status)
}

// FormatFacts formats the raw saptune status as YAML
func (f *YAMLFormatter) FormatFacts(facts map[string]any) error {
	return f.write(facts)
}

// FormatNotes formats the Note list as YAML
func (f *YAMLFormatter) FormatNotes(inv engine.Inventory) error {
	return f.write(newNotesDocument(inv))
}

// FormatSolutions formats the Solution list as YAML
func (f *YAMLFormatter) FormatSolutions(inv engine.Inventory) error {
	return f.write(newSolutionsDocument(inv))
}

// FormatHistory formats run records as YAML
func (f *YAMLFormatter) FormatHistory(records []app.Result) error {
	return f.write(newHistoryDocument(records))
}

// SetOptions updates the formatter options
func (f *YAMLFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *YAMLFormatter) GetOptions() Options {
	return f.options
}

func (f *YAMLFormatter) write(v interface{}) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode YAML output: %w", err)
	}
	_, err = f.options.writer().Write(b)
	return err
}
