package formatting

import (
	"encoding/json"
	"fmt"

	"saptunectl/internal/app"
	"saptunectl/internal/engine"
)

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) Formatter {
	return &JSONFormatter{
		options: options,
	}
}

// FormatResult formats a cycle result as JSON
func (f *JSONFormatter) FormatResult(result *app.Result) error {
	return f.write(newResultDocument(result))
}

// FormatStatus formats the host status as JSON
func (f *JSONFormatter) FormatStatus(status engine.Status) error {
	return f.write(status)
}

// FormatFacts formats the raw saptune status as JSON
func (f *JSONFormatter) FormatFacts(facts map[string]any) error {
	return f.write(facts)
}

// FormatNotes formats the Note list as JSON
func (f *JSONFormatter) FormatNotes(inv engine.Inventory) error {
	return f.write(newNotesDocument(inv))
}

// FormatSolutions formats the Solution list as JSON
func (f *JSONFormatter) FormatSolutions(inv engine.Inventory) error {
	return f.write(newSolutionsDocument(inv))
}

// FormatHistory formats run records as JSON
func (f *JSONFormatter) FormatHistory(records []app.Result) error {
	return f.write(newHistoryDocument(records))
}

// SetOptions updates the formatter options
func (f *JSONFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *JSONFormatter) GetOptions() Options {
	return f.options
}

func (f *JSONFormatter) write(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	_, err = fmt.Fprintln(f.options.writer(), string(b))
	return err
}
