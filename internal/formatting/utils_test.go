package formatting

import (
	"testing"
	"time"
)

func TestPrettyJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{
			name:     "simple object",
			input:    map[string]interface{}{"name": "test", "value": 42},
			expected: "{\n  \"name\": \"test\",\n  \"value\": 42\n}",
		},
		{
			name:     "array",
			input:    []string{"a", "b", "c"},
			expected: "[\n  \"a\",\n  \"b\",\n  \"c\"\n]",
		},
		{
			name:     "nil",
			input:    nil,
			expected: "null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := PrettyJSON(tt.input)
			if result != tt.expected {
				t.Errorf("PrettyJSON() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestPrettyJSONWithInvalidData(t *testing.T) {
	// A channel cannot be marshaled; the fallback must still print something.
	result := PrettyJSON(make(chan int))
	if len(result) < 5 {
		t.Errorf("PrettyJSON() fallback should provide meaningful output, got %q", result)
	}
}

func TestCompactJSON(t *testing.T) {
	tests := []struct {
		input    interface{}
		expected string
	}{
		{"running", "running"},
		{[]interface{}{"enabled", "active"}, `["enabled","active"]`},
		{map[string]interface{}{"staging enabled": false}, `{"staging enabled":false}`},
	}

	for _, tt := range tests {
		if got := compactJSON(tt.input); got != tt.expected {
			t.Errorf("compactJSON(%v) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{0, "-"},
		{1234567 * time.Nanosecond, "1ms"},
		{2345 * time.Millisecond, "2.3s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.input); got != tt.expected {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0b9a6f4e-1c53-4c4f-9a41-6a1f0e7d9d10"); got != "0b9a6f4e" {
		t.Errorf("shortID() = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID() = %q", got)
	}
}
