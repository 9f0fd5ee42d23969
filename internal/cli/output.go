package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Format selects how command results are printed.
type Format string

const (
	FormatHuman Format = "human"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// OutputFormatter prints command results either as human-readable text or
// as a {success, data} envelope in JSON or YAML.
type OutputFormatter struct {
	Format Format
	Out    io.Writer
	Err    io.Writer
}

type envelope struct {
	Success bool       `json:"success" yaml:"success"`
	Data    any        `json:"data,omitempty" yaml:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty" yaml:"error,omitempty"`
}

type errorBody struct {
	Code       string `json:"code" yaml:"code"`
	Message    string `json:"message" yaml:"message"`
	Suggestion string `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// Success prints data. In human mode human renders it; a nil human falls
// back to %+v.
func (f *OutputFormatter) Success(data any, human func(w io.Writer)) error {
	switch f.Format {
	case FormatJSON, FormatYAML:
		return f.encode(envelope{Success: true, Data: data})
	}
	if human != nil {
		human(f.Out)
		return nil
	}
	_, err := fmt.Fprintf(f.Out, "%+v\n", data)
	return err
}

// Error prints a failure.
func (f *OutputFormatter) Error(code, message string) error {
	return f.ErrorWithSuggestion(code, message, "")
}

// ErrorWithSuggestion prints a failure with a hint for the user.
func (f *OutputFormatter) ErrorWithSuggestion(code, message, suggestion string) error {
	switch f.Format {
	case FormatJSON, FormatYAML:
		return f.encode(envelope{Error: &errorBody{Code: code, Message: message, Suggestion: suggestion}})
	}
	fmt.Fprintf(f.Err, "❌ Error: %s\n", message)
	if suggestion != "" {
		fmt.Fprintf(f.Err, "💡 Suggestion: %s\n", suggestion)
	}
	return nil
}

func (f *OutputFormatter) encode(v envelope) error {
	if f.Format == FormatYAML {
		// Round-trip through JSON so YAML keys match the json tags.
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		enc := yaml.NewEncoder(f.Out)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(f.Out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}
