package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// SchemaVersion tags every structured response.
const SchemaVersion = "v1"

// prettyEnv enables indented JSON.
const prettyEnv = "CLAUDE_COMPACT_PRETTY_JSON"

// Response represents a standard structured response.
type Response struct {
	SchemaVersion string `json:"schema_version" yaml:"schema_version"`
	Success       bool   `json:"success" yaml:"success"`
	Data          any    `json:"data,omitempty" yaml:"data,omitempty"`
	Error         string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Success wraps a successful response with data
func Success(data any) Response {
	return Response{
		SchemaVersion: SchemaVersion,
		Success:       true,
		Data:          data,
	}
}

// Error wraps an error in a response
func Error(err error) Response {
	return Response{
		SchemaVersion: SchemaVersion,
		Success:       false,
		Error:         err.Error(),
	}
}

// Config controls where and how values are encoded.
type Config struct {
	Writer io.Writer
	Format Format
	Pretty bool
}

// DefaultConfig writes JSON to stdout, indented when CLAUDE_COMPACT_PRETTY_JSON is set.
func DefaultConfig() Config {
	v := os.Getenv(prettyEnv)
	return Config{Writer: os.Stdout, Format: FormatJSON, Pretty: v == "1" || v == "true"}
}

// PrintWith encodes v per cfg. FormatTable falls back to JSON since tables
// are rendered by the commands themselves.
func PrintWith(cfg Config, v any) error {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	switch cfg.Format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		if cfg.Pretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(v)
	}
}

// Print prints a value as JSON to stdout
func Print(v any) error {
	return PrintWith(DefaultConfig(), v)
}

// PrintSuccess prints a success response
func PrintSuccess(data any) error {
	return Print(Success(data))
}

// PrintError prints an error response
func PrintError(err error) error {
	return Print(Error(err))
}
