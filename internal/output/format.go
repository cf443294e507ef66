package output

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Format selects how commands render results.
type Format string

// Supported formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

var _ pflag.Value = (*Format)(nil)

// Formats lists the accepted --output values.
func Formats() []string {
	return []string{string(FormatTable), string(FormatJSON), string(FormatYAML)}
}

func (f *Format) String() string {
	if *f == "" {
		return string(FormatTable)
	}
	return string(*f)
}

// Set implements pflag.Value.
func (f *Format) Set(v string) error {
	switch Format(strings.ToLower(strings.TrimSpace(v))) {
	case FormatTable:
		*f = FormatTable
	case FormatJSON:
		*f = FormatJSON
	case FormatYAML:
		*f = FormatYAML
	default:
		return fmt.Errorf("must be one of %s", strings.Join(Formats(), ", "))
	}
	return nil
}

// Type implements pflag.Value.
func (f *Format) Type() string {
	return "format"
}

// Structured reports whether f is a machine-readable format.
func (f Format) Structured() bool {
	return f == FormatJSON || f == FormatYAML
}
