package output

import "fmt"

// Format represents the envelope serialization format.
type Format string

const (
	// FormatJSON emits one compact JSON object per cycle, suitable for
	// piping into log collectors.
	FormatJSON Format = "json"
	// FormatPretty emits indented JSON for human reading.
	FormatPretty Format = "pretty"
	// FormatYAML emits a YAML document per cycle.
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format selector string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatPretty, FormatYAML:
		return Format(s), nil
	}
	return "", fmt.Errorf("unsupported format %q: must be one of json, pretty, yaml", s)
}
