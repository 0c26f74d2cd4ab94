package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/luckyjian/sqlinsight/internal/schedule"
)

// Render serializes a cycle envelope into the requested format.
func Render(record schedule.Record, format Format) (string, error) {
	switch format {
	case FormatJSON:
		b, err := json.Marshal(record)
		if err != nil {
			return "", fmt.Errorf("json marshal: %w", err)
		}
		return string(b), nil
	case FormatPretty:
		b, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return "", fmt.Errorf("json marshal: %w", err)
		}
		return string(b), nil
	case FormatYAML:
		b, err := yaml.Marshal(envelopeForYAML(record))
		if err != nil {
			return "", fmt.Errorf("yaml marshal: %w", err)
		}
		return "---\n" + string(b), nil
	default:
		return "", fmt.Errorf("unsupported format: %q", format)
	}
}

// Emitter returns a schedule.EmitFunc that renders each envelope to w, one
// document per cycle.
func Emitter(w io.Writer, format Format) schedule.EmitFunc {
	return func(record schedule.Record) error {
		text, err := Render(record, format)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, text); err != nil {
			return fmt.Errorf("write envelope: %w", err)
		}
		return nil
	}
}

// envelopeForYAML round-trips the record through its JSON form so the YAML
// document carries the contract's snake_case field names instead of Go ones.
func envelopeForYAML(record schedule.Record) any {
	b, err := json.Marshal(record)
	if err != nil {
		return record
	}
	var generic map[string]any
	if err := json.Unmarshal(b, &generic); err != nil {
		return record
	}
	return generic
}
