package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_VerbosityControlsLevel(t *testing.T) {
	var buf bytes.Buffer

	log := New(&buf, 0)
	log.Debug().Msg("hidden")
	log.Info().Msg("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug must be suppressed at verbosity 0")
	}
	if !strings.Contains(out, "shown") {
		t.Error("info must be emitted at verbosity 0")
	}

	buf.Reset()
	log = New(&buf, 1)
	log.Debug().Msg("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("debug must be emitted at verbosity 1")
	}

	buf.Reset()
	log = New(&buf, 2)
	log.Trace().Msg("tracing")
	if !strings.Contains(buf.String(), "tracing") {
		t.Error("trace must be emitted at verbosity 2")
	}
}
