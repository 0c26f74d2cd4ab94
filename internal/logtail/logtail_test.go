package logtail

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.log")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestReadTail_WithinCap(t *testing.T) {
	path := writeTemp(t, "line one\nline two\n")

	seg, err := ReadTail(path, 1024)
	if err != nil {
		t.Fatalf("ReadTail: %v", err)
	}
	if seg.Truncated {
		t.Error("expected no truncation")
	}
	if seg.Content != "line one\nline two\n" {
		t.Errorf("unexpected content: %q", seg.Content)
	}
}

func TestReadTail_Truncates(t *testing.T) {
	path := writeTemp(t, strings.Repeat("x", 100)+"TAIL")

	seg, err := ReadTail(path, 4)
	if err != nil {
		t.Fatalf("ReadTail: %v", err)
	}
	if !seg.Truncated {
		t.Error("expected truncation")
	}
	if seg.Content != "TAIL" {
		t.Errorf("expected last 4 bytes, got %q", seg.Content)
	}
}

func TestReadAppended(t *testing.T) {
	path := writeTemp(t, "before window\n")
	offset, err := Len(path)
	if err != nil {
		t.Fatalf("Len: %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("inside window\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()

	seg, err := ReadAppended(path, offset, 1024)
	if err != nil {
		t.Fatalf("ReadAppended: %v", err)
	}
	if seg.Content != "inside window\n" {
		t.Errorf("expected only appended content, got %q", seg.Content)
	}
	if seg.Truncated {
		t.Error("expected no truncation")
	}
}

func TestReadAppended_FileShrunkFallsBackToTail(t *testing.T) {
	path := writeTemp(t, "short")

	seg, err := ReadAppended(path, 10_000, 3)
	if err != nil {
		t.Fatalf("ReadAppended: %v", err)
	}
	if seg.Content != "ort" {
		t.Errorf("expected bounded tail after rotation, got %q", seg.Content)
	}
}

func TestReadAppended_CapTruncates(t *testing.T) {
	path := writeTemp(t, strings.Repeat("a", 50))

	seg, err := ReadAppended(path, 0, 10)
	if err != nil {
		t.Fatalf("ReadAppended: %v", err)
	}
	if !seg.Truncated {
		t.Error("expected truncation when appended content exceeds cap")
	}
	if seg.Bytes != 10 {
		t.Errorf("expected 10 bytes, got %d", seg.Bytes)
	}
}

func TestReadTail_MissingFile(t *testing.T) {
	if _, err := ReadTail(filepath.Join(t.TempDir(), "absent.log"), 10); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadable(t *testing.T) {
	path := writeTemp(t, "data")
	if !Readable(path) {
		t.Error("expected existing file to be readable")
	}
	if Readable(filepath.Join(t.TempDir(), "absent.log")) {
		t.Error("expected missing file to be unreadable")
	}
}

func TestLastLines(t *testing.T) {
	content := "one\n\ntwo\nthree\n  four  \n"

	lines, truncated := LastLines(content, 10)
	if truncated {
		t.Error("expected no truncation")
	}
	want := []string{"one", "two", "three", "four"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %v", len(want), lines)
	}
	for i, line := range want {
		if lines[i] != line {
			t.Errorf("line[%d]: expected %q, got %q", i, line, lines[i])
		}
	}

	lines, truncated = LastLines(content, 2)
	if !truncated {
		t.Error("expected truncation at line cap")
	}
	if len(lines) != 2 || lines[0] != "three" || lines[1] != "four" {
		t.Errorf("expected trailing 2 lines, got %v", lines)
	}
}
