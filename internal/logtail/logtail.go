// Package logtail reads bounded segments of server log files. All reads are
// capped: exceeding a cap truncates and reports it, it never fails the read.
package logtail

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Segment is a bounded slice of log content.
type Segment struct {
	Content   string
	Bytes     int
	Truncated bool
}

// Len returns the current size of the file in bytes. Used to record the
// window-start offset before a capture begins.
func Len(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Size(), nil
}

// Readable reports whether the file exists and can be opened for reading.
// Negotiation uses this as a read-only feasibility probe.
func Readable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// ReadAppended reads the content appended since offset, capped at maxBytes
// from the end. A file shorter than offset (rotated or recreated) falls back
// to the bounded tail.
func ReadAppended(path string, offset int64, maxBytes int) (Segment, error) {
	size, err := Len(path)
	if err != nil {
		return Segment{}, err
	}
	start := offset
	if size < offset {
		start = size - int64(maxBytes)
	}
	truncated := false
	if size-start > int64(maxBytes) {
		start = size - int64(maxBytes)
		truncated = true
	}
	if start < 0 {
		start = 0
	}
	content, err := readRange(path, start, size)
	if err != nil {
		return Segment{}, err
	}
	return Segment{Content: content, Bytes: len(content), Truncated: truncated}, nil
}

// ReadTail reads at most maxBytes from the end of the file.
func ReadTail(path string, maxBytes int) (Segment, error) {
	size, err := Len(path)
	if err != nil {
		return Segment{}, err
	}
	start := size - int64(maxBytes)
	truncated := start > 0
	if start < 0 {
		start = 0
	}
	content, err := readRange(path, start, size)
	if err != nil {
		return Segment{}, err
	}
	return Segment{Content: content, Bytes: len(content), Truncated: truncated}, nil
}

// LastLines returns up to maxLines trailing non-empty lines, trimmed, and
// whether the line cap dropped any.
func LastLines(content string, maxLines int) ([]string, bool) {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) > maxLines {
		return lines[len(lines)-maxLines:], true
	}
	return lines, false
}

func readRange(path string, start, end int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return "", fmt.Errorf("seek %s: %w", path, err)
	}
	buf, err := io.ReadAll(io.LimitReader(f, end-start))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(buf), nil
}
