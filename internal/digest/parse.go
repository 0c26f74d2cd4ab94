package digest

import (
	"strconv"
	"strings"
)

// Entry is one parsed slow-log statement with its execution metrics.
type Entry struct {
	Timestamp    string  `json:"timestamp,omitempty"`
	SQL          string  `json:"sql"`
	QueryTime    float64 `json:"query_time_secs"`
	LockTime     float64 `json:"lock_time_secs"`
	RowsSent     uint64  `json:"rows_sent"`
	RowsExamined uint64  `json:"rows_examined"`
}

type entryBuilder struct {
	timestamp    string
	sqlLines     []string
	queryTime    float64
	lockTime     float64
	rowsSent     uint64
	rowsExamined uint64
}

// ParseSlowLog parses MySQL slow-log content into entries. Each entry starts
// at a "# Time:" header; metric lines carry Query_time/Lock_time/Rows_sent/
// Rows_examined; remaining non-comment lines are the statement text.
// Malformed metric values are skipped per line, never fatal.
func ParseSlowLog(content string) []Entry {
	var entries []Entry
	var current *entryBuilder

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(line, "# Time:") {
			entries = finalizeEntry(entries, current)
			current = &entryBuilder{
				timestamp: strings.TrimSpace(strings.TrimPrefix(line, "# Time:")),
			}
			continue
		}
		if current == nil {
			continue
		}

		if strings.Contains(line, "Query_time:") {
			current.queryTime = extractFloatMetric(line, "Query_time")
			current.lockTime = extractFloatMetric(line, "Lock_time")
			current.rowsSent = extractUintMetric(line, "Rows_sent")
			current.rowsExamined = extractUintMetric(line, "Rows_examined")
			continue
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "SET timestamp=") {
			continue
		}

		current.sqlLines = append(current.sqlLines, trimmed)
	}
	return finalizeEntry(entries, current)
}

func finalizeEntry(entries []Entry, b *entryBuilder) []Entry {
	if b == nil {
		return entries
	}
	sql := strings.TrimSpace(strings.Join(b.sqlLines, "\n"))
	if sql == "" {
		return entries
	}
	return append(entries, Entry{
		Timestamp:    b.timestamp,
		SQL:          sql,
		QueryTime:    b.queryTime,
		LockTime:     b.lockTime,
		RowsSent:     b.rowsSent,
		RowsExamined: b.rowsExamined,
	})
}

func extractFloatMetric(line, key string) float64 {
	raw, ok := metricToken(line, key)
	if !ok {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

func extractUintMetric(line, key string) uint64 {
	raw, ok := metricToken(line, key)
	if !ok {
		return 0
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func metricToken(line, key string) (string, bool) {
	marker := key + ":"
	idx := strings.Index(line, marker)
	if idx < 0 {
		return "", false
	}
	fields := strings.Fields(line[idx+len(marker):])
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}
