package alertlog

import "strings"

// Alert is one matched error-log line. Position is the 1-based index of the
// line within the scanned (already bounded) content.
type Alert struct {
	Category Category `json:"category"`
	Line     string   `json:"line"`
	Position int      `json:"position"`
}

// Extract scans bounded log lines against the pattern set. Every matching
// line produces one Alert per matched category; matches are never
// deduplicated and preserve file order. Category match order within a line
// follows the fixed Categories order.
func Extract(lines []string, patterns PatternSet) []Alert {
	var alerts []Alert
	for i, line := range lines {
		lower := strings.ToLower(line)
		for _, category := range Categories {
			if matchesAny(lower, patterns.patterns[category]) {
				alerts = append(alerts, Alert{
					Category: category,
					Line:     line,
					Position: i + 1,
				})
			}
		}
	}
	return alerts
}

func matchesAny(lower string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
