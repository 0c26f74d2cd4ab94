package digest

import "strings"

// Fingerprint canonicalizes a statement so that statements differing only in
// literal values collapse to one grouping key: quoted strings and digit runs
// become "?", whitespace collapses to single spaces, everything outside
// literals is ASCII-lowercased, and a single trailing ";" is stripped.
// The fingerprint is only a grouping key; reports surface the sample SQL.
func Fingerprint(sql string) string {
	sql = strings.TrimSpace(sql)
	sql = strings.TrimSuffix(sql, ";")

	var out strings.Builder
	out.Grow(len(sql))
	runes := []rune(sql)
	inSingle, inDouble, prevSpace := false, false, false

	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if inSingle {
			if ch == '\'' {
				inSingle = false
				out.WriteByte('?')
				prevSpace = false
			}
			continue
		}
		if inDouble {
			if ch == '"' {
				inDouble = false
				out.WriteByte('?')
				prevSpace = false
			}
			continue
		}

		switch {
		case ch == '\'':
			inSingle = true
		case ch == '"':
			inDouble = true
		case ch >= '0' && ch <= '9':
			out.WriteByte('?')
			for i+1 < len(runes) && (runes[i+1] >= '0' && runes[i+1] <= '9' || runes[i+1] == '.') {
				i++
			}
			prevSpace = false
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			if !prevSpace {
				out.WriteByte(' ')
				prevSpace = true
			}
		default:
			out.WriteRune(asciiLower(ch))
			prevSpace = false
		}
	}

	return strings.TrimSpace(out.String())
}

func asciiLower(ch rune) rune {
	if ch >= 'A' && ch <= 'Z' {
		return ch + ('a' - 'A')
	}
	return ch
}
