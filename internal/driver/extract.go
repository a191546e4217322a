package driver

import (
	"regexp"
	"strings"
)

// QueryText is one extracted query together with the 1-based source line
// number it started on (for diagnostics).
type QueryText struct {
	Line int
	SQL  string
}

var selectToEnd = regexp.MustCompile(`(?is)(SELECT\s+.*?)(?:;|\z)`)
var selectSemicolon = regexp.MustCompile(`(?is)(SELECT\s+.*?)(?:;)`)

// ExtractLineMode scans content line by line, extracting the first
// SELECT...; or SELECT...end-of-line span from each non-empty line. Lines
// with no SELECT are skipped.
func ExtractLineMode(content string) []QueryText {
	var out []QueryText
	for i, line := range strings.Split(content, "\n") {
		if q := extractSelect(line); q != "" {
			out = append(out, QueryText{Line: i + 1, SQL: q})
		}
	}
	return out
}

func extractSelect(line string) string {
	m := selectToEnd.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	q := strings.TrimSpace(m[1])
	if !strings.HasSuffix(q, ";") {
		q += ";"
	}
	return q
}

// ExtractSemicolonMode scans the whole file for SELECT ... ; spans,
// non-greedy, with dot matching newline so a query may span multiple
// lines.
func ExtractSemicolonMode(content string) []QueryText {
	var out []QueryText
	matches := selectSemicolon.FindAllStringSubmatchIndex(content, -1)
	for _, m := range matches {
		start, textStart, textEnd := m[0], m[2], m[3]
		query := strings.TrimSpace(content[textStart:textEnd]) + ";"
		line := strings.Count(content[:start], "\n") + 1
		out = append(out, QueryText{Line: line, SQL: query})
	}
	return out
}
