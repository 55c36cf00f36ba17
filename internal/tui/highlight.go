// internal/tui/highlight.go
package tui

import (
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// HighlightSQL colorizes plain SQL for read-only surfaces (result header,
// history previews). Returns the input unchanged if highlighting fails.
func HighlightSQL(sql string) string {
	var b strings.Builder
	if err := quick.Highlight(&b, sql, "sql", "terminal256", "nord"); err != nil {
		return sql
	}
	return strings.TrimRight(b.String(), "\n")
}

var editorKeywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "AND": true, "OR": true,
	"INSERT": true, "INTO": true, "VALUES": true, "UPDATE": true, "SET": true,
	"DELETE": true, "CREATE": true, "TABLE": true, "DROP": true, "ALTER": true,
	"JOIN": true, "LEFT": true, "RIGHT": true, "INNER": true, "OUTER": true,
	"ON": true, "AS": true, "ORDER": true, "BY": true, "GROUP": true,
	"HAVING": true, "LIMIT": true, "OFFSET": true, "DISTINCT": true,
	"NULL": true, "NOT": true, "IN": true, "LIKE": true, "BETWEEN": true,
	"IS": true, "TRUE": true, "FALSE": true, "ASC": true, "DESC": true,
	"UNION": true, "ALL": true, "EXISTS": true, "CASE": true, "WHEN": true,
	"THEN": true, "ELSE": true, "END": true, "WITH": true, "RECURSIVE": true,
	"RETURNING": true, "EXPLAIN": true, "ANALYZE": true, "SHOW": true,
	"PRAGMA": true, "COUNT": true, "SUM": true, "AVG": true, "MIN": true,
	"MAX": true,
}

// Foreground-only codes: resetting just the foreground leaves the
// textarea's own attributes alone.
const (
	fgKeyword = "\x1b[38;5;110m"
	fgNumber  = "\x1b[38;5;146m"
	fgString  = "\x1b[38;5;150m"
	fgStar    = "\x1b[38;5;180m"
	fgReset   = "\x1b[39m"
)

// highlightEditor colorizes the rendered textarea view. The view already
// carries cursor and styling escapes, so chroma cannot run over it; this
// pass copies existing escape sequences through untouched and colors only
// the SQL tokens between them.
func highlightEditor(text string) string {
	var b strings.Builder
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '\x1b':
			j := ansiEnd(text, i)
			b.WriteString(text[i:j])
			i = j
		case c == '*':
			b.WriteString(fgStar)
			b.WriteByte('*')
			b.WriteString(fgReset)
			i++
		case c == '\'' || c == '"':
			j := literalEnd(text, i)
			b.WriteString(fgString)
			b.WriteString(text[i:j])
			b.WriteString(fgReset)
			i = j
		case c >= '0' && c <= '9':
			j := i
			for j < len(text) && (text[j] >= '0' && text[j] <= '9' || text[j] == '.') {
				j++
			}
			b.WriteString(fgNumber)
			b.WriteString(text[i:j])
			b.WriteString(fgReset)
			i = j
		case isWordByte(c):
			j := i
			for j < len(text) && isWordByte(text[j]) {
				j++
			}
			word := text[i:j]
			if editorKeywords[strings.ToUpper(word)] {
				b.WriteString(fgKeyword)
				b.WriteString(word)
				b.WriteString(fgReset)
			} else {
				b.WriteString(word)
			}
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// ansiEnd returns the index just past the escape sequence starting at i.
func ansiEnd(s string, i int) int {
	j := i + 1
	if j < len(s) && s[j] == '[' {
		j++
		for j < len(s) && !isAlphaByte(s[j]) {
			j++
		}
		if j < len(s) {
			j++
		}
	}
	return j
}

// literalEnd returns the index just past the quoted literal starting at i.
func literalEnd(s string, i int) int {
	quote := s[i]
	j := i + 1
	for j < len(s) && s[j] != quote {
		j++
	}
	if j < len(s) {
		j++
	}
	return j
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

func isAlphaByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
