package export

import (
	"html"
	"regexp"
	"strings"
)

var (
	htmlTagRe     = regexp.MustCompile(`<[^>]+>`)
	illegalCharRe = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]|[\x{80}-\x{9f}]`)
)

// CleanCell normalizes catalog text for a spreadsheet cell: HTML entities
// are unescaped, markup stripped, control characters the xlsx format
// rejects removed, and whitespace runs collapsed to single spaces.
func CleanCell(s string) string {
	if s == "" {
		return s
	}
	s = html.UnescapeString(s)
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = illegalCharRe.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
