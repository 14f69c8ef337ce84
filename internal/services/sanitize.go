package services

import (
	"html"
	"regexp"
	"strings"
)

// linkRunRe matches a run of anchors and bare URLs with the blanks around it.
var linkRunRe = regexp.MustCompile(`[ \t]*(?:(?:(?is:<a\b[^>]*>.*?</a\s*>)|(?i:\b(?:https?|ftp)://[^\s<>"']+))[ \t]*)+`)

// SanitizeDescription strips links from a collection description and escapes
// any remaining markup so it renders as text. Line breaks are kept.
func SanitizeDescription(description string) string {
	var b strings.Builder
	last := 0
	for _, m := range linkRunRe.FindAllStringIndex(description, -1) {
		b.WriteString(description[last:m[0]])
		// Keep one space only where the link sat between two words on a line.
		if m[0] > 0 && m[1] < len(description) && !isLineEdge(description[m[0]-1]) && !isLineEdge(description[m[1]]) {
			b.WriteByte(' ')
		}
		last = m[1]
	}
	b.WriteString(description[last:])
	return html.EscapeString(strings.TrimSpace(b.String()))
}

func isLineEdge(c byte) bool {
	return c == '\n' || c == '\r'
}
