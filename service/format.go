package service

import (
	"strings"
)

// WhatsAppPlainText derives the plain-text form of a WhatsApp message
// by removing the two formatting markers (* and _). Nothing else is
// altered; this is a character strip, not a markdown parser.
func WhatsAppPlainText(formatted string) string {
	return strings.Map(func(r rune) rune {
		if r == '*' || r == '_' {
			return -1
		}
		return r
	}, formatted)
}

const maxTitleLen = 48

// DeriveTitle builds a report title from generated LinkedIn content:
// the first non-empty line, stripped of leading markers and hashes,
// truncated on a rune boundary.
func DeriveTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "#*_•- ")
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > maxTitleLen {
			return strings.TrimSpace(string(runes[:maxTitleLen])) + "…"
		}
		return line
	}
	return "Untitled report"
}
