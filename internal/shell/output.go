package shell

import (
	"strings"
	"unicode/utf8"
)

// Limits controls output truncation boundaries.
type Limits struct {
	MaxLines int
	MaxBytes int
}

// ApplyOutputLimits truncates text by line and byte limits. Byte truncation
// never splits a multi-byte rune.
func ApplyOutputLimits(text string, limits Limits) (out string, truncatedLines bool, truncatedBytes bool) {
	if limits.MaxLines > 0 {
		lines := strings.Split(text, "\n")
		if len(lines) > limits.MaxLines {
			lines = lines[:limits.MaxLines]
			text = strings.Join(lines, "\n")
			truncatedLines = true
		}
	}

	if limits.MaxBytes > 0 && len(text) > limits.MaxBytes {
		cut := limits.MaxBytes
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
		truncatedBytes = true
	}
	return text, truncatedLines, truncatedBytes
}
