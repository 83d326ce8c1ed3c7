package agent

import (
	"strings"
	"unicode/utf8"

	"github.com/teilomillet/gmail-agent/config"
)

// formatResponse applies the configured response shaping. With the zero
// config the text is returned unchanged.
func formatResponse(text string, cfg config.ResponseFormattingConfig) string {
	if cfg.TrimWhitespace {
		text = strings.TrimSpace(text)
	}
	if cfg.MaxLength > 0 && len(text) > cfg.MaxLength {
		cut := cfg.MaxLength
		// Never split a multi-byte rune.
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}
