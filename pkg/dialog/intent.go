package dialog

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// FallbackIntent is returned when no table entry matches.
const FallbackIntent = "fallback"

// IntentEntry pairs an intent label with its ordered trigger substrings.
type IntentEntry struct {
	Intent   string   `yaml:"intent"   json:"intent"`
	Patterns []string `yaml:"patterns" json:"patterns"`
}

// IntentTable is an ordered list of intents. Order is semantic: the first
// entry whose first matching pattern appears in the message wins, so more
// specific entries (e.g. "no preference", "$$$") must precede the entries
// they would otherwise shadow ("no", "$").
type IntentTable []IntentEntry

// Resolve maps a free-text message to an intent label by substring
// containment over the normalized message. Ties break by table order.
func (t IntentTable) Resolve(message string) string {
	msg := Normalize(message)
	for _, entry := range t {
		for _, pattern := range entry.Patterns {
			if strings.Contains(msg, pattern) {
				return entry.Intent
			}
		}
	}
	return FallbackIntent
}

// Normalize lowercases and NFKC-normalizes a message, collapsing unicode
// whitespace so token splitting behaves on pasted input.
func Normalize(text string) string {
	text = norm.NFKC.String(text)
	text = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, text)
	return strings.ToLower(strings.TrimSpace(text))
}

// Tokenize splits a normalized message into whitespace-separated tokens.
func Tokenize(normalized string) []string {
	return strings.Fields(normalized)
}
