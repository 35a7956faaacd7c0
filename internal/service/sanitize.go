package service

import (
	"regexp"
	"strings"
)

var (
	urlPattern        = regexp.MustCompile(`(?i)\bhttps?://\S+|\bwww\.\S+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Sanitizer cleans comment bodies before they are stored: URLs are stripped,
// configured profanity terms are redacted, and whitespace is collapsed.
type Sanitizer struct {
	profanity []string
}

func NewSanitizer(profanity []string) *Sanitizer {
	words := make([]string, 0, len(profanity))
	for _, w := range profanity {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, strings.ToLower(w))
		}
	}
	return &Sanitizer{profanity: words}
}

// Clean sanitizes a comment body. The result may be empty; callers reject
// empty bodies.
func (s *Sanitizer) Clean(text string) string {
	text = urlPattern.ReplaceAllString(text, "")

	if len(s.profanity) > 0 {
		tokens := strings.Fields(text)
		for i, token := range tokens {
			normalized := strings.ToLower(strings.Trim(token, ".,!?;:\"'()"))
			for _, word := range s.profanity {
				if normalized == word {
					tokens[i] = strings.Repeat("*", len(token))
					break
				}
			}
		}
		text = strings.Join(tokens, " ")
	}

	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
