package utils

import (
	"strings"
	"time"
	"unicode"

	"github.com/goombaio/namegenerator"
)

// GenerateSessionLabel creates a random, memorable label for a merge session, like "wispy-dust"
func GenerateSessionLabel() string {
	seed := time.Now().UTC().UnixNano()
	name := namegenerator.NewNameGenerator(seed).Generate()

	// Some names have underscores; convert to hyphens for consistency
	return strings.ReplaceAll(name, "_", "-")
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}

// SingleLine collapses whitespace runs, newlines included, into single spaces
func SingleLine(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			if !space {
				b.WriteRune(' ')
			}
			space = true
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
