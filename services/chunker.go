package services

import (
	"fmt"
	"unicode/utf8"
)

// DefaultMaxChunkSize is the chunk window used when none is configured.
const DefaultMaxChunkSize = 5000

// SplitText splits text into non-overlapping windows of at most maxChars
// bytes. Chunks cover the input exactly once, in order, with no gaps.
// A window boundary that would land inside a multi-byte rune is snapped back
// to the rune start, so every chunk is valid UTF-8 on its own. Deterministic
// for a given input.
//
// A non-positive maxChars is a programming error, not a runtime condition.
func SplitText(text string, maxChars int) []string {
	if maxChars <= 0 {
		panic(fmt.Sprintf("SplitText: maxChars must be positive, got %d", maxChars))
	}
	if len(text) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(text)+maxChars-1)/maxChars)
	for start := 0; start < len(text); {
		end := start + maxChars
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		for end > start && !utf8.RuneStart(text[end]) {
			end--
		}
		if end == start {
			// Only reachable for maxChars smaller than one rune; take the
			// byte window as-is rather than loop forever.
			end = start + maxChars
		}
		chunks = append(chunks, text[start:end])
		start = end
	}
	return chunks
}
