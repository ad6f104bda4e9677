// Package chunker splits very long page text into pieces a model can
// translate in one call, and extracts a short tail of the previous piece
// to carry context across the cut.
package chunker

import (
	"strings"
	"unicode"
)

const (
	DefaultContextWords = 25
	// maxContextRunes bounds context for scripts without word spaces.
	maxContextRunes = 120
)

// Chunk splits text into pieces of at most maxChars runes. Cuts prefer, in
// order: a blank line, the end of a sentence, whitespace, and finally a
// hard cut. maxChars <= 0 disables splitting.
func Chunk(text string, maxChars int) []string {
	runes := []rune(text)
	if maxChars <= 0 || len(runes) <= maxChars {
		return []string{text}
	}

	var chunks []string
	for len(runes) > maxChars {
		cut := findCut(runes[:maxChars])
		if piece := strings.TrimSpace(string(runes[:cut])); piece != "" {
			chunks = append(chunks, piece)
		}
		runes = []rune(strings.TrimSpace(string(runes[cut:])))
	}
	if rest := strings.TrimSpace(string(runes)); rest != "" {
		chunks = append(chunks, rest)
	}
	return chunks
}

// findCut returns the rune count to take from window.
func findCut(window []rune) int {
	n := len(window)

	for i := n - 1; i > 0; i-- {
		if window[i] == '\n' && window[i-1] == '\n' {
			return i + 1
		}
	}

	for i := n - 1; i > 0; i-- {
		if isFullStop(window[i]) {
			return i + 1
		}
		if isSentenceEnd(window[i]) && i+1 < n && unicode.IsSpace(window[i+1]) {
			return i + 1
		}
	}

	for i := n - 1; i > 0; i-- {
		if unicode.IsSpace(window[i]) {
			return i
		}
	}

	return n
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// CJK full stops end a sentence without a following space.
func isFullStop(r rune) bool {
	return r == '。' || r == '！' || r == '？'
}

// ExtractContext returns the last wordCount words of text. Text written
// without spaces falls back to its last maxContextRunes runes.
func ExtractContext(text string, wordCount int) string {
	if wordCount <= 0 {
		wordCount = DefaultContextWords
	}
	words := strings.Fields(text)
	if len(words) > wordCount {
		words = words[len(words)-wordCount:]
	}
	out := strings.Join(words, " ")
	if r := []rune(out); len(words) == 1 && len(r) > maxContextRunes {
		out = string(r[len(r)-maxContextRunes:])
	}
	return out
}
