// Package postprocess removes LLM artifacts from model output and repairs
// glyph garbage that PDF text extraction leaves behind.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean removes LLM artifacts from text and returns the trimmed result:
//  1. Thinking / reasoning block removal
//  2. Instruction echo removal (prompt leakage)
//  3. Quote wrapping removal
func Clean(text string) string {
	text = removeThinkingBlocks(text)
	text = removeInstructionEchoes(text)
	text = removeQuoteWrapping(text)
	return strings.TrimSpace(text)
}

// Go's RE2 engine has no backreferences, so each tag variant is listed.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// An opened tag with no closing tag means the model was cut off mid-thought.
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

// A closing tag with no opening tag: everything before it is reasoning.
// Qwen3 emits this when the chat template already opened the block.
var orphanCloseRe = regexp.MustCompile(
	`(?is)^.*?(?:</thinking>|</think>|</reasoning>|</reflection>)`,
)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	text = orphanCloseRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Anchored to the start and requiring a colon to avoid eating real content.
var echoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the)? (?:corrected |translated |final )?(?:translation|text)\s*:`),
	regexp.MustCompile(`(?i)^(?:the )?(?:corrected |final )?(?:translation|translated text)\s*:`),
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.!]? here(?:'s| is)(?: the)? (?:corrected |translated |final )?(?:translation|text)\s*:`),
}

func removeInstructionEchoes(text string) string {
	for _, re := range echoPatterns {
		if loc := re.FindStringIndex(text); loc != nil {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

// StripLabel removes a leading "<label>:" or "<label> translation:" line,
// which models copy from the end of the prompt.
func StripLabel(text, label string) string {
	if label == "" {
		return text
	}
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	for _, prefix := range []string{
		strings.ToLower(label) + " translation:",
		strings.ToLower(label) + ":",
	} {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(trimmed[len(prefix):])
		}
	}
	return text
}

// removeQuoteWrapping strips a matching pair of outer quotes when the whole
// text is wrapped in them. Supported pairs:
//
//	"…"  '…'  «…»  “…”  ‘…’  「…」
func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	first, last := runes[0], runes[n-1]
	if (first == '"' && last == '"') ||
		(first == '\'' && last == '\'') ||
		(first == '«' && last == '»') ||
		(first == '“' && last == '”') ||
		(first == '‘' && last == '’') ||
		(first == '「' && last == '」' && strings.Count(text, "「") == 1) {
		return strings.TrimSpace(string(runes[1 : n-1]))
	}
	return text
}

// cidGlyphs are unmapped bullet glyphs as pdf text extractors print them.
var cidGlyphs = []string{"(cid:127)", "(cid127)", "(cid:149)", "(cid149)"}

// FixGlyphs replaces unmapped bullet glyphs in model output with bullet.
// When bullet is the Japanese middle dot, ASCII bullets are unified too.
func FixGlyphs(text, bullet string) string {
	for _, g := range cidGlyphs {
		text = strings.ReplaceAll(text, g, bullet)
	}
	if bullet == "・" {
		text = strings.ReplaceAll(text, "•", bullet)
	}
	return text
}

// Extractors sometimes split a word into dot-separated letters: ・O・n・l・i・n・e・
var dottedLetterRe = regexp.MustCompile(`・([A-Za-z0-9])・\s*`)

// FixExtracted repairs extracted page text before it is segmented or
// translated.
func FixExtracted(text string) string {
	text = dottedLetterRe.ReplaceAllString(text, "$1")
	text = strings.TrimSpace(strings.Trim(text, "・"))
	return FixGlyphs(text, "・")
}
