// Package placeholder shields spans of page text that must survive
// translation verbatim (code, URLs, e-mail addresses) behind numbered
// [PHn] markers, and puts them back afterwards.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Patterns are applied in order; earlier ones win on overlap.
var patterns = []*regexp.Regexp{
	regexp.MustCompile("(?s)```.*?```"),
	regexp.MustCompile("`[^`\n]+`"),
	regexp.MustCompile(`https?://[^\s<>"')\]]+`),
	regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),
}

var markerRe = regexp.MustCompile(`\[PH(\d+)\]`)

// Protected is page text with its protected spans swapped out.
type Protected struct {
	Text      string
	originals []string
}

// Protect replaces every protected span with [PH0], [PH1], … in the order
// the patterns find them.
func Protect(text string) Protected {
	p := Protected{}
	for _, re := range patterns {
		text = re.ReplaceAllStringFunc(text, func(match string) string {
			id := fmt.Sprintf("[PH%d]", len(p.originals))
			p.originals = append(p.originals, match)
			return id
		})
	}
	p.Text = text
	return p
}

// Len reports how many spans were protected.
func (p Protected) Len() int { return len(p.originals) }

// Restore puts the original spans back into translated text. Unknown
// indices are left as they are.
func (p Protected) Restore(translated string) string {
	if len(p.originals) == 0 {
		return translated
	}
	return markerRe.ReplaceAllStringFunc(translated, func(match string) string {
		sub := markerRe.FindStringSubmatch(match)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx < 0 || idx >= len(p.originals) {
			return match
		}
		return p.originals[idx]
	})
}

// Missing returns the indices of markers the model dropped.
func (p Protected) Missing(translated string) []int {
	var missing []int
	for i := range p.originals {
		if !strings.Contains(translated, fmt.Sprintf("[PH%d]", i)) {
			missing = append(missing, i)
		}
	}
	return missing
}

// InstructionHint is appended to the prompt when text carries markers.
func InstructionHint() string {
	return "Keep every [PHn] marker exactly as it appears. Do not translate, move or remove them."
}
