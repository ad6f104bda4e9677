// Package document validates client supplied pages and derives sections from
// raw page text.
package document

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/valpere/pagetran/internal"
	"github.com/valpere/pagetran/internal/apperrors"
	"github.com/valpere/pagetran/internal/postprocess"
)

const maxHeadingRunes = 80

var listMarkers = []string{"-", "•", "・", "○", "●"}

// Normalize returns a copy of pages sorted by page number.
func Normalize(pages []internal.Page) ([]internal.Page, error) {
	if len(pages) == 0 {
		return nil, apperrors.Validation("no pages provided")
	}
	out := make([]internal.Page, len(pages))
	copy(out, pages)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Page < out[j].Page })

	for i, p := range out {
		if p.Page <= 0 {
			return nil, apperrors.Validation("invalid page number %d: pages start at 1", p.Page)
		}
		if i > 0 && out[i-1].Page == p.Page {
			return nil, apperrors.Validation("duplicate page number %d", p.Page)
		}
	}
	return out, nil
}

// Segment splits page text on blank lines into sections and flags headings
// and list items.
func Segment(text string) []internal.Section {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	sections := []internal.Section{}
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		sections = append(sections, internal.Section{
			Text: para,
			Metadata: internal.SectionMetadata{
				Index:     len(sections),
				IsHeading: isHeading(para),
				IsList:    isListItem(para),
				Length:    utf8.RuneCountInString(para),
			},
		})
	}
	return sections
}

// WithSections repairs extraction glyphs and fills in sections for pages
// that have none.
func WithSections(pages []internal.Page) []internal.Page {
	out := make([]internal.Page, len(pages))
	for i, p := range pages {
		if len(p.Sections) == 0 {
			p.Text = postprocess.FixExtracted(p.Text)
			p.Sections = Segment(p.Text)
		}
		out[i] = p
	}
	return out
}

func isHeading(text string) bool {
	if utf8.RuneCountInString(text) > maxHeadingRunes {
		return false
	}
	first, _ := utf8.DecodeRuneInString(text)
	if unicode.IsDigit(first) || isUpper(text) {
		return true
	}
	return !strings.HasSuffix(text, ".")
}

// isUpper reports whether text has cased letters and all of them are upper case.
func isUpper(text string) bool {
	cased := false
	for _, r := range text {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

func isListItem(text string) bool {
	for _, m := range listMarkers {
		if strings.HasPrefix(text, m) {
			return true
		}
	}
	return false
}
