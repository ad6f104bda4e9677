// Package detector identifies the language of a piece of text.
package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a detector restricted to the given ISO 639-1 codes. Unknown
// codes are ignored; with fewer than two usable codes every language lingua
// knows is considered. Building is expensive, so share the instance.
func New(isoCodes ...string) *Detector {
	langs := Languages(isoCodes...)

	var builder lingua.LanguageDetectorBuilder
	if len(langs) >= 2 {
		builder = lingua.NewLanguageDetectorBuilder().FromLanguages(langs...)
	} else {
		builder = lingua.NewLanguageDetectorBuilder().FromAllLanguages()
	}

	return &Detector{detector: builder.Build()}
}

// Languages resolves ISO 639-1 codes, case-insensitively and without
// duplicates.
func Languages(isoCodes ...string) []lingua.Language {
	seen := map[lingua.Language]bool{}
	var out []lingua.Language
	for _, code := range isoCodes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		for _, lang := range lingua.AllLanguages() {
			if strings.EqualFold(lang.IsoCode639_1().String(), code) && !seen[lang] {
				seen[lang] = true
				out = append(out, lang)
			}
		}
	}
	return out
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if strings.TrimSpace(text) == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// DetectISO returns the lower-case ISO 639-1 code of text.
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

// LanguageName returns the English name of an ISO code, or the code itself
// when it does not parse. Prompts name languages this way.
func LanguageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}
