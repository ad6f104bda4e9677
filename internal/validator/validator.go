// Package validator checks that a translation is written in the expected
// target language.
package validator

import (
	"fmt"
	"strings"

	"github.com/valpere/pagetran/internal/detector"
)

// Texts shorter than this are accepted without detection; lingua is
// unreliable on them.
const minValidationLength = 20

type Validator struct {
	det *detector.Detector
}

func New(det *detector.Detector) *Validator {
	return &Validator{det: det}
}

// Check returns an error naming both languages when translatedText is
// detected as something other than targetLang. Short or undecidable texts
// pass.
func (v *Validator) Check(translatedText, targetLang string) error {
	if targetLang == "" {
		return nil
	}

	text := strings.TrimSpace(translatedText)
	if text == "" {
		return fmt.Errorf("translation is empty")
	}
	if len([]rune(text)) < minValidationLength {
		return nil
	}

	detected, ok := v.det.DetectISO(text)
	if !ok {
		return nil
	}
	if !strings.EqualFold(detected, targetLang) {
		return fmt.Errorf("expected %s but detected %s", strings.ToLower(targetLang), detected)
	}
	return nil
}
