package detector

import (
	"testing"

	lingua "github.com/pemistahl/lingua-go"
)

func TestDetector_Detect(t *testing.T) {
	d := New("en", "ja", "uk", "zh")

	tests := []struct {
		name     string
		text     string
		wantLang lingua.Language
		wantOK   bool
	}{
		{"empty text", "", lingua.Unknown, false},
		{"blank text", "   \n", lingua.Unknown, false},
		{"english", "The spindle must be stopped before changing the tool holder.", lingua.English, true},
		{"japanese", "工具ホルダーを交換する前に、主軸を停止してください。", lingua.Japanese, true},
		{"ukrainian", "Перед заміною тримача інструменту зупиніть шпиндель.", lingua.Ukrainian, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lang, ok := d.Detect(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("Detect(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if tt.wantOK && lang != tt.wantLang {
				t.Errorf("Detect(%q) = %v, want %v", tt.text, lang, tt.wantLang)
			}
		})
	}
}

func TestDetector_DetectISO(t *testing.T) {
	d := New("en", "ja")

	code, ok := d.DetectISO("工具ホルダーを交換する前に、主軸を停止してください。")
	if !ok || code != "ja" {
		t.Errorf("DetectISO = (%q, %v), want (ja, true)", code, ok)
	}

	if _, ok := d.DetectISO(""); ok {
		t.Error("expected no result for empty text")
	}
}

func TestLanguages(t *testing.T) {
	langs := Languages("EN", "ja", "en", "xx", "")
	if len(langs) != 2 {
		t.Fatalf("Languages = %v, want English and Japanese", langs)
	}
	if langs[0] != lingua.English || langs[1] != lingua.Japanese {
		t.Errorf("Languages = %v", langs)
	}
}

func TestNew_FallsBackToAllLanguages(t *testing.T) {
	d := New("en")
	lang, ok := d.Detect("Hallo, das ist ein längerer Test auf Deutsch für die Erkennung.")
	if !ok || lang != lingua.German {
		t.Errorf("Detect = (%v, %v), want German from the full language set", lang, ok)
	}
}

func TestLanguageName(t *testing.T) {
	tests := map[string]string{
		"en":    "English",
		"ja":    "Japanese",
		"uk":    "Ukrainian",
		"xx-!!": "xx-!!",
	}
	for code, want := range tests {
		if got := LanguageName(code); got != want {
			t.Errorf("LanguageName(%q) = %q, want %q", code, got, want)
		}
	}
}
