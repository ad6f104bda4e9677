package validator

import (
	"strings"
	"testing"

	"github.com/valpere/pagetran/internal/detector"
)

var det = detector.New("en", "ja", "uk")

func TestCheck(t *testing.T) {
	v := New(det)

	english := "This is a longer piece of text that should be detected as English."
	japanese := "工具ホルダーを交換する前に、必ず主軸を停止してください。"

	tests := []struct {
		name    string
		text    string
		target  string
		wantErr string
	}{
		{"no target", english, "", ""},
		{"empty translation", "", "ja", "empty"},
		{"whitespace translation", "  \n ", "ja", "empty"},
		{"short text skipped", "Hi", "ja", ""},
		{"japanese as japanese", japanese, "ja", ""},
		{"case insensitive target", japanese, "JA", ""},
		{"english as japanese", english, "ja", "expected ja but detected en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Check(tt.text, tt.target)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Check error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
