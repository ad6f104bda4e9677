package cmd

import (
	"testing"

	"github.com/valpere/pagetran/internal/config"
	"github.com/valpere/pagetran/internal/model"
)

func TestDecodePages(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"object", `{"pages": [{"page": 1, "text": "a"}, {"page": 2, "text": "b"}]}`, 2},
		{"array", ` [{"page": 1, "text": "a"}]`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, err := decodePages([]byte(tt.input))
			if err != nil {
				t.Fatalf("decodePages: %v", err)
			}
			if len(pages) != tt.want || pages[0].Text != "a" {
				t.Errorf("pages = %+v", pages)
			}
		})
	}

	if _, err := decodePages([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 8, "this is…"},
		{"🇯🇵🇺🇦🇬🇧", 2, "🇯🇵…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestCatalogFromConfig(t *testing.T) {
	c := &config.Config{Tiers: map[string]config.TierConfig{
		"high":     {Model: "qwen3:32b"},
		"balanced": {Model: "qwen2.5:7b-instruct"},
		"fast":     {Model: "qwen2.5:3b-instruct"},
	}}
	cat := catalog(c)
	if cat[model.TierHigh].Model != "qwen3:32b" {
		t.Errorf("high model = %q", cat[model.TierHigh].Model)
	}
	if got := cat[model.TierBalanced].Description; got != model.DefaultCatalog()[model.TierBalanced].Description {
		t.Errorf("unchanged tier description = %q", got)
	}
	if cat[model.TierFast].Options.MaxTokens != 512 {
		t.Errorf("fast options = %+v", cat[model.TierFast].Options)
	}
}
