package model

import (
	"fmt"
	"strings"

	"github.com/valpere/pagetran/internal/apperrors"
)

// Tier names a quality level. Each tier is bound to exactly one model.
type Tier string

const (
	TierHigh     Tier = "high"
	TierBalanced Tier = "balanced"
	TierFast     Tier = "fast"
)

// Tiers lists the tiers from best to fastest.
var Tiers = []Tier{TierHigh, TierBalanced, TierFast}

// ParseTier validates a client supplied tier name.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Tiers {
		if t == known {
			return t, nil
		}
	}
	return "", apperrors.Validation("invalid quality %q: must be one of high, balanced, fast", s)
}

// GenerationOptions are the sampling settings sent with every request.
type GenerationOptions struct {
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

// TierSpec binds a tier to its model and display information.
type TierSpec struct {
	Tier        Tier              `json:"-"`
	Model       string            `json:"model"`
	Description string            `json:"description"`
	Speed       string            `json:"speed"`
	Quality     string            `json:"quality"`
	Options     GenerationOptions `json:"-"`
}

type Catalog map[Tier]TierSpec

func DefaultCatalog() Catalog {
	return Catalog{
		TierHigh: {
			Tier:        TierHigh,
			Model:       "qwen3:14b",
			Description: "Highest quality - Qwen3 14B",
			Speed:       "slow",
			Quality:     "best",
			Options:     GenerationOptions{MaxTokens: 2048, Temperature: 0.1, TopP: 0.95},
		},
		TierBalanced: {
			Tier:        TierBalanced,
			Model:       "qwen2.5:7b-instruct",
			Description: "Balanced - Qwen2.5 7B",
			Speed:       "medium",
			Quality:     "high",
			Options:     GenerationOptions{MaxTokens: 1536, Temperature: 0.2, TopP: 0.9},
		},
		TierFast: {
			Tier:        TierFast,
			Model:       "qwen2.5:3b-instruct",
			Description: "Fast - Qwen2.5 3B",
			Speed:       "fast",
			Quality:     "medium",
			Options:     GenerationOptions{MaxTokens: 512, Temperature: 0.2, TopP: 0.9},
		},
	}
}

// WithModels returns a copy of the catalog with model identifiers replaced
// from overrides. Empty overrides are ignored.
func (c Catalog) WithModels(overrides map[Tier]string) Catalog {
	out := make(Catalog, len(c))
	for t, spec := range c {
		if m := strings.TrimSpace(overrides[t]); m != "" && m != spec.Model {
			spec.Model = m
			spec.Description = fmt.Sprintf("%s - %s", titleCase(string(t)), m)
		}
		out[t] = spec
	}
	return out
}

func (c Catalog) Spec(t Tier) (TierSpec, error) {
	spec, ok := c[t]
	if !ok {
		return TierSpec{}, apperrors.Validation("unknown quality tier %q", t)
	}
	return spec, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
