// Package model owns the quality-tier models and keeps at most one of them
// resident at a time.
package model

import "context"

// GenerateRequest is one completion call against a resident model.
type GenerateRequest struct {
	System  string
	Prompt  string
	Format  string
	Options GenerationOptions
}

// Model is a loaded model ready for inference.
type Model interface {
	ID() string
	Tier() Tier
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Backend loads and releases model weights. Load must not return until the
// model can serve requests.
type Backend interface {
	Load(ctx context.Context, spec TierSpec) (Model, error)
	Unload(ctx context.Context, m Model) error
}
