// Package proofread asks a fixed evaluation model to review one translated
// page. It never touches the resident translation model.
package proofread

import "context"

// Issue is a single problem found in a translation.
type Issue struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
}

type Result struct {
	HasIssues     bool    `json:"has_issues"`
	CorrectedText string  `json:"corrected_text"`
	Issues        []Issue `json:"issues"`
}

type Proofreader interface {
	Proofread(ctx context.Context, original, translated string, page int) (*Result, error)
}
