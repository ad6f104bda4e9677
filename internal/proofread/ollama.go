package proofread

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valpere/pagetran/internal/apperrors"
	"github.com/valpere/pagetran/internal/detector"
	"github.com/valpere/pagetran/internal/logger"
	"github.com/valpere/pagetran/internal/model"
	"github.com/valpere/pagetran/internal/postprocess"
)

// Completer runs a one-off completion on a named model.
// *model.OllamaBackend satisfies it.
type Completer interface {
	Complete(ctx context.Context, name string, req model.GenerateRequest) (string, error)
}

type OllamaProofreader struct {
	client     Completer
	model      string
	sourceName string
	targetName string
}

func NewOllamaProofreader(client Completer, model, sourceLang, targetLang string) *OllamaProofreader {
	return &OllamaProofreader{
		client:     client,
		model:      model,
		sourceName: detector.LanguageName(sourceLang),
		targetName: detector.LanguageName(targetLang),
	}
}

func (p *OllamaProofreader) Proofread(ctx context.Context, original, translated string, page int) (*Result, error) {
	if strings.TrimSpace(translated) == "" {
		return nil, apperrors.Validation("translated text is required")
	}

	start := time.Now()
	response, err := p.client.Complete(ctx, p.model, model.GenerateRequest{
		Prompt: buildPrompt(original, translated, p.sourceName, p.targetName),
		Format: "json",
	})
	if err != nil {
		return nil, fmt.Errorf("proofread with %s failed: %w", p.model, err)
	}

	result, err := parseResponse(response, translated)
	if err != nil {
		return nil, err
	}
	logger.Info("Page proofread", "page", page, "model", p.model, "issues", len(result.Issues), "elapsed", time.Since(start).Round(time.Millisecond))
	return result, nil
}

func buildPrompt(original, translated, sourceName, targetName string) string {
	var sb strings.Builder
	sb.WriteString("You are a professional proofreader of technical translations.\n")
	fmt.Fprintf(&sb, "Original text in %s:\n", sourceName)
	fmt.Fprintf(&sb, "\"\"\"\n%s\n\"\"\"\n\n", original)
	fmt.Fprintf(&sb, "Translation to %s:\n", targetName)
	fmt.Fprintf(&sb, "\"\"\"\n%s\n\"\"\"\n\n", translated)
	sb.WriteString(`Check the translation for mistranslations, omissions, terminology and grammar errors.
Respond ONLY in JSON:
{
  "has_issues": true|false,
  "corrected_text": "...",
  "issues": [{"type": "mistranslation|omission|terminology|grammar|style", "description": "...", "suggestion": "..."}]
}
`)
	return sb.String()
}

func parseResponse(response, translated string) (*Result, error) {
	response = postprocess.Clean(response)

	var parsed Result
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse proofread response as JSON: %w", err)
	}

	if parsed.Issues == nil {
		parsed.Issues = []Issue{}
	}
	if len(parsed.Issues) > 0 {
		parsed.HasIssues = true
	}
	if !parsed.HasIssues || strings.TrimSpace(parsed.CorrectedText) == "" {
		parsed.CorrectedText = translated
	}
	return &parsed, nil
}
