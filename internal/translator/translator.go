// Package translator turns one page of source text into a translated page
// using whichever model is currently resident.
package translator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/valpere/pagetran/internal"
	"github.com/valpere/pagetran/internal/apperrors"
	"github.com/valpere/pagetran/internal/chunker"
	"github.com/valpere/pagetran/internal/detector"
	"github.com/valpere/pagetran/internal/glossary"
	"github.com/valpere/pagetran/internal/logger"
	"github.com/valpere/pagetran/internal/model"
	"github.com/valpere/pagetran/internal/placeholder"
	"github.com/valpere/pagetran/internal/postprocess"
	"github.com/valpere/pagetran/internal/store"
)

var errEmptyTranslation = errors.New("model returned an empty translation")

// Cache is the translation memory. *store.Store satisfies it.
type Cache interface {
	GetCachedTranslation(ctx context.Context, key store.MemoryKey) (string, bool, error)
	SaveToMemory(ctx context.Context, key store.MemoryKey, translatedText string) error
}

// LanguageChecker flags output that is not in the target language.
type LanguageChecker interface {
	Check(translatedText, targetLang string) error
}

type Options struct {
	SourceLang    string
	TargetLang    string
	MaxChunkChars int
	ContextWords  int
	ProtectMarkup bool
	// DocumentContext is a short description of the document given to the
	// model with every full-page request.
	DocumentContext string
}

type PageTranslator struct {
	opts       Options
	sourceName string
	targetName string
	bullet     string
	cache      Cache
	checker    LanguageChecker
}

func NewPageTranslator(opts Options) *PageTranslator {
	if opts.ContextWords <= 0 {
		opts.ContextWords = chunker.DefaultContextWords
	}
	if opts.DocumentContext == "" {
		opts.DocumentContext = "Equipment specification document"
	}
	bullet := "•"
	if strings.EqualFold(opts.TargetLang, "ja") {
		bullet = "・"
	}
	return &PageTranslator{
		opts:       opts,
		sourceName: detector.LanguageName(opts.SourceLang),
		targetName: detector.LanguageName(opts.TargetLang),
		bullet:     bullet,
	}
}

func (t *PageTranslator) WithCache(c Cache) *PageTranslator {
	t.cache = c
	return t
}

func (t *PageTranslator) WithChecker(c LanguageChecker) *PageTranslator {
	t.checker = c
	return t
}

// Translate translates the full page text and then every section on its
// own. Any failure is returned as a *apperrors.PageError for the page.
func (t *PageTranslator) Translate(ctx context.Context, mdl model.Model, page internal.Page, terms glossary.Terms) (internal.PageBody, error) {
	body := internal.PageBody{Sections: make([]internal.TranslatedSection, 0, len(page.Sections))}

	text, warnings, err := t.translateText(ctx, mdl, page.Text, terms, t.opts.DocumentContext)
	if err != nil {
		return internal.PageBody{}, &apperrors.PageError{Page: page.Page, Err: err}
	}
	body.Text = text
	body.Warnings = append(body.Warnings, warnings...)

	if t.checker != nil && text != "" {
		if err := t.checker.Check(text, t.opts.TargetLang); err != nil {
			logger.Warn("Translation language check failed", "page", page.Page, "error", err)
			body.Warnings = append(body.Warnings, "language check: "+err.Error())
		}
	}

	for _, sec := range page.Sections {
		sectionContext := fmt.Sprintf("Page %d, section %d", page.Page, sec.Metadata.Index+1)
		translated, warnings, err := t.translateText(ctx, mdl, sec.Text, terms, sectionContext)
		if err != nil {
			return internal.PageBody{}, &apperrors.PageError{
				Page: page.Page,
				Err:  fmt.Errorf("section %d: %w", sec.Metadata.Index, err),
			}
		}
		body.Warnings = append(body.Warnings, warnings...)
		body.Sections = append(body.Sections, internal.TranslatedSection{
			Original:   sec.Text,
			Translated: translated,
			Metadata:   sec.Metadata,
		})
	}

	return body, nil
}

func (t *PageTranslator) translateText(ctx context.Context, mdl model.Model, text string, terms glossary.Terms, docContext string) (string, []string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil, nil
	}

	key := store.MemoryKey{
		SourceText: text,
		SourceLang: t.opts.SourceLang,
		TargetLang: t.opts.TargetLang,
		Model:      mdl.ID(),
		PromptHash: t.promptHash(terms, docContext),
	}
	if t.cache != nil {
		cached, ok, err := t.cache.GetCachedTranslation(ctx, key)
		if err != nil {
			logger.Warn("Translation memory lookup failed", "error", err)
		} else if ok {
			return cached, nil, nil
		}
	}

	var warnings []string
	protected := placeholder.Protected{Text: text}
	if t.opts.ProtectMarkup {
		protected = placeholder.Protect(text)
	}

	chunks := chunker.Chunk(protected.Text, t.opts.MaxChunkChars)
	parts := make([]string, 0, len(chunks))
	previous := ""
	for _, chunk := range chunks {
		out, err := mdl.Generate(ctx, model.GenerateRequest{
			System: buildSystemPrompt(t.sourceName, t.targetName),
			Prompt: buildPrompt(promptInput{
				SourceName: t.sourceName,
				TargetName: t.targetName,
				Text:       chunk,
				Context:    docContext,
				Previous:   previous,
				Terms:      terms,
				Markers:    protected.Len() > 0,
			}),
		})
		if err != nil {
			return "", nil, fmt.Errorf("model %s: %w", mdl.ID(), err)
		}
		out = postprocess.StripLabel(postprocess.Clean(out), t.targetName)
		if out == "" {
			return "", nil, errEmptyTranslation
		}
		parts = append(parts, out)
		if len(chunks) > 1 {
			previous = chunker.ExtractContext(chunk, t.opts.ContextWords)
		}
	}

	result := strings.Join(parts, "\n\n")
	if protected.Len() > 0 {
		if missing := protected.Missing(result); len(missing) > 0 {
			warnings = append(warnings, fmt.Sprintf("model dropped %d protected span(s)", len(missing)))
		}
		result = protected.Restore(result)
	}
	result = postprocess.FixGlyphs(result, t.bullet)

	// Only clean results are remembered; a retry may do better.
	if t.cache != nil && len(warnings) == 0 {
		if err := t.cache.SaveToMemory(ctx, key, result); err != nil {
			logger.Warn("Translation memory save failed", "error", err)
		}
	}
	return result, warnings, nil
}

// promptHash fingerprints the prompt inputs other than the text itself.
func (t *PageTranslator) promptHash(terms glossary.Terms, docContext string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%t\x00%d\x00%d",
		terms.Fingerprint(), docContext, t.opts.ProtectMarkup, t.opts.MaxChunkChars, t.opts.ContextWords)
	return hex.EncodeToString(h.Sum(nil))[:16]
}
