// Package glossary manages user terminology for the configured language
// pair and hands immutable snapshots to translation jobs.
package glossary

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/valpere/pagetran/internal/apperrors"
	"github.com/valpere/pagetran/internal/store"
)

// Repository is the persistence the glossary needs. *store.Store satisfies it.
type Repository interface {
	UpsertGlossaryTerm(ctx context.Context, sourceLang, targetLang, sourceTerm, targetTerm string) error
	GetGlossaryTerms(ctx context.Context, sourceLang, targetLang string) (map[string]string, error)
	ListGlossaryTerms(ctx context.Context, sourceLang, targetLang string) ([]store.GlossaryEntry, error)
	ReplaceGlossary(ctx context.Context, sourceLang, targetLang string, terms map[string]string) error
	DeleteGlossaryTerm(ctx context.Context, sourceLang, targetLang, sourceTerm string) (bool, error)
}

// Term is one source → target pair.
type Term struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Terms maps source terms to their required translations.
type Terms map[string]string

// Sorted returns the pairs ordered by source term.
func (t Terms) Sorted() []Term {
	out := make([]Term, 0, len(t))
	for src, tgt := range t {
		out = append(out, Term{Source: src, Target: tgt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// Fingerprint identifies the content of the glossary. An empty glossary
// has an empty fingerprint.
func (t Terms) Fingerprint() string {
	if len(t) == 0 {
		return ""
	}
	h := sha256.New()
	for _, term := range t.Sorted() {
		h.Write([]byte(term.Source))
		h.Write([]byte{0})
		h.Write([]byte(term.Target))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Clone returns an independent copy.
func (t Terms) Clone() Terms {
	out := make(Terms, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Store is the glossary of one language pair.
type Store struct {
	repo       Repository
	sourceLang string
	targetLang string
}

func New(repo Repository, sourceLang, targetLang string) *Store {
	return &Store{repo: repo, sourceLang: sourceLang, targetLang: targetLang}
}

// All returns the full mapping.
func (s *Store) All(ctx context.Context) (Terms, error) {
	terms, err := s.repo.GetGlossaryTerms(ctx, s.sourceLang, s.targetLang)
	if err != nil {
		return nil, fmt.Errorf("failed to load glossary: %w", err)
	}
	return Terms(terms), nil
}

// Entries returns the pairs in display (first insertion) order.
func (s *Store) Entries(ctx context.Context) ([]Term, error) {
	rows, err := s.repo.ListGlossaryTerms(ctx, s.sourceLang, s.targetLang)
	if err != nil {
		return nil, fmt.Errorf("failed to list glossary: %w", err)
	}
	out := make([]Term, 0, len(rows))
	for _, r := range rows {
		out = append(out, Term{Source: r.SourceTerm, Target: r.TargetTerm})
	}
	return out, nil
}

// Add stores a single pair, overwriting the target of an existing source term.
func (s *Store) Add(ctx context.Context, source, target string) (Term, error) {
	term, err := validate(source, target)
	if err != nil {
		return Term{}, err
	}
	if err := s.repo.UpsertGlossaryTerm(ctx, s.sourceLang, s.targetLang, term.Source, term.Target); err != nil {
		return Term{}, fmt.Errorf("failed to save glossary term: %w", err)
	}
	return term, nil
}

// ReplaceAll makes mapping the complete glossary. Every pair is validated
// before anything is written.
func (s *Store) ReplaceAll(ctx context.Context, mapping map[string]string) (Terms, error) {
	clean := make(Terms, len(mapping))
	for src, tgt := range mapping {
		term, err := validate(src, tgt)
		if err != nil {
			return nil, err
		}
		clean[term.Source] = term.Target
	}
	if err := s.repo.ReplaceGlossary(ctx, s.sourceLang, s.targetLang, clean); err != nil {
		return nil, fmt.Errorf("failed to replace glossary: %w", err)
	}
	return clean, nil
}

// Delete removes a source term and reports whether it existed.
func (s *Store) Delete(ctx context.Context, source string) (bool, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return false, apperrors.Validation("source term is required")
	}
	ok, err := s.repo.DeleteGlossaryTerm(ctx, s.sourceLang, s.targetLang, source)
	if err != nil {
		return false, fmt.Errorf("failed to delete glossary term: %w", err)
	}
	return ok, nil
}

// Snapshot returns a copy of the glossary that later edits never affect.
func (s *Store) Snapshot(ctx context.Context) (Terms, error) {
	terms, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return terms.Clone(), nil
}

func validate(source, target string) (Term, error) {
	source = strings.TrimSpace(source)
	target = strings.TrimSpace(target)
	if source == "" || target == "" {
		return Term{}, apperrors.Validation("both source and target terms are required")
	}
	return Term{Source: source, Target: target}, nil
}
