package store

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// GlossaryEntry represents a row in the glossary table.
type GlossaryEntry struct {
	Seq        int64
	SourceLang string
	TargetLang string
	SourceTerm string
	TargetTerm string
	UpdatedAt  time.Time
}

// UpsertGlossaryTerm inserts a term or overwrites the target of an existing
// one. Overwriting keeps the entry's original position.
func (s *Store) UpsertGlossaryTerm(ctx context.Context, sourceLang, targetLang, sourceTerm, targetTerm string) error {
	_, err := s.db.ExecContext(ctx, upsertGlossarySQL,
		sourceLang, targetLang, sourceTerm, targetTerm, time.Now())
	return err
}

const upsertGlossarySQL = `
	INSERT INTO glossary (source_lang, target_lang, source_term, target_term, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(source_lang, target_lang, source_term)
	DO UPDATE SET target_term = excluded.target_term, updated_at = excluded.updated_at`

// GetGlossaryTerms returns the glossary for a language pair as a
// source-term → target-term map.
func (s *Store) GetGlossaryTerms(ctx context.Context, sourceLang, targetLang string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_term, target_term FROM glossary WHERE source_lang = ? AND target_lang = ?`,
		sourceLang, targetLang)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	terms := make(map[string]string)
	for rows.Next() {
		var src, tgt string
		if err := rows.Scan(&src, &tgt); err != nil {
			return nil, err
		}
		terms[src] = tgt
	}
	return terms, rows.Err()
}

// ListGlossaryTerms returns the entries of a language pair in insertion order.
func (s *Store) ListGlossaryTerms(ctx context.Context, sourceLang, targetLang string) ([]GlossaryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, source_lang, target_lang, source_term, target_term, updated_at
		 FROM glossary WHERE source_lang = ? AND target_lang = ? ORDER BY seq`,
		sourceLang, targetLang)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []GlossaryEntry
	for rows.Next() {
		var e GlossaryEntry
		if err := rows.Scan(&e.Seq, &e.SourceLang, &e.TargetLang, &e.SourceTerm, &e.TargetTerm, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ReplaceGlossary makes terms the complete glossary of a language pair in
// one transaction. Terms that survive keep their position; new terms are
// appended in source-term order.
func (s *Store) ReplaceGlossary(ctx context.Context, sourceLang, targetLang string, terms map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT source_term FROM glossary WHERE source_lang = ? AND target_lang = ?`,
		sourceLang, targetLang)
	if err != nil {
		return err
	}
	var stale []string
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			rows.Close()
			return err
		}
		if _, keep := terms[src]; !keep {
			stale = append(stale, src)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, src := range stale {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM glossary WHERE source_lang = ? AND target_lang = ? AND source_term = ?`,
			sourceLang, targetLang, src); err != nil {
			return fmt.Errorf("failed to delete term %q: %w", src, err)
		}
	}

	keys := make([]string, 0, len(terms))
	for src := range terms {
		keys = append(keys, src)
	}
	sort.Strings(keys)

	now := time.Now()
	for _, src := range keys {
		if _, err := tx.ExecContext(ctx, upsertGlossarySQL,
			sourceLang, targetLang, src, terms[src], now); err != nil {
			return fmt.Errorf("failed to save term %q: %w", src, err)
		}
	}

	return tx.Commit()
}

// DeleteGlossaryTerm removes a term and reports whether it existed.
func (s *Store) DeleteGlossaryTerm(ctx context.Context, sourceLang, targetLang, sourceTerm string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM glossary WHERE source_lang = ? AND target_lang = ? AND source_term = ?`,
		sourceLang, targetLang, sourceTerm)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
