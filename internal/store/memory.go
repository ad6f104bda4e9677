package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// MemoryKey identifies a cached translation. The same text translated by a
// different model or from a different prompt is a different entry.
type MemoryKey struct {
	SourceText string
	SourceLang string
	TargetLang string
	Model      string
	// PromptHash covers everything else that shapes the prompt: glossary,
	// document context and markup/chunking settings.
	PromptHash string
}

// MemoryEntry is a row from the translation_memory table.
type MemoryEntry struct {
	ID             string
	SourceText     string
	SourceLang     string
	TargetLang     string
	Model          string
	PromptHash     string
	TranslatedText string
	UsageCount     int
	LastUsed       time.Time
}

// CacheStats summarises translation memory usage.
type CacheStats struct {
	TotalEntries int
	TotalUsage   int
	Models       int
}

func (s *Store) GetCachedTranslation(ctx context.Context, key MemoryKey) (string, bool, error) {
	var id, text string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, translated_text FROM translation_memory
		 WHERE source_text = ? AND source_lang = ? AND target_lang = ? AND model = ? AND prompt_hash = ?`,
		normalizeText(key.SourceText), key.SourceLang, key.TargetLang, key.Model, key.PromptHash).Scan(&id, &text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ? WHERE id = ?`,
		time.Now(), id)
	return text, true, err
}

func (s *Store) SaveToMemory(ctx context.Context, key MemoryKey, translatedText string) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translation_memory
		 (id, source_text, source_lang, target_lang, model, prompt_hash, translated_text, usage_count, last_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		 ON CONFLICT(source_text, source_lang, target_lang, model, prompt_hash)
		 DO UPDATE SET translated_text = excluded.translated_text, last_used = excluded.last_used`,
		uuid.NewString(), normalizeText(key.SourceText), key.SourceLang, key.TargetLang,
		key.Model, key.PromptHash, translatedText, now, now)
	return err
}

// DeleteMemory removes one entry and reports whether it existed.
func (s *Store) DeleteMemory(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ClearMemory removes all translation memory entries.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListMemory returns entries ordered by most recently used.
func (s *Store) ListMemory(ctx context.Context) ([]MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_text, source_lang, target_lang, model, prompt_hash, translated_text, usage_count, last_used
		 FROM translation_memory ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MemoryEntry
	for rows.Next() {
		var e MemoryEntry
		if err := rows.Scan(&e.ID, &e.SourceText, &e.SourceLang, &e.TargetLang, &e.Model,
			&e.PromptHash, &e.TranslatedText, &e.UsageCount, &e.LastUsed); err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(usage_count), 0),
			COUNT(DISTINCT model)
		FROM translation_memory`).Scan(
		&stats.TotalEntries,
		&stats.TotalUsage,
		&stats.Models,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
