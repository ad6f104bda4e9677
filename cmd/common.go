/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rivo/uniseg"
	"github.com/spf13/cobra"

	"github.com/valpere/pagetran/internal/config"
	"github.com/valpere/pagetran/internal/detector"
	"github.com/valpere/pagetran/internal/glossary"
	"github.com/valpere/pagetran/internal/logger"
	"github.com/valpere/pagetran/internal/model"
	"github.com/valpere/pagetran/internal/orchestrator"
	"github.com/valpere/pagetran/internal/proofread"
	"github.com/valpere/pagetran/internal/store"
	"github.com/valpere/pagetran/internal/translator"
	"github.com/valpere/pagetran/internal/validator"
)

// app holds every component built from the loaded config.
type app struct {
	store        *store.Store
	glossary     *glossary.Store
	backend      *model.OllamaBackend
	models       *model.Manager
	orchestrator *orchestrator.Orchestrator
	proofreader  *proofread.OllamaProofreader
}

func initLogging(lc config.LogConfig) error {
	level := logger.ParseLevel(lc.Level)
	if lc.File == "" {
		logger.Init(level, os.Stderr, nil)
		return nil
	}
	f, err := os.OpenFile(lc.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f
	logger.Init(level, os.Stderr, f)
	return nil
}

func openStore(c *config.Config) (*store.Store, error) {
	path := c.DB.Path
	if dir := filepath.Dir(path); path != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func openGlossary(c *config.Config) (*store.Store, *glossary.Store, error) {
	db, err := openStore(c)
	if err != nil {
		return nil, nil, err
	}
	return db, glossary.New(db, c.Languages.Source, c.Languages.Target), nil
}

func catalog(c *config.Config) model.Catalog {
	overrides := make(map[model.Tier]string, len(c.Tiers))
	for name, tc := range c.Tiers {
		overrides[model.Tier(name)] = tc.Model
	}
	return model.DefaultCatalog().WithModels(overrides)
}

func newApp(c *config.Config) (*app, error) {
	policy, err := orchestrator.ParseFailurePolicy(c.Translate.FailurePolicy)
	if err != nil {
		return nil, err
	}

	db, gloss, err := openGlossary(c)
	if err != nil {
		return nil, err
	}

	backend := model.NewOllamaBackend(c.Ollama.URL, c.Ollama.Timeout)
	models := model.NewManager(backend, catalog(c))

	tr := translator.NewPageTranslator(translator.Options{
		SourceLang:    c.Languages.Source,
		TargetLang:    c.Languages.Target,
		MaxChunkChars: c.Translate.MaxChunkChars,
		ProtectMarkup: c.Translate.ProtectMarkup,
	})
	if c.Translate.Cache {
		tr.WithCache(db)
	}
	if c.Translate.ValidateLanguage {
		tr.WithChecker(validator.New(detector.New(c.Languages.Source, c.Languages.Target)))
	}

	orch := orchestrator.New(models, tr, gloss, orchestrator.Config{
		FailurePolicy: policy,
		PageTimeout:   c.Translate.PageTimeout,
	})

	return &app{
		store:        db,
		glossary:     gloss,
		backend:      backend,
		models:       models,
		orchestrator: orch,
		proofreader:  proofread.NewOllamaProofreader(backend, c.Proofread.Model, c.Languages.Source, c.Languages.Target),
	}, nil
}

// Close releases the database and, once no job is active, the resident
// model.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if st := a.orchestrator.Current().Status; st.Active() {
		logger.Warn("Job still running; leaving model loaded", "status", st)
	} else if err := a.models.Unload(ctx); err != nil {
		logger.Warn("Failed to unload model", "error", err)
	}
	if err := a.store.Close(); err != nil {
		logger.Warn("Failed to close database", "error", err)
	}
}

func signalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("Cancellation requested")
			cancel()
		case <-ctx.Done():
		}
	}()
	stop := func() {
		signal.Stop(sigCh)
		cancel()
	}
	return ctx, stop
}

// flagOr returns the flag's value when it was set, otherwise fallback.
func flagOr(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		if val, err := cmd.Flags().GetString(name); err == nil {
			return val
		}
	}
	return fallback
}

// truncate shortens s to at most n grapheme clusters for table output.
func truncate(s string, n int) string {
	if uniseg.GraphemeClusterCount(s) <= n {
		return s
	}
	var out []byte
	g := uniseg.NewGraphemes(s)
	for i := 0; i < n-1 && g.Next(); i++ {
		out = append(out, g.Bytes()...)
	}
	return string(out) + "…"
}
