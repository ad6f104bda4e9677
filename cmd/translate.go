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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/pagetran/internal"
	"github.com/valpere/pagetran/internal/document"
	"github.com/valpere/pagetran/internal/export"
	"github.com/valpere/pagetran/internal/logger"
	"github.com/valpere/pagetran/internal/model"
	"github.com/valpere/pagetran/internal/orchestrator"
)

var (
	inputFile    string
	outputFile   string
	outputFormat string
	outputRender string
	pageFilter   []int
	segment      bool
	jsonOutput   bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate extracted PDF pages",
	Long: `Translate pages of extracted PDF text with the selected quality tier.

Input is JSON, either {"pages": [...]} or a bare array of pages:
  [{"page": 1, "text": "..."}, {"page": 2, "text": "..."}]

Press Ctrl+C to stop after the page in progress; pages translated so far
are still written.

Example:
  pagetran translate -i pages.json -o result.txt --quality fast --format both`,
	RunE: runTranslate,
}

func runTranslate(cmd *cobra.Command, args []string) error {
	tier, err := model.ParseTier(flagOr(cmd, "quality", cfg.Translate.Quality))
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	render, err := export.ParseRender(outputRender)
	if err != nil {
		return err
	}

	pages, err := readPages(inputFile)
	if err != nil {
		return err
	}
	if segment {
		pages = document.WithSections(pages)
	}

	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Translate.Cache = false
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signalContext()
	defer stop()

	start := time.Now()
	job, err := a.orchestrator.Start(ctx, pages, tier)
	if err != nil {
		return fmt.Errorf("failed to start translation: %w", err)
	}

	snap := waitWithProgress(ctx, a.orchestrator, job)
	logger.Info("Translation finished", "status", snap.Status, "pages", len(snap.Results), "elapsed", time.Since(start).Round(time.Second))

	if len(snap.Results) > 0 {
		if err := writeResults(snap.Results, format, render); err != nil {
			return err
		}
	}

	switch snap.Status {
	case orchestrator.StatusFailed:
		return fmt.Errorf("translation failed: %w", snap.Err)
	case orchestrator.StatusCancelled:
		fmt.Fprintf(os.Stderr, "Cancelled after %d of %d pages.\n", snap.CurrentPage, snap.TotalPages)
	}
	return nil
}

// waitWithProgress reports progress on stderr and turns a signal into a
// cooperative cancel; it always waits for the job to stop.
func waitWithProgress(ctx context.Context, orch *orchestrator.Orchestrator, job *orchestrator.Job) orchestrator.Snapshot {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	sigs := ctx.Done()
	last := -1
	for {
		select {
		case <-job.Done():
			p := orch.Progress()
			fmt.Fprintf(os.Stderr, "\rPage %d/%d (%.2f%%)\n", p.Current, p.Total, p.Percentage)
			return job.Snapshot()
		case <-sigs:
			sigs = nil
			if orch.Cancel() {
				fmt.Fprintln(os.Stderr, "\nStopping after the current page...")
			}
		case <-ticker.C:
			if p := orch.Progress(); p.Current != last {
				last = p.Current
				fmt.Fprintf(os.Stderr, "\rPage %d/%d (%.2f%%)", p.Current, p.Total, p.Percentage)
			}
		}
	}
}

func readPages(path string) ([]internal.Page, error) {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return decodePages(data)
}

func decodePages(data []byte) ([]internal.Page, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var pages []internal.Page
		if err := json.Unmarshal(data, &pages); err != nil {
			return nil, fmt.Errorf("failed to parse pages: %w", err)
		}
		return pages, nil
	}
	var doc struct {
		Pages []internal.Page `json:"pages"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse pages: %w", err)
	}
	return doc.Pages, nil
}

func writeResults(results []internal.TranslatedPage, format export.Format, render export.Render) error {
	var body []byte
	if jsonOutput {
		data, err := json.MarshalIndent(map[string]any{"pages": results}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
		body = append(data, '\n')
	} else {
		f, err := export.Build(export.Request{
			Pages:       results,
			Format:      format,
			PageNumbers: pageFilter,
			Render:      render,
		}, time.Now())
		if err != nil {
			return err
		}
		body = f.Body
	}

	if outputFile == "" || outputFile == "-" {
		_, err := os.Stdout.Write(body)
		return err
	}
	if err := os.WriteFile(outputFile, body, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", outputFile)
	return nil
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "-", "Pages JSON file (- for stdin)")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "-", "Output file (- for stdout)")
	translateCmd.Flags().StringP("quality", "q", "", "Quality tier: high, balanced, fast")
	translateCmd.Flags().StringVarP(&outputFormat, "format", "f", "both", "Output content: original, translated, both")
	translateCmd.Flags().StringVar(&outputRender, "render", "text", "Output rendering: text, html")
	translateCmd.Flags().IntSliceVar(&pageFilter, "pages", nil, "Only write these page numbers (comma-separated)")
	translateCmd.Flags().BoolVar(&segment, "sections", false, "Split pages into sections and translate each one as well")
	translateCmd.Flags().BoolVar(&jsonOutput, "json", false, "Write raw results as JSON instead of a text export")
	translateCmd.Flags().String("failure-policy", "", "On page failure: abort (default) or skip")
	translateCmd.Flags().Int("max-chunk-chars", 0, "Split pages longer than this many characters (0 = never)")
	translateCmd.Flags().Bool("no-cache", false, "Disable the translation memory")
	translateCmd.Flags().Bool("validate-language", false, "Warn when a translation is not in the target language")

	bindFlags(translateCmd, map[string]string{
		"translate.failure_policy":    "failure-policy",
		"translate.max_chunk_chars":   "max-chunk-chars",
		"translate.validate_language": "validate-language",
	})
}
