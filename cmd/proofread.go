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
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/valpere/pagetran/internal/model"
	"github.com/valpere/pagetran/internal/proofread"
)

var (
	proofOriginal   string
	proofTranslated string
	proofPage       int
)

var proofreadCmd = &cobra.Command{
	Use:   "proofread",
	Short: "Review one translated page with the proofreading model",
	Long: `Ask the proofreading model to review a translated page against its original
and print the result as JSON. The translation tiers are not loaded.

Example:
  pagetran proofread --original page3.en.txt --translated page3.ja.txt --page 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		original, err := os.ReadFile(proofOriginal)
		if err != nil {
			return fmt.Errorf("failed to read original: %w", err)
		}
		translated, err := os.ReadFile(proofTranslated)
		if err != nil {
			return fmt.Errorf("failed to read translation: %w", err)
		}

		ctx, stop := signalContext()
		defer stop()

		backend := model.NewOllamaBackend(cfg.Ollama.URL, cfg.Ollama.Timeout)
		p := proofread.NewOllamaProofreader(backend, cfg.Proofread.Model, cfg.Languages.Source, cfg.Languages.Target)
		res, err := p.Proofread(ctx, string(original), string(translated), proofPage)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(res)
	},
}

func init() {
	rootCmd.AddCommand(proofreadCmd)

	proofreadCmd.Flags().StringVar(&proofOriginal, "original", "", "File with the original page text (required)")
	proofreadCmd.Flags().StringVar(&proofTranslated, "translated", "", "File with the translated page text (required)")
	proofreadCmd.Flags().IntVar(&proofPage, "page", 1, "Page number, for logging")
	proofreadCmd.Flags().String("model", "", "Proofreading model (default from config)")
	proofreadCmd.MarkFlagRequired("original")
	proofreadCmd.MarkFlagRequired("translated")

	bindFlags(proofreadCmd, map[string]string{"proofread.model": "model"})
}
