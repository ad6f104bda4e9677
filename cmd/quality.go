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
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/pagetran/internal/model"
)

var qualityCheck bool

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Show the quality tiers and their models",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := catalog(cfg)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIER\tMODEL\tSPEED\tQUALITY\tDESCRIPTION")
		for _, tier := range model.Tiers {
			spec := cat[tier]
			marker := ""
			if string(tier) == cfg.Translate.Quality {
				marker = " (default)"
			}
			fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\t%s\n", tier, marker, spec.Model, spec.Speed, spec.Quality, spec.Description)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if !qualityCheck {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		backend := model.NewOllamaBackend(cfg.Ollama.URL, 10*time.Second)
		if err := backend.IsAvailable(ctx); err != nil {
			return fmt.Errorf("ollama at %s is not reachable: %w", cfg.Ollama.URL, err)
		}
		fmt.Printf("\nOllama at %s is reachable.\n", cfg.Ollama.URL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(qualityCmd)
	qualityCmd.Flags().BoolVar(&qualityCheck, "check", false, "Also check that Ollama is reachable")
}
