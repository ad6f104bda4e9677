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
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Manage the terminology glossary",
	Long: `Add, list, delete and import glossary terms for the configured language pair.

Every term is given to the model as a required translation; terms are
listed in the order they were first added.`,
}

var glossaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List glossary terms",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, gloss, err := openGlossary(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := gloss.Entries(context.Background())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Printf("Glossary for %s→%s is empty.\n", cfg.Languages.Source, cfg.Languages.Target)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "SOURCE (%s)\tTARGET (%s)\n", cfg.Languages.Source, cfg.Languages.Target)
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\n", e.Source, e.Target)
		}
		return w.Flush()
	},
}

var glossaryAddCmd = &cobra.Command{
	Use:   "add <source-term> <target-term>",
	Short: "Add or update a glossary term",
	Long: `Add a term mapping a source-language term to a target-language term.
An existing term is overwritten but keeps its position.

Example:
  pagetran glossary add "spindle" "主軸" --source en --target ja`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, gloss, err := openGlossary(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		term, err := gloss.Add(context.Background(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Added: [%s→%s] %q → %q\n", cfg.Languages.Source, cfg.Languages.Target, term.Source, term.Target)
		return nil
	},
}

var glossaryDeleteCmd = &cobra.Command{
	Use:   "delete <source-term>",
	Short: "Delete a glossary term",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, gloss, err := openGlossary(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ok, err := gloss.Delete(context.Background(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("term %q not found", args[0])
		}
		fmt.Printf("Deleted glossary term: %s\n", args[0])
		return nil
	},
}

var glossaryImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Replace the glossary with terms from a JSON object",
	Long: `Replace the whole glossary with the terms in a JSON file of the form
{"source term": "target term", ...}. Terms missing from the file are removed.
Nothing is changed if any term is invalid.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		var mapping map[string]string
		if err := json.Unmarshal(data, &mapping); err != nil {
			return fmt.Errorf("failed to parse %s: %w", args[0], err)
		}

		db, gloss, err := openGlossary(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		terms, err := gloss.ReplaceAll(context.Background(), mapping)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d terms.\n", len(terms))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(glossaryCmd)

	glossaryCmd.AddCommand(glossaryListCmd)
	glossaryCmd.AddCommand(glossaryAddCmd)
	glossaryCmd.AddCommand(glossaryDeleteCmd)
	glossaryCmd.AddCommand(glossaryImportCmd)
}
