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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/valpere/pagetran/internal/config"
)

var version = "0.3.0"

var (
	cfgFile string
	v       = config.NewViper()
	cfg     *config.Config
	logFile *os.File
)

var rootCmd = &cobra.Command{
	Use:   "pagetran",
	Short: "Page-by-page PDF translator backed by local Ollama models",
	Long: `pagetran translates technical PDF documents page by page with a locally
hosted model served by Ollama.

Three quality tiers (high, balanced, fast) map to different models; only one
of them is loaded at a time. A glossary keeps terminology consistent and a
separate proofreading model can review any translated page.

Use "pagetran serve" to start the HTTP API and "pagetran translate --help"
for batch translation from the command line.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(""); err != nil {
			return err
		}
		c, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		cfg = c
		return initLogging(cfg.Log)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default ./pagetran.yaml or <user config dir>/pagetran/pagetran.yaml)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-file", "", "Also write JSON logs to this file")
	flags.String("db", "", "SQLite database path")
	flags.String("ollama-url", "", "Ollama base URL")
	flags.StringP("source", "s", "", "Source language code (e.g. en)")
	flags.StringP("target", "t", "", "Target language code (e.g. ja)")

	bindFlags(rootCmd, map[string]string{
		"log.level":        "log-level",
		"log.file":         "log-file",
		"db.path":          "db",
		"ollama.url":       "ollama-url",
		"languages.source": "source",
		"languages.target": "target",
	})
}

// bindFlags binds config keys to cmd's flags. Flags only override the
// config when they are set on the command line.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for key, name := range keys {
		f := cmd.PersistentFlags().Lookup(name)
		if f == nil {
			f = cmd.Flags().Lookup(name)
		}
		if f == nil {
			panic(fmt.Sprintf("flag %q is not defined on %s", name, cmd.Name()))
		}
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	}
}
