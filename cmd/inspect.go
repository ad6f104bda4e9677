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
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/valpere/pagetran/internal/document"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.pdf>",
	Short: "Validate a PDF and show its page count",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		info, err := document.Inspect(data)
		if err != nil {
			return err
		}
		fmt.Printf("File:      %s\n", filepath.Base(args[0]))
		fmt.Printf("Pages:     %d\n", info.Pages)
		fmt.Printf("Version:   %s\n", info.Version)
		fmt.Printf("Encrypted: %v\n", info.Encrypted)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
