// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/medicode/coding-audit-mcp/internal/coding"
	"github.com/medicode/coding-audit-mcp/internal/ids"
)

type normalizeResult struct {
	Analysis *coding.CodingAnalysis `json:"analysis"`
	Warnings []string               `json:"warnings"`
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize <payload-file>",
	Short: "Normalize a saved coding engine response",
	Long: "Reads a raw coding engine response (JSON or YAML, optionally fenced), normalizes it and prints " +
		"the analysis together with any contract warnings.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format != "json" && format != "yaml" {
			return eris.Errorf("normalize: unknown format %q", format)
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrap(err, "normalize: read payload")
		}
		analysis, err := coding.NewNormalizer(ids.NewCounter()).Normalize(raw)
		if err != nil {
			return err
		}
		contract, err := coding.NewContract()
		if err != nil {
			return eris.Wrap(err, "normalize: compile contract")
		}
		result := normalizeResult{Analysis: analysis, Warnings: contract.Check(analysis)}
		if result.Warnings == nil {
			result.Warnings = []string{}
		}

		var out []byte
		if format == "yaml" {
			out, err = yaml.Marshal(result)
		} else {
			out, err = json.MarshalIndent(result, "", "  ")
		}
		if err != nil {
			return eris.Wrap(err, "normalize: encode result")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	normalizeCmd.Flags().String("format", "json", "output format: json or yaml")
	rootCmd.AddCommand(normalizeCmd)
}
