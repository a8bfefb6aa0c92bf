// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/medicode/coding-audit-mcp/internal/evidence"
	"github.com/medicode/coding-audit-mcp/internal/session"
)

var highlightCmd = &cobra.Command{
	Use:   "highlight",
	Short: "Highlight an evidence phrase in a clinical note",
	Long: "Prints the note with every case-insensitive occurrence of the phrase marked. " +
		"The first occurrence is marked >>like this<<, later ones [like this].",
	RunE: func(cmd *cobra.Command, _ []string) error {
		notePath, _ := cmd.Flags().GetString("note")
		phrase, _ := cmd.Flags().GetString("phrase")
		if notePath == "" {
			return eris.New("highlight: --note is required")
		}

		s := session.New()
		if err := s.LoadNoteFile(notePath); err != nil {
			return err
		}
		note := s.Snapshot().Note

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, render(evidence.Segment(note, phrase)))
		loc, ok := evidence.Locate(note, phrase)
		if !ok {
			fmt.Fprintln(w, "no matches")
			return nil
		}
		fmt.Fprintf(w, "matches: %d, first at line %d in section %q\n", loc.Occurrences, loc.Line, loc.Section)
		return nil
	},
}

func render(spans []evidence.Span) string {
	var b strings.Builder
	for _, span := range spans {
		switch {
		case span.Active:
			b.WriteString(">>" + span.Text + "<<")
		case span.IsMatch:
			b.WriteString("[" + span.Text + "]")
		default:
			b.WriteString(span.Text)
		}
	}
	return b.String()
}

func init() {
	highlightCmd.Flags().String("note", "", "path to a plain text (.txt) clinical note")
	highlightCmd.Flags().String("phrase", "", "evidence phrase to highlight")
	rootCmd.AddCommand(highlightCmd)
}
