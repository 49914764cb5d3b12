// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-engine/internal/workspace"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show section progress of the current run",
	RunE:  runProgress,
}

func init() {
	progressCmd.Flags().Bool("json", false, "output progress as JSON")

	rootCmd.AddCommand(progressCmd)
}

func runProgress(cmd *cobra.Command, args []string) error {
	a, err := openApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.ws.LoadState()
	if err != nil {
		return err
	}
	p, err := a.ws.LoadPlan()
	if err != nil {
		return err
	}
	pr := workspace.Progress(p)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pr)
	}

	w := os.Stdout
	fmt.Fprintf(w, "Run %s: %q (%s)\n", st.RunID, p.Topic, p.Profile)
	fmt.Fprintf(w, "Research complete: %v, %d sources\n\n", st.ResearchComplete, len(p.SourceIDs))
	fmt.Fprintf(w, "%-4s  %-40s  %-11s  %s\n", "ID", "Section", "Status", "Attempts")
	fmt.Fprintln(w, strings.Repeat("-", 68))
	for _, sec := range p.Sections {
		fmt.Fprintf(w, "%-4d  %-40s  %-11s  %d\n", sec.ID, clip(sec.Title, 40), sec.Status, sec.RetryCount)
	}
	fmt.Fprintf(w, "\n%d/%d done (%.1f%%): %d validated, %d failed, %d skipped, %d remaining\n",
		pr.Total-pr.Remaining, pr.Total, pr.Percentage, pr.Validated, pr.Failed, pr.Skipped, pr.Remaining)
	if pr.NextSection != "" {
		fmt.Fprintf(w, "Next: %s\n", pr.NextSection)
	}

	files, err := a.ws.SectionFiles()
	if err != nil {
		return err
	}
	if len(files) > 0 {
		fmt.Fprintln(w, "\nSection files:")
		for _, f := range files {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}
	if a.ws.CanResume() {
		fmt.Fprintln(w, "Interrupted run: continue with 'paper-engine run --resume'")
	}
	return nil
}
