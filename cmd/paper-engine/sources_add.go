// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"
)

var sourcesAddCmd = &cobra.Command{
	Use:   "add <identifier>...",
	Short: "Register references by arXiv ID or DOI",
	Long: `Add resolves each identifier (an arXiv ID, a DOI, or an arxiv.org or
doi.org URL) through the arXiv or CrossRef API and registers it. When a
run exists the references join its source pool, so sections may cite them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSourcesAdd,
}

func init() {
	sourcesCmd.AddCommand(sourcesAddCmd)
}

func runSourcesAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res := newResolver(a.cfg.Search).AcquireBatch(ctx, a.reg, args, os.Stdout)

	if a.ws.Initialized() && len(res.Sources) > 0 {
		p, err := a.ws.LoadPlan()
		if err != nil {
			return err
		}
		added := 0
		for _, id := range res.IDs() {
			if !slices.Contains(p.SourceIDs, id) {
				p.SourceIDs = append(p.SourceIDs, id)
				added++
			}
		}
		if err := a.ws.SavePlan(p); err != nil {
			return err
		}
		fmt.Printf("%d source(s) added to the run's pool\n", added)
	}

	if res.HasFailures() {
		return fmt.Errorf("%d of %d identifier(s) could not be resolved", res.Failed, res.Total())
	}
	return nil
}
