// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the sources in the registry",
	Long: `Sources lists every registered source, or with --cited only those cited by
validated sections of the current run.`,
	RunE: runSources,
}

func init() {
	sourcesCmd.Flags().String("format", "table", "output format: table, json, or csl")
	sourcesCmd.Flags().Bool("cited", false, "only sources cited by validated sections")

	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format); err != nil {
		return err
	}

	a, err := openApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	sources := a.reg.Sources()
	if cited, _ := cmd.Flags().GetBool("cited"); cited {
		p, err := a.ws.LoadPlan()
		if err != nil {
			return err
		}
		ids, err := a.ws.CitedIDs(p)
		if err != nil {
			return err
		}
		sources = a.reg.Lookup(ids)
	}
	return writeSources(sources, 0, format)
}
