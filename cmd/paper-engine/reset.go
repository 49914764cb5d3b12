// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the current run so the next run starts fresh",
	Long: `Reset removes the run state, plan, checkpoint, context cache, section
files, and references. The source registry is kept.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().Bool("yes", false, "confirm deletion")

	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		return fmt.Errorf("reset deletes the run state and section files: rerun with --yes")
	}

	a, err := openApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ws.Reset(); err != nil {
		return err
	}
	fmt.Printf("reset %s and %s (%d registered sources kept)\n", a.cfg.StateDir, a.cfg.OutputDir, a.reg.Len())
	return nil
}
