// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-engine/internal/plan"
	"github.com/pdiddy/paper-engine/pkg/types"
)

var initCmd = &cobra.Command{
	Use:   "init <project.yaml>",
	Short: "Validate a project file and build the section plan",
	Long: `Init reads a project file (topic, project type, section template, style,
artifacts), validates it, selects a template profile, and writes the run
state and section plan to the state directory. Sections the project type
may not claim are listed and will be skipped during the run.`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "replace an existing run")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	project, err := plan.LoadProject(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	force, _ := cmd.Flags().GetBool("force")
	if a.ws.Initialized() && !force {
		return fmt.Errorf("a run already exists in %s: use --force or 'paper-engine reset'", a.cfg.StateDir)
	}

	o, err := a.orchestrator()
	if err != nil {
		return err
	}
	st, p, err := o.Initialize(project)
	if err != nil {
		return err
	}

	printPlan(st, p)
	return nil
}

func printPlan(st *types.RunState, p *types.Plan) {
	w := os.Stdout
	fmt.Fprintf(w, "Run %s: %q\n", st.RunID, p.Topic)
	fmt.Fprintf(w, "Profile %s, project type %s\n\n", p.Profile, st.Config.ProjectType)

	fmt.Fprintf(w, "%-4s  %-40s  %-8s  %-9s  %-5s  %s\n", "ID", "Section", "Strategy", "Citations", "Words", "Note")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, sec := range p.Sections {
		note := ""
		if ok, _ := plan.Gate(st.Config.ProjectType, sec.Title); !ok {
			note = "skipped by project type"
		}
		fmt.Fprintf(w, "%-4d  %-40s  %-8s  %-9d  %-5d  %s\n",
			sec.ID, clip(sec.Title, 40), sec.Strategy, sec.MinCitations, sec.MaxWords, note)
	}
}

func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
