// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-engine/internal/orchestrator"
	"github.com/pdiddy/paper-engine/internal/plan"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate the planned sections",
	Long: `Run researches the topic once, then generates every planned section in
order. Each section is validated against the source registry; sections that
cite unknown sources are retried with supplemental research and marked
failed after the retry budget.

Interrupt with Ctrl-C to stop after the current section; a second interrupt
stops immediately. Continue an interrupted run with --resume.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Bool("resume", false, "continue an interrupted run from its checkpoint")
	runCmd.Flags().String("project", "", "project file to initialize from when no run exists")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	o, err := a.orchestrator()
	if err != nil {
		return err
	}

	resume, _ := cmd.Flags().GetBool("resume")
	projectPath, _ := cmd.Flags().GetString("project")
	if !resume && !a.ws.Initialized() {
		if projectPath == "" {
			return fmt.Errorf("no run in %s: run 'paper-engine init <project.yaml>' or pass --project", a.cfg.StateDir)
		}
		project, err := plan.LoadProject(projectPath)
		if err != nil {
			return err
		}
		if _, _, err := o.Initialize(project); err != nil {
			return err
		}
	}

	stop := handleSignals(o, cancel)
	defer stop()

	var sum orchestrator.Summary
	if resume {
		sum, err = o.Resume(ctx)
	} else {
		sum, err = o.Run(ctx)
	}
	if sum.RunID != "" {
		orchestrator.WriteSummary(os.Stdout, sum)
	}

	switch {
	case errors.Is(err, orchestrator.ErrSuspended):
		return nil
	case errors.Is(err, orchestrator.ErrCheckpointExists):
		return fmt.Errorf("%w (paper-engine run --resume)", err)
	case err != nil:
		return err
	case sum.HasFailures():
		return fmt.Errorf("%d section(s) failed validation", sum.Failed)
	}
	return nil
}

// handleSignals suspends the run on the first SIGINT or SIGTERM and cancels
// it on the second. The returned function stops signal delivery.
func handleSignals(o *orchestrator.Orchestrator, cancel context.CancelFunc) func() {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("suspend requested", zap.String("signal", sig.String()))
			fmt.Fprintln(os.Stderr, "\nfinishing the current section, then suspending (interrupt again to stop now)")
			o.Suspend()
		case <-done:
			return
		}
		select {
		case <-sigCh:
			cancel()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
