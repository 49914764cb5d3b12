// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"fmt"
	"io"

	"github.com/pdiddy/paper-engine/internal/workspace"
	"github.com/pdiddy/paper-engine/pkg/types"
)

// Outcome is the final status of one section in a run.
type Outcome struct {
	ID       int
	Title    string
	Status   types.SectionStatus
	Attempts int
}

// Summary holds the outcome of a run.
type Summary struct {
	RunID     string
	Validated int
	Failed    int
	Skipped   int
	Pending   int
	Suspended bool
	Sections  []Outcome
	Progress  types.Progress
}

// Total returns the number of planned sections.
func (s Summary) Total() int {
	return s.Validated + s.Failed + s.Skipped + s.Pending
}

// HasFailures reports whether any section failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

func (o *Orchestrator) summarize(rc *RunContext) Summary {
	s := Summary{RunID: rc.state.RunID, Progress: workspace.Progress(rc.plan)}
	for _, sec := range rc.plan.Sections {
		switch sec.Status {
		case types.StatusValidated:
			s.Validated++
		case types.StatusFailed:
			s.Failed++
		case types.StatusSkipped:
			s.Skipped++
		default:
			s.Pending++
		}
		s.Sections = append(s.Sections, Outcome{
			ID: sec.ID, Title: sec.Title, Status: sec.Status, Attempts: sec.RetryCount,
		})
	}
	return s
}

// WriteSummary prints the run summary.
func WriteSummary(w io.Writer, s Summary) {
	fmt.Fprintf(w, "\nRun %s\n", s.RunID)
	for _, sec := range s.Sections {
		fmt.Fprintf(w, "  [%02d] %-40s %-10s", sec.ID, truncate(sec.Title, 40), sec.Status)
		if sec.Attempts > 0 {
			fmt.Fprintf(w, " attempts=%d", sec.Attempts)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "validated %d, failed %d, skipped %d, pending %d of %d (%.0f%%)\n",
		s.Validated, s.Failed, s.Skipped, s.Pending, s.Total(), s.Progress.Percentage)
	if s.Suspended {
		fmt.Fprintln(w, "run suspended: continue with 'paper-engine run --resume'")
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
