// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrator drives a generation run: global research, then for
// each planned section the gate check, objective refinement, source
// selection, and the generate/validate/retry loop, checkpointing after
// every section so an interrupted run resumes where it stopped.
package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-engine/internal/acquire"
	"github.com/pdiddy/paper-engine/internal/citation"
	"github.com/pdiddy/paper-engine/internal/compress"
	"github.com/pdiddy/paper-engine/internal/fsutil"
	"github.com/pdiddy/paper-engine/internal/generate"
	"github.com/pdiddy/paper-engine/internal/metrics"
	"github.com/pdiddy/paper-engine/internal/plan"
	"github.com/pdiddy/paper-engine/internal/registry"
	"github.com/pdiddy/paper-engine/internal/search"
	"github.com/pdiddy/paper-engine/internal/workspace"
	"github.com/pdiddy/paper-engine/pkg/types"
)

// ErrSuspended is returned when a run stops at a section boundary because
// Suspend was called. The run is resumable.
var ErrSuspended = errors.New("run suspended")

// ErrCheckpointExists is returned by Run when an interrupted run is waiting
// to be resumed.
var ErrCheckpointExists = errors.New("an interrupted run exists: resume it or reset the workspace")

// Researcher runs one aggregated search. search.Aggregator implements it.
type Researcher interface {
	Search(ctx context.Context, query search.Query) (search.Output, error)
}

// Acquirer resolves reference identifiers into registered sources.
// acquire.Resolver implements it.
type Acquirer interface {
	AcquireBatch(ctx context.Context, reg acquire.Registry, identifiers []string, w io.Writer) acquire.BatchResult
}

// RunContext is the mutable state of one run, passed explicitly through
// the section loop: the source registry citations are validated against,
// the summary ledger, and the gate built over the registry.
type RunContext struct {
	Registry *registry.Registry
	Ledger   *compress.Ledger
	Gate     *citation.Gate

	state *types.RunState
	plan  *types.Plan
}

// Orchestrator runs the section state machine for one workspace.
type Orchestrator struct {
	Workspace *workspace.Workspace
	Registry  *registry.Registry
	Generator generate.Generator

	// Research is optional. Without it no searches run and sections are
	// generated from whatever the registry already holds.
	Research Researcher

	// Acquire is optional. It resolves the project's listed sources into
	// the source pool before research runs.
	Acquire Acquirer

	Config types.Config
	Logger *zap.Logger

	// Progress receives per-section status lines; nil discards them.
	Progress io.Writer

	suspended atomic.Bool
	now       func() time.Time
}

// New returns an orchestrator over ws.
func New(ws *workspace.Workspace, reg *registry.Registry, gen generate.Generator, cfg types.Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		Workspace: ws,
		Registry:  reg,
		Generator: gen,
		Config:    cfg,
		Logger:    logger,
		now:       time.Now,
	}
}

// Suspend asks the run to stop at the next section boundary. It performs no
// I/O and is safe to call from a signal-handling goroutine.
func (o *Orchestrator) Suspend() { o.suspended.Store(true) }

// Suspended reports whether Suspend has been called.
func (o *Orchestrator) Suspended() bool { return o.suspended.Load() }

func (o *Orchestrator) progress() io.Writer {
	if o.Progress == nil {
		return io.Discard
	}
	return o.Progress
}

func (o *Orchestrator) clock() time.Time {
	if o.now == nil {
		return time.Now()
	}
	return o.now()
}

// Initialize validates the project, builds the plan, and writes the run
// state and plan records. Any previous run in the workspace is replaced.
func (o *Orchestrator) Initialize(project types.ProjectConfig) (*types.RunState, *types.Plan, error) {
	cfg, err := plan.Validate(project)
	if err != nil {
		return nil, nil, err
	}
	p := plan.Build(cfg, o.clock())
	st := workspace.NewRunState(cfg, p.Profile)

	if err := o.Workspace.Reset(); err != nil {
		return nil, nil, err
	}
	if err := o.Workspace.SavePlan(&p); err != nil {
		return nil, nil, err
	}
	if err := o.Workspace.SaveState(st); err != nil {
		return nil, nil, err
	}
	o.Logger.Info("run initialized",
		zap.String("run_id", st.RunID),
		zap.String("profile", p.Profile),
		zap.Int("sections", len(p.Sections)))
	return st, &p, nil
}

// Run starts generation from the first section of an initialized run.
// Sections already in a terminal status are not redone.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	if o.Workspace.CanResume() {
		return Summary{}, ErrCheckpointExists
	}
	st, err := o.Workspace.LoadState()
	if err != nil {
		return Summary{}, err
	}
	p, err := o.Workspace.LoadPlan()
	if err != nil {
		return Summary{}, err
	}
	rc := o.newRunContext(st, p, nil)
	return o.loop(ctx, rc, 0)
}

// Resume continues an interrupted run from its checkpoint. Sections before
// the checkpoint cursor keep their status; every section from the cursor on
// is redone.
func (o *Orchestrator) Resume(ctx context.Context) (Summary, error) {
	r, err := o.Workspace.Resume()
	if err != nil {
		return Summary{}, err
	}
	cp := r.Checkpoint
	for i := range r.Plan.Sections {
		if r.Plan.Sections[i].ID >= cp.NextSectionID {
			r.Plan.Sections[i].Status = types.StatusPending
			r.Plan.Sections[i].RetryCount = 0
			r.Plan.Sections[i].File = ""
		}
	}
	o.Logger.Info("resuming run",
		zap.String("run_id", r.State.RunID),
		zap.Int("next_section", cp.NextSectionID),
		zap.Int("completed", len(cp.CompletedSectionIDs)),
		zap.Int("cached_summaries", len(cp.ContextCache)))
	fmt.Fprintf(o.progress(), "resuming at section %d (%d completed)\n", cp.NextSectionID, len(cp.CompletedSectionIDs))

	rc := o.newRunContext(r.State, r.Plan, committedSummaries(cp))
	return o.loop(ctx, rc, cp.NextSectionID)
}

// committedSummaries drops cached summaries of sections at or after the
// checkpoint cursor. The cache is written before the checkpoint, so those
// belong to sections whose text was never committed.
func committedSummaries(cp *types.Checkpoint) []types.ContextSummary {
	var out []types.ContextSummary
	for _, s := range cp.ContextCache {
		if s.SectionID < cp.NextSectionID {
			out = append(out, s)
		}
	}
	return out
}

func (o *Orchestrator) newRunContext(st *types.RunState, p *types.Plan, cache []types.ContextSummary) *RunContext {
	gate := citation.NewGate(o.Registry)
	gate.WordTolerance = o.Config.Orchestration.WordTolerance
	return &RunContext{
		Registry: o.Registry,
		Ledger:   compress.NewLedger(o.Generator, o.Logger, cache),
		Gate:     gate,
		state:    st,
		plan:     p,
	}
}

// loop processes every non-terminal section with id >= start in plan order.
func (o *Orchestrator) loop(ctx context.Context, rc *RunContext, start int) (Summary, error) {
	if err := o.research(ctx, rc); err != nil {
		return Summary{}, err
	}

	for i := range rc.plan.Sections {
		sec := &rc.plan.Sections[i]
		if sec.ID < start || sec.Status.Terminal() {
			continue
		}

		if o.Suspended() {
			return o.suspend(rc, sec.ID)
		}

		if err := o.processSection(ctx, rc, sec); err != nil {
			if ctx.Err() != nil {
				sec.Status = types.StatusPending
				if cpErr := o.checkpoint(rc, sec.ID); cpErr != nil {
					o.Logger.Error("checkpoint after cancellation failed", zap.Error(cpErr))
				}
				return o.summarize(rc), fmt.Errorf("section %d: %w", sec.ID, ctx.Err())
			}
			return o.summarize(rc), fmt.Errorf("section %d: %w", sec.ID, err)
		}
		if err := o.checkpoint(rc, sec.ID+1); err != nil {
			return o.summarize(rc), err
		}
	}

	return o.finish(rc)
}

// suspend writes the checkpoint at next and stops the run.
func (o *Orchestrator) suspend(rc *RunContext, next int) (Summary, error) {
	if err := o.checkpoint(rc, next); err != nil {
		return o.summarize(rc), err
	}
	metrics.Suspensions.Inc()
	o.writeMetrics()
	o.Logger.Info("run suspended", zap.Int("next_section", next))
	fmt.Fprintf(o.progress(), "suspended before section %d\n", next)

	s := o.summarize(rc)
	s.Suspended = true
	return s, ErrSuspended
}

// checkpoint persists the plan and run state, then commits the checkpoint
// with next as the resume cursor.
func (o *Orchestrator) checkpoint(rc *RunContext, next int) error {
	if err := o.Workspace.SavePlan(rc.plan); err != nil {
		return err
	}
	syncState(rc.state, rc.plan)
	if err := o.Workspace.SaveState(rc.state); err != nil {
		return err
	}
	return o.Workspace.Checkpoints.Save(next, completedIDs(rc.plan, next), rc.Ledger.Summaries())
}

// finish clears the checkpoint and writes the references and metrics of a
// completed run.
func (o *Orchestrator) finish(rc *RunContext) (Summary, error) {
	if err := o.Workspace.Checkpoints.Clear(); err != nil {
		return o.summarize(rc), err
	}
	if err := o.writeReferences(rc); err != nil {
		return o.summarize(rc), err
	}
	o.writeMetrics()

	s := o.summarize(rc)
	o.Logger.Info("run complete",
		zap.Int("validated", s.Validated),
		zap.Int("failed", s.Failed),
		zap.Int("skipped", s.Skipped))
	return s, nil
}

// writeReferences exports every source cited by a validated section as
// CSL-YAML next to the section files.
func (o *Orchestrator) writeReferences(rc *RunContext) error {
	cited, err := o.Workspace.CitedIDs(rc.plan)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := search.FormatCSL(rc.Registry.Lookup(cited), &buf); err != nil {
		return fmt.Errorf("formatting references: %w", err)
	}
	if err := fsutil.WriteFileAtomic(o.Workspace.ReferencesPath(), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing references: %w", err)
	}
	return nil
}

func (o *Orchestrator) writeMetrics() {
	if err := metrics.WriteTextfile(o.Workspace.StateDir); err != nil {
		o.Logger.Warn("writing metrics", zap.Error(err))
	}
}

// syncState derives the run-level outcome lists from the plan.
func syncState(st *types.RunState, p *types.Plan) {
	st.CompletedSections = []int{}
	st.FailedSections = []int{}
	st.SkippedSections = []int{}
	for _, sec := range p.Sections {
		switch sec.Status {
		case types.StatusValidated:
			st.CompletedSections = append(st.CompletedSections, sec.ID)
		case types.StatusFailed:
			st.FailedSections = append(st.FailedSections, sec.ID)
		case types.StatusSkipped:
			st.SkippedSections = append(st.SkippedSections, sec.ID)
		}
	}
}

func completedIDs(p *types.Plan, next int) []int {
	ids := []int{}
	for _, sec := range p.Sections {
		if sec.ID < next && sec.Status == types.StatusValidated {
			ids = append(ids, sec.ID)
		}
	}
	return ids
}
