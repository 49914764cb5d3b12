// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-engine/internal/metrics"
	"github.com/pdiddy/paper-engine/internal/search"
	"github.com/pdiddy/paper-engine/pkg/types"
)

// research runs the global search once per run: the project's listed
// sources, the topic, then the topic with each targeted section's title.
// Results are registered and their IDs become the plan's source pool.
func (o *Orchestrator) research(ctx context.Context, rc *RunContext) error {
	if rc.state.ResearchComplete {
		return nil
	}
	if err := o.acquireListed(ctx, rc); err != nil {
		return err
	}
	if o.Research == nil {
		o.Logger.Info("no research configured, using registered sources only")
	} else {
		queries := []string{rc.plan.Topic}
		for _, sec := range rc.plan.Sections {
			if sec.Strategy == types.StrategyTargeted {
				queries = append(queries, rc.plan.Topic+" "+sec.Title)
			}
		}

		fmt.Fprintf(o.progress(), "researching: %s\n", rc.plan.Topic)
		for _, q := range queries {
			found, err := o.search(ctx, rc, search.Query{FreeText: q})
			if err != nil {
				return err
			}
			rc.plan.SourceIDs = appendIDs(rc.plan.SourceIDs, found)
		}
		fmt.Fprintf(o.progress(), "research complete: %d sources\n", len(rc.plan.SourceIDs))
	}

	rc.state.ResearchComplete = true
	if err := o.Workspace.SavePlan(rc.plan); err != nil {
		return err
	}
	return o.Workspace.SaveState(rc.state)
}

// acquireListed registers the project's listed sources and adds them to the
// pool. Identifiers that fail to resolve are reported and skipped.
func (o *Orchestrator) acquireListed(ctx context.Context, rc *RunContext) error {
	ids := rc.state.Config.Sources
	if len(ids) == 0 || o.Acquire == nil {
		return nil
	}
	fmt.Fprintf(o.progress(), "acquiring %d listed sources\n", len(ids))
	res := o.Acquire.AcquireBatch(ctx, rc.Registry, ids, o.progress())
	if err := ctx.Err(); err != nil {
		return err
	}
	rc.plan.SourceIDs = appendIDs(rc.plan.SourceIDs, res.Sources)
	if res.HasFailures() {
		o.Logger.Warn("some listed sources could not be resolved",
			zap.Int("failed", res.Failed),
			zap.Int("total", res.Total()))
	}
	return nil
}

// supplementalSearch looks for sources covering the gap topics of a
// rejected attempt and adds them to the plan's source pool.
func (o *Orchestrator) supplementalSearch(ctx context.Context, rc *RunContext, topics []string) ([]types.Source, error) {
	if o.Research == nil {
		return nil, nil
	}
	metrics.SupplementalSearches.Inc()
	q := search.Query{FreeText: rc.plan.Topic, Keywords: topics}
	found, err := o.search(ctx, rc, q)
	if err != nil {
		return nil, err
	}
	rc.plan.SourceIDs = appendIDs(rc.plan.SourceIDs, found)
	o.Logger.Info("supplemental search",
		zap.Strings("topics", topics),
		zap.Int("found", len(found)))
	fmt.Fprintf(o.progress(), "  supplemental search (%s): %d sources\n", strings.Join(topics, ", "), len(found))
	return found, nil
}

// search runs q and registers what it returns. Provider failures are not
// fatal: a failed search yields no sources. Only cancellation and registry
// write errors are returned.
func (o *Orchestrator) search(ctx context.Context, rc *RunContext, q search.Query) ([]types.Source, error) {
	out, err := o.Research.Search(ctx, q)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		o.Logger.Warn("search failed", zap.String("query", q.FreeText), zap.Error(err))
		return nil, nil
	}

	var registered []types.Source
	for _, s := range out.Sources {
		if _, err := rc.Registry.Register(ctx, s); err != nil {
			return nil, fmt.Errorf("registering %s: %w", s.ID, err)
		}
		if reg, ok := rc.Registry.Get(s.ID); ok {
			registered = append(registered, reg)
		}
	}
	return registered, nil
}

func appendIDs(ids []string, sources []types.Source) []string {
	have := make(map[string]bool, len(ids))
	for _, id := range ids {
		have[id] = true
	}
	for _, s := range sources {
		if !have[s.ID] {
			have[s.ID] = true
			ids = append(ids, s.ID)
		}
	}
	return ids
}
