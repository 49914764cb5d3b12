// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-engine/internal/generate"
	"github.com/pdiddy/paper-engine/internal/metrics"
	"github.com/pdiddy/paper-engine/internal/plan"
	"github.com/pdiddy/paper-engine/internal/relevance"
	"github.com/pdiddy/paper-engine/internal/writer"
	"github.com/pdiddy/paper-engine/pkg/types"
)

const refineMaxTokens = 200

// processSection drives one section to a terminal status. An error is
// returned only for persistence failures and cancellation; a section that
// exhausts its attempts is marked failed and nil is returned.
func (o *Orchestrator) processSection(ctx context.Context, rc *RunContext, sec *types.SectionPlan) error {
	logger := o.Logger.With(zap.Int("section", sec.ID), zap.String("title", sec.Title))
	w := o.progress()

	if ok, reason := plan.Gate(rc.state.Config.ProjectType, sec.Title); !ok {
		sec.Status = types.StatusSkipped
		metrics.SectionOutcomes.WithLabelValues(string(types.StatusSkipped)).Inc()
		logger.Info("section skipped", zap.String("reason", "policy"), zap.String("detail", reason))
		fmt.Fprintf(w, "skipped: [%d] %s (%s)\n", sec.ID, sec.Title, reason)
		return nil
	}

	sec.Status = types.StatusInProgress
	sec.RetryCount = 0
	fmt.Fprintf(w, "generating: [%d] %s\n", sec.ID, sec.Title)

	if err := o.refineObjective(ctx, rc, sec, logger); err != nil {
		return err
	}

	pool := rc.Registry.Lookup(rc.plan.SourceIDs)
	opts := o.relevanceOptions(sec.Strategy)
	maxRetries := o.Config.Orchestration.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	// supplemental holds sources fetched for this section's gap topics. They
	// are offered on every later attempt whatever their objective score.
	var supplemental []types.Source
	var gaps []string
	var last types.ValidationResult
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		sec.RetryCount = attempt
		sources := appendNew(relevance.Filter(pool, sec.Objective, opts), supplemental)

		prompt, err := writer.SectionPrompt(writer.SectionInput{
			Topic:        rc.plan.Topic,
			ProjectType:  rc.state.Config.ProjectType,
			Section:      *sec,
			Artifacts:    rc.state.Config.Artifacts,
			Style:        rc.state.Config.Style,
			Sources:      sources,
			PriorContext: o.priorContext(rc, sec),
			GapTopics:    gaps,
		})
		if err != nil {
			return err
		}

		start := time.Now()
		text, err := o.Generator.Generate(ctx, prompt, writer.MaxTokens(sec.MaxWords))
		metrics.GenerationDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			metrics.GenerationAttempts.WithLabelValues("error").Inc()
			logger.Warn("generation failed",
				zap.Int("attempt", attempt),
				zap.String("kind", string(generate.KindOf(err))),
				zap.Error(err))
			fmt.Fprintf(w, "  attempt %d/%d: generation failed (%s)\n", attempt, maxRetries, generate.KindOf(err))
			continue
		}
		lastErr = nil

		body, removed := writer.Clean(text, rc.state.Config.ProjectType)
		if len(removed) > 0 {
			logger.Debug("stripped placeholder citations", zap.Strings("placeholders", removed))
		}

		last = rc.Gate.Validate(sec.ID, body, sec.MinCitations, sec.MaxWords)
		for _, is := range last.Issues {
			metrics.ValidationIssues.WithLabelValues(string(is.Kind), string(is.Severity)).Inc()
		}

		if last.Passed {
			metrics.GenerationAttempts.WithLabelValues("passed").Inc()
			return o.accept(ctx, rc, sec, body, last, logger)
		}

		metrics.GenerationAttempts.WithLabelValues("rejected").Inc()
		critical := last.Critical()
		logger.Warn("section rejected by citation gate",
			zap.Int("attempt", attempt),
			zap.Int("critical", len(critical)),
			zap.Strings("missing_topics", last.MissingTopics))
		fmt.Fprintf(w, "  attempt %d/%d: %d invalid citations\n", attempt, maxRetries, len(critical))

		gaps = last.MissingTopics
		if len(gaps) > 0 && attempt < maxRetries {
			found, err := o.supplementalSearch(ctx, rc, gaps)
			if err != nil {
				return err
			}
			pool = appendNew(pool, found)
			supplemental = appendNew(supplemental, found)
		}
	}

	sec.Status = types.StatusFailed
	metrics.SectionOutcomes.WithLabelValues(string(types.StatusFailed)).Inc()
	fields := []zap.Field{zap.Int("attempts", sec.RetryCount)}
	if lastErr != nil {
		fields = append(fields, zap.Error(lastErr))
	}
	logger.Warn("section failed", fields...)
	fmt.Fprintf(w, "failed: [%d] %s after %d attempts%s\n", sec.ID, sec.Title, sec.RetryCount, issueSummary(last, lastErr))
	return nil
}

// accept persists a validated section and records its summary.
func (o *Orchestrator) accept(ctx context.Context, rc *RunContext, sec *types.SectionPlan, body string, res types.ValidationResult, logger *zap.Logger) error {
	path, err := o.Workspace.WriteSection(sec, body)
	if err != nil {
		return err
	}
	rc.Ledger.Record(ctx, sec.ID, sec.Title, body, res.Citations)

	sec.Status = types.StatusValidated
	metrics.SectionOutcomes.WithLabelValues(string(types.StatusValidated)).Inc()
	for _, is := range res.Issues {
		logger.Info("validation warning", zap.String("kind", string(is.Kind)), zap.String("message", is.Message))
	}
	logger.Info("section validated",
		zap.Int("attempts", sec.RetryCount),
		zap.Int("citations", len(res.Citations)),
		zap.Int("words", res.WordCount))
	fmt.Fprintf(o.progress(), "validated: [%d] %s (%d words, %d citations) -> %s\n",
		sec.ID, sec.Title, res.WordCount, len(res.Citations), path)
	return nil
}

// refineObjective rewrites the objective once, from the findings of earlier
// sections. A failed refinement keeps the original objective.
func (o *Orchestrator) refineObjective(ctx context.Context, rc *RunContext, sec *types.SectionPlan, logger *zap.Logger) error {
	if sec.ID == 0 || sec.ObjectiveRefined {
		return nil
	}
	findings := rc.Ledger.PriorFindings(sec.ID)
	if len(findings) == 0 {
		return nil
	}

	prompt, err := writer.RefinePrompt(rc.plan.Topic, *sec, findings)
	if err != nil {
		return err
	}
	resp, err := o.Generator.Generate(ctx, prompt, refineMaxTokens)
	sec.ObjectiveRefined = true
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("objective refinement failed", zap.Error(err))
	case writer.CleanObjective(resp) == "":
		logger.Warn("objective refinement returned nothing")
	default:
		sec.Objective = writer.CleanObjective(resp)
		logger.Debug("objective refined", zap.String("objective", sec.Objective))
	}
	return o.Workspace.SavePlan(rc.plan)
}

// priorContext returns the previous section's full text for the leading
// sections and the compressed ledger context for the rest.
func (o *Orchestrator) priorContext(rc *RunContext, sec *types.SectionPlan) string {
	if sec.ID == 0 {
		return ""
	}
	if sec.ID < o.Config.Orchestration.FullContextSections {
		if prev := rc.plan.Section(sec.ID - 1); prev != nil && prev.Status == types.StatusValidated {
			body, err := o.Workspace.ReadSection(prev)
			if err == nil {
				return fmt.Sprintf("## %s\n%s", prev.Title, body)
			}
			o.Logger.Warn("reading previous section", zap.Int("section", prev.ID), zap.Error(err))
		}
	}
	return rc.Ledger.Context(sec.ID, o.Config.Orchestration.ContextWindow)
}

func (o *Orchestrator) relevanceOptions(strategy types.ResearchStrategy) types.RelevanceOptions {
	if strategy == types.StrategyTargeted {
		return o.Config.Research.Targeted
	}
	return o.Config.Research.Global
}

// issueSummary renders the reason a section failed for the progress line.
func issueSummary(res types.ValidationResult, err error) string {
	if err != nil {
		return fmt.Sprintf(": %v", err)
	}
	var msgs []string
	for _, is := range res.Critical() {
		msgs = append(msgs, is.Message)
	}
	if len(msgs) == 0 {
		return ""
	}
	return ": " + strings.Join(msgs, "; ")
}

func appendNew(pool, found []types.Source) []types.Source {
	have := make(map[string]bool, len(pool))
	for _, s := range pool {
		have[s.ID] = true
	}
	for _, s := range found {
		if !have[s.ID] {
			have[s.ID] = true
			pool = append(pool, s)
		}
	}
	return pool
}
