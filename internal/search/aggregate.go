// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/paper-engine/internal/metrics"
	"github.com/pdiddy/paper-engine/pkg/types"
)

// Registry is the source registry the aggregator resolves against and
// registers into.
type Registry interface {
	Sources() []types.Source
	Register(ctx context.Context, s types.Source) (bool, error)
}

// FullTextFetcher caches the full text of a source and returns its path.
type FullTextFetcher interface {
	Fetch(ctx context.Context, s types.Source) (string, error)
}

// Aggregator fans a query out to every backend, deduplicates the
// candidates, and registers the survivors.
type Aggregator struct {
	Backends []Backend
	Config   types.SearchConfig
	Dedup    *Deduplicator

	// Registry is optional. Without it results are returned unregistered.
	Registry Registry

	// FullText is optional. When set, candidates with an arXiv ID are
	// cached before deduplication.
	FullText FullTextFetcher

	// Limiter paces backend calls. Nil means unpaced.
	Limiter *rate.Limiter

	Logger *zap.Logger

	// Progress receives backend warnings; nil discards them.
	Progress io.Writer
}

// NewLimiter returns a limiter allowing rps backend calls per second.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// Output holds the sources of one aggregated search and its statistics.
type Output struct {
	// Sources are the unique sources in first-occurrence order. Sources
	// already registered are returned in their registered form.
	Sources []types.Source

	DupsRemoved   int
	Registered    int
	BackendErrors []string
}

// Search runs query against every backend. A search that finds nothing
// returns an empty Output without error; an empty query or a missing
// backend list is an error.
func (a *Aggregator) Search(ctx context.Context, query Query) (Output, error) {
	if query.IsEmpty() {
		return Output{}, fmt.Errorf("query is empty: provide a research question or structured parameters")
	}
	if len(a.Backends) == 0 {
		return Output{}, fmt.Errorf("no search backends configured")
	}

	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	progress := a.Progress
	if progress == nil {
		progress = io.Discard
	}

	type backendResult struct {
		sources []types.Source
		err     error
	}

	// Indexed by backend position so the merged order does not depend on
	// which backend answers first.
	results := make([]backendResult, len(a.Backends))
	var wg sync.WaitGroup
	for i, b := range a.Backends {
		if a.Limiter != nil {
			if err := a.Limiter.Wait(ctx); err != nil {
				return Output{}, fmt.Errorf("waiting for rate limiter: %w", err)
			}
		}
		wg.Add(1)
		go func(i int, b Backend) {
			defer wg.Done()
			sources, err := b.Search(ctx, query, a.Config)
			results[i] = backendResult{sources: sources, err: err}
		}(i, b)
	}
	wg.Wait()

	var out Output
	var all []types.Source
	for i, br := range results {
		name := a.Backends[i].Name()
		if br.err != nil {
			out.BackendErrors = append(out.BackendErrors, fmt.Sprintf("%s: %v", name, br.err))
			metrics.BackendErrors.WithLabelValues(name).Inc()
			fmt.Fprintf(progress, "warning: backend %s failed: %v\n", name, br.err)
			logger.Warn("search backend failed", zap.String("backend", name), zap.Error(br.err))
			continue
		}
		all = append(all, br.sources...)
	}

	if ctx.Err() != nil {
		return Output{}, ctx.Err()
	}

	if a.FullText != nil {
		a.cacheFullText(ctx, all, logger)
	}

	dedup := a.Dedup
	if dedup == nil {
		dedup = NewDeduplicator(DefaultTitleSimilarity, logger)
	}
	unique, removed := dedup.Deduplicate(all)
	out.DupsRemoved = removed
	metrics.DuplicatesRemoved.Add(float64(removed))

	if a.Registry == nil {
		out.Sources = unique
		return out, nil
	}

	resolved, registered, err := a.resolve(ctx, dedup, unique)
	if err != nil {
		return out, err
	}
	out.Sources = resolved
	out.Registered = registered

	logger.Info("search complete",
		zap.String("query", query.terms()),
		zap.Int("candidates", len(all)),
		zap.Int("unique", len(unique)),
		zap.Int("registered", registered),
		zap.Int("backend_errors", len(out.BackendErrors)))
	return out, nil
}

// resolve maps each unique source onto an already-registered duplicate when
// one exists and registers the rest.
func (a *Aggregator) resolve(ctx context.Context, dedup *Deduplicator, unique []types.Source) ([]types.Source, int, error) {
	existing := a.Registry.Sources()
	seen := make(map[string]bool)
	var resolved []types.Source
	registered := 0

	for _, s := range unique {
		match, found := findDuplicate(dedup, existing, s)
		if found {
			if !seen[match.ID] {
				seen[match.ID] = true
				resolved = append(resolved, match)
			}
			continue
		}

		added, err := a.Registry.Register(ctx, s)
		if err != nil {
			return nil, registered, fmt.Errorf("registering %s: %w", s.ID, err)
		}
		if added {
			registered++
			metrics.SourcesRegistered.Inc()
			existing = append(existing, s)
		}
		if !seen[s.ID] {
			seen[s.ID] = true
			resolved = append(resolved, s)
		}
	}
	return resolved, registered, nil
}

func findDuplicate(dedup *Deduplicator, pool []types.Source, s types.Source) (types.Source, bool) {
	for _, p := range pool {
		if dedup.Duplicates(p, s) {
			return p, true
		}
	}
	return types.Source{}, false
}

func (a *Aggregator) cacheFullText(ctx context.Context, sources []types.Source, logger *zap.Logger) {
	for i := range sources {
		if sources[i].ArxivID == "" || sources[i].LocalPath != "" {
			continue
		}
		path, err := a.FullText.Fetch(ctx, sources[i])
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Warn("full text download failed", zap.String("id", sources[i].ID), zap.Error(err))
			}
			continue
		}
		sources[i].LocalPath = path
	}
}
