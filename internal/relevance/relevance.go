// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relevance ranks registered sources against a section objective.
package relevance

import (
	"sort"

	"github.com/pdiddy/paper-engine/internal/keywords"
	"github.com/pdiddy/paper-engine/pkg/types"
)

const (
	titleWeight    = 0.6
	abstractWeight = 0.4

	// FallbackCount is the number of sources returned when none clears the
	// threshold but the pool is non-empty.
	FallbackCount = 2
)

// Scored pairs a source with its relevance score and matched keywords.
type Scored struct {
	Source   types.Source
	Score    float64
	Matching []string
}

// Score computes the relevance of src to the objective keyword set:
// weighted title and abstract keyword overlap normalized by the objective
// keyword count, clamped to [0,1].
func Score(src types.Source, objective map[string]bool) (float64, []string) {
	if len(objective) == 0 {
		return 0, nil
	}
	title := keywords.Set(src.Title)
	abstract := keywords.Set(src.Abstract)

	var matching []string
	titleOverlap, abstractOverlap := 0, 0
	for _, kw := range sortedKeys(objective) {
		inTitle, inAbstract := title[kw], abstract[kw]
		if inTitle {
			titleOverlap++
		}
		if inAbstract {
			abstractOverlap++
		}
		if inTitle || inAbstract {
			matching = append(matching, kw)
		}
	}

	score := (float64(titleOverlap)*titleWeight + float64(abstractOverlap)*abstractWeight) / float64(len(objective))
	if score > 1 {
		score = 1
	}
	return score, matching
}

// Rank scores every source in pool against objective, highest first. Ties
// keep pool order.
func Rank(pool []types.Source, objective string) []Scored {
	objKW := keywords.Set(objective)
	scored := make([]Scored, len(pool))
	for i, s := range pool {
		score, matching := Score(s, objKW)
		scored[i] = Scored{Source: s, Score: score, Matching: matching}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// Filter returns the sources scoring at least opts.MinScore, best first, up
// to opts.TopK. When no source clears the threshold and the pool is not
// empty, the FallbackCount best sources by raw score are returned instead.
func Filter(pool []types.Source, objective string, opts types.RelevanceOptions) []types.Source {
	if len(pool) == 0 {
		return nil
	}
	ranked := Rank(pool, objective)

	var out []types.Source
	for _, s := range ranked {
		if s.Score < opts.MinScore {
			break
		}
		if opts.TopK > 0 && len(out) >= opts.TopK {
			break
		}
		out = append(out, s.Source)
	}
	if len(out) > 0 {
		return out
	}

	n := FallbackCount
	if len(ranked) < n {
		n = len(ranked)
	}
	out = make([]types.Source, 0, n)
	for _, s := range ranked[:n] {
		out = append(out, s.Source)
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
