// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package plan validates project input and builds the fixed section plan:
// template profiles, profile detection, per-section objectives, and the
// project-type gate that decides which sections a project may claim.
package plan

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/paper-engine/pkg/types"
)

// Build creates the plan for a validated project. Every section starts
// pending; the project-type gate is applied by the orchestrator.
func Build(cfg types.ProjectConfig, now time.Time) types.Plan {
	profile := ResolveProfile(cfg)

	sections := make([]types.SectionPlan, 0, len(cfg.Template))
	for i, title := range cfg.Template {
		sp := profile.Section(title)

		minCit := sp.MinCitations
		if cfg.MinCitations > 0 {
			minCit = cfg.MinCitations
		}
		maxWords := sp.MaxWords
		if cfg.MaxSectionWords > 0 {
			maxWords = cfg.MaxSectionWords
		}

		sections = append(sections, types.SectionPlan{
			ID:           i,
			Title:        title,
			Objective:    Objective(title),
			Guidance:     guidanceFor(cfg.Guidance, title),
			MinCitations: minCit,
			MaxWords:     maxWords,
			Strategy:     sp.Strategy,
			Status:       types.StatusPending,
		})
	}

	return types.Plan{
		Topic:     cfg.Topic,
		Profile:   profile.Name,
		Sections:  sections,
		SourceIDs: []string{},
		CreatedAt: now.UTC(),
	}
}

// ResolveProfile returns the profile named by cfg.Profile, or the detected
// one when no name is given.
func ResolveProfile(cfg types.ProjectConfig) Profile {
	if cfg.Profile != "" {
		p, _ := LookupProfile(cfg.Profile)
		return p
	}
	return DetectProfile(cfg.Template)
}

// Objective returns the default objective for a section title.
func Objective(title string) string {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "introduction"):
		return "Introduce the topic, provide background, and state research objectives"
	case strings.Contains(t, "literature"), strings.Contains(t, "review"):
		return "Review existing research and identify gaps"
	case strings.Contains(t, "method"):
		return "Describe research methods and approach"
	case strings.Contains(t, "result"), strings.Contains(t, "finding"):
		return "Present research findings and analysis"
	case strings.Contains(t, "discussion"):
		return "Interpret findings and discuss implications"
	case strings.Contains(t, "conclusion"):
		return "Summarize findings and suggest future work"
	default:
		return fmt.Sprintf("Address the requirements of the %s section", title)
	}
}

// guidanceFor looks up guidance by exact title, then case-insensitively.
func guidanceFor(guidance map[string]string, title string) string {
	if g, ok := guidance[title]; ok {
		return g
	}
	for k, g := range guidance {
		if strings.EqualFold(k, title) {
			return g
		}
	}
	return ""
}

// resultSignals mark sections that report original results.
var resultSignals = []string{"result", "test-run", "experiment", "evaluation"}

// Gate reports whether a project of type pt may generate a section titled
// title. Review and proposal projects cannot claim original results, so
// result sections are rejected with a reason.
func Gate(pt types.ProjectType, title string) (bool, string) {
	if pt != types.ProjectReview && pt != types.ProjectProposal {
		return true, ""
	}
	t := strings.ToLower(title)
	for _, sig := range resultSignals {
		if strings.Contains(t, sig) {
			return false, fmt.Sprintf("%s projects do not report original results (%q matches %q)", pt, title, sig)
		}
	}
	return true, ""
}
