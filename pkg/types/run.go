// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Finding is a key finding extracted from a completed section.
type Finding struct {
	Text      string   `json:"text" yaml:"text"`
	SourceIDs []string `json:"source_ids,omitempty" yaml:"source_ids,omitempty"`
}

// ContextSummary compresses one completed section for later prompts.
// The ledger of summaries is append-only and ordered by section ID.
type ContextSummary struct {
	SectionID   int       `json:"section_id" yaml:"section_id"`
	Title       string    `json:"title" yaml:"title"`
	Summary     string    `json:"summary" yaml:"summary"`
	KeyFindings []Finding `json:"key_findings" yaml:"key_findings"`
	KeyTerms    []string  `json:"key_terms" yaml:"key_terms"`
}

// Checkpoint is the single resumable cursor of a run. It is overwritten on
// every validated section and on interruption.
type Checkpoint struct {
	// NextSectionID is the first section not yet processed.
	NextSectionID int `json:"next_section_id" yaml:"next_section_id"`

	// CompletedSectionIDs lists validated sections in completion order.
	CompletedSectionIDs []int `json:"completed_section_ids" yaml:"completed_section_ids"`

	// Timestamp records when the checkpoint was written.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// ContextCache is the ledger at checkpoint time. It is persisted as a
	// separate record and may be empty on load.
	ContextCache []ContextSummary `json:"-" yaml:"-"`
}

// ProjectType constrains what the generated document may claim.
type ProjectType string

const (
	ProjectEmpirical     ProjectType = "empirical"
	ProjectComputational ProjectType = "computational"
	ProjectReview        ProjectType = "review"
	ProjectProposal      ProjectType = "proposal"
)

// Artifact describes original work supplied with the project.
type Artifact struct {
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
}

// Style holds writing style preferences.
type Style struct {
	Tone                   string `json:"tone" yaml:"tone"`
	CitationFormat         string `json:"citation_format" yaml:"citation_format"`
	Complexity             string `json:"complexity" yaml:"complexity"`
	AdditionalInstructions string `json:"additional_instructions,omitempty" yaml:"additional_instructions,omitempty"`
}

// ProjectConfig is the validated project input.
type ProjectConfig struct {
	// Topic is the document topic.
	Topic string `json:"topic" yaml:"topic"`

	// ProjectType is one of empirical, computational, review, proposal.
	ProjectType ProjectType `json:"project_type" yaml:"project_type"`

	// Template lists the section titles in order.
	Template []string `json:"template" yaml:"template"`

	// Profile forces a template profile by name; empty means auto-detect.
	Profile string `json:"profile,omitempty" yaml:"profile,omitempty"`

	// Guidance maps section titles to writing guidance.
	Guidance map[string]string `json:"guidance,omitempty" yaml:"guidance,omitempty"`

	// Style holds writing style preferences.
	Style Style `json:"style" yaml:"style"`

	// Artifacts lists original work the document may report on.
	Artifacts []Artifact `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`

	// MaxSectionWords overrides the profile word target when positive.
	MaxSectionWords int `json:"max_section_words,omitempty" yaml:"max_section_words,omitempty"`

	// MinCitations overrides the profile citation minimum when positive.
	MinCitations int `json:"min_citations,omitempty" yaml:"min_citations,omitempty"`

	// Sources lists arXiv IDs, DOIs, or their URLs for references that join
	// the source pool before research runs.
	Sources []string `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// RunState is the run-level record: configuration plus outcome lists.
type RunState struct {
	RunID             string        `json:"run_id" yaml:"run_id"`
	Config            ProjectConfig `json:"config" yaml:"config"`
	Profile           string        `json:"profile" yaml:"profile"`
	CompletedSections []int         `json:"completed_sections" yaml:"completed_sections"`
	FailedSections    []int         `json:"failed_sections" yaml:"failed_sections"`
	SkippedSections   []int         `json:"skipped_sections" yaml:"skipped_sections"`
	ResearchComplete  bool          `json:"research_complete" yaml:"research_complete"`
	CreatedAt         time.Time     `json:"created_at" yaml:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" yaml:"updated_at"`
}

// Progress summarizes a run for display.
type Progress struct {
	Total       int     `json:"total"`
	Validated   int     `json:"validated"`
	Failed      int     `json:"failed"`
	Skipped     int     `json:"skipped"`
	Remaining   int     `json:"remaining"`
	Percentage  float64 `json:"percentage"`
	NextSection string  `json:"next_section,omitempty"`
}
