// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SectionStatus tracks a section through the generation state machine:
// pending → in_progress → {validated, failed, skipped}. Skipped is reached
// directly from pending when the project-type gate rejects the section.
type SectionStatus string

const (
	StatusPending    SectionStatus = "pending"
	StatusInProgress SectionStatus = "in_progress"
	StatusValidated  SectionStatus = "validated"
	StatusFailed     SectionStatus = "failed"
	StatusSkipped    SectionStatus = "skipped"
)

// Terminal reports whether no further work is done for a section in this status.
func (s SectionStatus) Terminal() bool {
	return s == StatusValidated || s == StatusFailed || s == StatusSkipped
}

// ResearchStrategy controls how strictly sources are filtered for a section.
type ResearchStrategy string

const (
	StrategyGlobal   ResearchStrategy = "global"
	StrategyTargeted ResearchStrategy = "targeted"
)

// SectionPlan is one planned unit of output. Only the orchestrator mutates
// Status, RetryCount, and (once) Objective.
type SectionPlan struct {
	// ID is the zero-based sequence position.
	ID int `json:"id" yaml:"id"`

	// Title is the section heading.
	Title string `json:"title" yaml:"title"`

	// Objective states what the section must accomplish.
	Objective string `json:"objective" yaml:"objective"`

	// ObjectiveRefined is set once the objective-refinement step has run.
	ObjectiveRefined bool `json:"objective_refined" yaml:"objective_refined"`

	// Guidance is free-form writing guidance for the section.
	Guidance string `json:"guidance,omitempty" yaml:"guidance,omitempty"`

	// MinCitations is the citation count below which a warning is raised.
	MinCitations int `json:"min_citations" yaml:"min_citations"`

	// MaxWords is the target word count; the gate tolerates ±10%.
	MaxWords int `json:"max_words" yaml:"max_words"`

	// Strategy selects global or targeted source filtering.
	Strategy ResearchStrategy `json:"strategy" yaml:"strategy"`

	// Status is the state machine position.
	Status SectionStatus `json:"status" yaml:"status"`

	// RetryCount is the number of generation attempts made so far.
	RetryCount int `json:"retry_count" yaml:"retry_count"`

	// File is the section artifact filename once validated.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// Plan is the ordered section sequence fixed at plan-creation time.
type Plan struct {
	// Topic is the document topic.
	Topic string `json:"topic" yaml:"topic"`

	// Profile names the template profile the plan was built from.
	Profile string `json:"profile" yaml:"profile"`

	// Sections lists the sections in generation order.
	Sections []SectionPlan `json:"sections" yaml:"sections"`

	// SourceIDs lists every registered source from global research.
	SourceIDs []string `json:"source_ids" yaml:"source_ids"`

	// CreatedAt records when the plan was built.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Section returns a pointer to the section with the given ID, or nil.
func (p *Plan) Section(id int) *SectionPlan {
	for i := range p.Sections {
		if p.Sections[i].ID == id {
			return &p.Sections[i]
		}
	}
	return nil
}
