// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Severity ranks a validation issue. Only Critical blocks a section.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
)

// IssueKind categorizes a validation issue.
type IssueKind string

const (
	IssueCitationInvalid IssueKind = "citation_invalid"
	IssueCitationMissing IssueKind = "citation_missing"
	IssueWordCount       IssueKind = "word_count"
)

// ValidationIssue is one finding from the citation gate. Never mutated after creation.
type ValidationIssue struct {
	Kind       IssueKind `json:"kind" yaml:"kind"`
	Severity   Severity  `json:"severity" yaml:"severity"`
	Message    string    `json:"message" yaml:"message"`
	Suggestion string    `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	Location   string    `json:"location,omitempty" yaml:"location,omitempty"`
}

// ValidationResult is the gate verdict for one generated section.
type ValidationResult struct {
	SectionID int               `json:"section_id" yaml:"section_id"`
	Passed    bool              `json:"passed" yaml:"passed"`
	Issues    []ValidationIssue `json:"issues" yaml:"issues"`

	// MissingTopics are gap keywords inferred around invalid citations.
	// They key the supplemental search on retry.
	MissingTopics []string `json:"missing_topics,omitempty" yaml:"missing_topics,omitempty"`

	// Citations lists the unique citation IDs found, valid or not, in order
	// of first appearance.
	Citations []string `json:"citations,omitempty" yaml:"citations,omitempty"`

	// WordCount is the whitespace-delimited word count of the text.
	WordCount int `json:"word_count" yaml:"word_count"`
}

// HasCritical reports whether any issue is critical.
func HasCritical(issues []ValidationIssue) bool {
	for _, is := range issues {
		if is.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// Critical returns the critical issues.
func (r ValidationResult) Critical() []ValidationIssue {
	var out []ValidationIssue
	for _, is := range r.Issues {
		if is.Severity == SeverityCritical {
			out = append(out, is)
		}
	}
	return out
}
