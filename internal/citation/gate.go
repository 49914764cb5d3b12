// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citation validates the citation markers of generated section text
// against the source registry and infers gap topics around citations that
// do not resolve.
package citation

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/pdiddy/paper-engine/pkg/types"
)

// markerRe matches a bracketed provider-qualified source ID, optionally
// followed by a quoted snippet: [arxiv:1706.03762] or
// [doi:10.1145/3368089: "exact quote"].
var markerRe = regexp.MustCompile(`\[((?:arxiv|doi|s2|openalex):[^\s\]]+?)(?::\s*"[^"]*")?\]`)

const (
	// DefaultWordTolerance is the allowed relative deviation from the word target.
	DefaultWordTolerance = 0.10

	// TopicsPerCitation caps the gap topics taken around one missing citation.
	TopicsPerCitation = 5

	// MaxTopics caps the gap topics of one validation.
	MaxTopics = 5
)

// SourceLookup reports whether a source ID is registered.
type SourceLookup interface {
	Has(id string) bool
}

// Gate validates generated text. It holds no state between calls: the same
// text against the same registry always yields the same result.
type Gate struct {
	Sources       SourceLookup
	WordTolerance float64
}

// NewGate returns a Gate over sources with the default word tolerance.
func NewGate(sources SourceLookup) *Gate {
	return &Gate{Sources: sources, WordTolerance: DefaultWordTolerance}
}

// Marker is one citation marker occurrence in text.
type Marker struct {
	ID    string
	Start int
	End   int
}

// Markers returns every citation marker in text in order of appearance.
func Markers(text string) []Marker {
	var out []Marker
	for _, m := range markerRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, Marker{ID: text[m[2]:m[3]], Start: m[0], End: m[1]})
	}
	return out
}

// Extract returns the unique cited source IDs in order of first appearance.
func Extract(text string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, m := range Markers(text) {
		if !seen[m.ID] {
			seen[m.ID] = true
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// WordCount returns the whitespace-delimited word count of text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Validate checks text for one section. Unknown citations are critical;
// too few citations and a word count outside the tolerance band are
// warnings. The result passes iff no issue is critical.
func (g *Gate) Validate(sectionID int, text string, minCitations, targetWords int) types.ValidationResult {
	result := types.ValidationResult{
		SectionID: sectionID,
		Citations: Extract(text),
		WordCount: WordCount(text),
	}

	var missing []string
	for _, id := range result.Citations {
		if g.Sources != nil && g.Sources.Has(id) {
			continue
		}
		missing = append(missing, id)
		result.Issues = append(result.Issues, types.ValidationIssue{
			Kind:       types.IssueCitationInvalid,
			Severity:   types.SeverityCritical,
			Message:    fmt.Sprintf("Citation %s not found in sources", id),
			Suggestion: "Remove the citation or cite a source from the provided list",
			Location:   firstLocation(text, id),
		})
	}

	if len(missing) > 0 {
		result.MissingTopics = GapTopics(text, missing)
	}

	if minCitations > 0 && len(result.Citations) < minCitations {
		result.Issues = append(result.Issues, types.ValidationIssue{
			Kind:       types.IssueCitationMissing,
			Severity:   types.SeverityWarning,
			Message:    fmt.Sprintf("Only %d citations, need %d", len(result.Citations), minCitations),
			Suggestion: fmt.Sprintf("Add %d more citations", minCitations-len(result.Citations)),
		})
	}

	tol := g.WordTolerance
	if tol <= 0 {
		tol = DefaultWordTolerance
	}
	if targetWords > 0 && math.Abs(float64(result.WordCount-targetWords)) > float64(targetWords)*tol {
		result.Issues = append(result.Issues, types.ValidationIssue{
			Kind:       types.IssueWordCount,
			Severity:   types.SeverityWarning,
			Message:    fmt.Sprintf("Word count %d outside ±%.0f%% of %d", result.WordCount, tol*100, targetWords),
			Suggestion: fmt.Sprintf("Adjust length to ~%d words", targetWords),
		})
	}

	result.Passed = !types.HasCritical(result.Issues)
	return result
}

func firstLocation(text, id string) string {
	for _, m := range Markers(text) {
		if m.ID == id {
			return fmt.Sprintf("offset %d", m.Start)
		}
	}
	return ""
}
