// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package writer builds generation prompts for sections and objective
// refinement, and post-processes generated section text.
package writer

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/paper-engine/pkg/types"
)

const abstractPreview = 300

var funcs = template.FuncMap{
	"join":    strings.Join,
	"preview": preview,
}

func preview(s string) string {
	if len(s) <= abstractPreview {
		return s
	}
	return s[:abstractPreview] + "..."
}

var sectionPromptTmpl = template.Must(template.New("section").Funcs(funcs).Parse(`You are an expert academic writer.

# PAPER CONTEXT
Topic: {{.Topic}}
Project Type: {{.ProjectType}}
Section: {{.Section.Title}}
Objective: {{.Section.Objective}}
{{if .Section.Guidance}}
# GUIDANCE FOR THIS SECTION
{{.Section.Guidance}}
{{end}}
{{.Constraints}}
{{if .Artifacts}}# PROJECT ARTIFACTS (YOUR ORIGINAL WORK)
{{range .Artifacts}}- {{.Type}}: {{.Description}}
{{end}}{{else}}# NO ORIGINAL ARTIFACTS PROVIDED
{{end}}
# YOUR TASK
Write about {{.Section.MaxWords}} words with at least {{.Section.MinCitations}} citations.
{{if .PriorContext}}
# PRIOR SECTIONS (BUILD ON THIS, DO NOT REPEAT IT)
{{.PriorContext}}
{{end}}{{if .GapTopics}}
# PREVIOUS ATTEMPT CITED SOURCES THAT DO NOT EXIST
Cover these topics only with sources from the list below: {{join .GapTopics ", "}}.
{{end}}
# AVAILABLE SOURCES (CITE USING EXACT IDs)
{{range .Sources}}
Source ID: {{.ID}}
Title: {{.Title}}
Authors: {{join .Authors ", "}}
Year: {{.Year}}
Abstract: {{preview .Abstract}}
{{else}}
(no sources available: make no specific factual claims that would need a citation)
{{end}}
# CITATION EXAMPLES (COPY THIS FORMAT EXACTLY)
Correct: "Graph neural networks improve retrieval [{{.ExampleID}}]."
Correct: "The authors found that [{{.ExampleID}}: "accuracy increased by 15%"]."
Wrong: "Recent work [source_id] shows..." (generic placeholder)
Wrong: "Studies [1] demonstrate..." (numbered reference)

# CITATION RULES
1. ONLY use source IDs from the list above (e.g. {{.ExampleID}}).
2. NEVER use placeholders like [source_id], [source_01], [1], [2].
3. EVERY factual claim needs a citation with a real ID.
4. If no listed source supports a claim, state it more generally.

# STYLE
- Tone: {{.Style.Tone}}
- Complexity level: {{.Style.Complexity}}
- Citation style: {{.Style.CitationFormat}}
{{if .Style.AdditionalInstructions}}- Additional requirements: {{.Style.AdditionalInstructions}}
{{end}}
# OUTPUT FORMAT
Write the section body in Markdown without repeating the section title. Begin now:
`))

var refinePromptTmpl = template.Must(template.New("refine").Funcs(funcs).Parse(`You are planning an academic paper on: {{.Topic}}

The next section is "{{.Section.Title}}" with the objective:
{{.Section.Objective}}

Earlier sections established these key findings:
{{range .Findings}}- {{.Text}}
{{end}}
Rewrite the objective in one or two sentences so the section builds on these
findings without repeating them. Reply with the objective only.
`))

// SectionInput is everything the section prompt is rendered from.
type SectionInput struct {
	Topic        string
	ProjectType  types.ProjectType
	Section      types.SectionPlan
	Artifacts    []types.Artifact
	Style        types.Style
	Sources      []types.Source
	PriorContext string
	GapTopics    []string
}

// SectionPrompt renders the generation prompt for one section attempt.
func SectionPrompt(in SectionInput) (string, error) {
	example := "arxiv:1706.03762"
	if len(in.Sources) > 0 {
		example = in.Sources[0].ID
	}
	data := struct {
		SectionInput
		Constraints string
		ExampleID   string
	}{in, EpistemicConstraints(in.ProjectType, len(in.Artifacts) > 0), example}

	var buf bytes.Buffer
	if err := sectionPromptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering section prompt: %w", err)
	}
	return buf.String(), nil
}

// RefinePrompt renders the objective-refinement prompt.
func RefinePrompt(topic string, sec types.SectionPlan, findings []types.Finding) (string, error) {
	var buf bytes.Buffer
	err := refinePromptTmpl.Execute(&buf, struct {
		Topic    string
		Section  types.SectionPlan
		Findings []types.Finding
	}{topic, sec, findings})
	if err != nil {
		return "", fmt.Errorf("rendering refine prompt: %w", err)
	}
	return buf.String(), nil
}

// CleanObjective trims a refinement reply to a single objective line,
// dropping an "Objective:" label and surrounding quotes.
func CleanObjective(resp string) string {
	s := strings.TrimSpace(resp)
	if i := strings.Index(s, "\n\n"); i >= 0 {
		s = s[:i]
	}
	s = strings.Join(strings.Fields(s), " ")
	for _, p := range []string{"Objective:", "OBJECTIVE:", "objective:"} {
		s = strings.TrimSpace(strings.TrimPrefix(s, p))
	}
	return strings.Trim(s, `"'`)
}

// MaxTokens is the output budget for a section of the given word target.
func MaxTokens(targetWords int) int {
	if targetWords <= 0 {
		targetWords = 1500
	}
	return targetWords * 2
}

// EpistemicConstraints states what a project of type pt may claim.
func EpistemicConstraints(pt types.ProjectType, hasArtifacts bool) string {
	switch pt {
	case types.ProjectReview:
		return `# EPISTEMIC CONSTRAINTS (PROJECT TYPE: REVIEW)
1. You are writing a systematic review.
2. Do not claim to have performed original experiments, measurements, or software development.
3. Forbidden phrases: "I measured", "We developed", "Our system", "In our study".
4. Attribute findings to the literature: "Previous studies by [source] suggest".
5. A claim not in the provided sources cannot be stated as a finding of this paper.
`
	case types.ProjectProposal:
		return `# EPISTEMIC CONSTRAINTS (PROJECT TYPE: PROPOSAL)
1. You are writing a research proposal for future work.
2. Use the future tense for methodology and expected results ("We will measure").
3. Do not claim that results have already been obtained.
`
	case types.ProjectEmpirical, types.ProjectComputational:
		if !hasArtifacts {
			return fmt.Sprintf(`# EPISTEMIC CONSTRAINTS (PROJECT TYPE: %s, NO ARTIFACTS)
1. No original artifacts were provided, so report no original results.
2. Frame methods as a proposed methodology or theoretical framework.
3. Do not invent data points or code features.
4. Label any discussion of outcomes as EXPECTED OUTCOMES.
`, strings.ToUpper(string(pt)))
		}
		return fmt.Sprintf(`# EPISTEMIC CONSTRAINTS (PROJECT TYPE: %s)
1. Report findings based only on the provided artifacts.
2. Be precise about what you did versus what the sources report.
`, strings.ToUpper(string(pt)))
	}
	return ""
}
