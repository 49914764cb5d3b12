// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compress reduces finished sections to short summaries with key
// findings and renders bounded context blocks from them for later prompts.
package compress

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-engine/internal/citation"
	"github.com/pdiddy/paper-engine/internal/generate"
	"github.com/pdiddy/paper-engine/internal/keywords"
	"github.com/pdiddy/paper-engine/pkg/types"
)

const (
	// DefaultWindow is the number of prior summaries in a context block.
	DefaultWindow = 3

	// MaxFindings caps the key findings kept per section.
	MaxFindings = 5

	// MaxKeyTerms caps the key terms kept per section.
	MaxKeyTerms = 10

	summaryMaxTokens = 500
	summaryInputLen  = 2000
)

var summaryPromptTmpl = template.Must(template.New("summary").Parse(`Summarize this academic paper section in 2-3 sentences.
Then extract 3-5 key findings with their source citations.

# Section: {{.Title}}

{{.Content}}

Output format:
SUMMARY: [2-3 sentence summary]

FINDINGS:
1. [Finding 1] (sources: arxiv:XXX, doi:YYY)
2. [Finding 2] (sources: arxiv:ZZZ)
`))

// Ledger is the list of section summaries of one run, ordered by section
// id. It never stores or alters section text.
type Ledger struct {
	gen       generate.Generator
	logger    *zap.Logger
	summaries []types.ContextSummary
}

// NewLedger returns a ledger seeded with cached summaries. gen may be nil,
// in which case every summary is extractive.
func NewLedger(gen generate.Generator, logger *zap.Logger, cached []types.ContextSummary) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Ledger{gen: gen, logger: logger}
	for _, s := range cached {
		l.insert(s)
	}
	return l
}

// Summaries returns a copy of the ledger contents.
func (l *Ledger) Summaries() []types.ContextSummary {
	out := make([]types.ContextSummary, len(l.summaries))
	copy(out, l.summaries)
	return out
}

// Len returns the number of recorded sections.
func (l *Ledger) Len() int { return len(l.summaries) }

// Record summarizes a finished section and stores it. A section recorded
// again, because it was redone, replaces its earlier summary.
func (l *Ledger) Record(ctx context.Context, sectionID int, title, content string, sourceIDs []string) types.ContextSummary {
	summary := types.ContextSummary{
		SectionID: sectionID,
		Title:     title,
		KeyTerms:  keywords.Top(citationFree(content), MaxKeyTerms),
	}

	text, findings, err := l.summarize(ctx, title, content)
	if err != nil || text == "" {
		if err != nil {
			l.logger.Warn("summary generation failed, using extractive summary",
				zap.Int("section", sectionID), zap.Error(err))
		}
		text, findings = Extractive(content, sourceIDs)
	}
	if len(findings) > MaxFindings {
		findings = findings[:MaxFindings]
	}
	summary.Summary = text
	summary.KeyFindings = findings

	if i, ok := l.find(sectionID); ok {
		l.logger.Debug("replacing section summary", zap.Int("section", sectionID))
		l.summaries[i] = summary
		return summary
	}
	l.insert(summary)
	return summary
}

func (l *Ledger) summarize(ctx context.Context, title, content string) (string, []types.Finding, error) {
	if l.gen == nil {
		return "", nil, nil
	}
	input := content
	if r := []rune(input); len(r) > summaryInputLen {
		input = string(r[:summaryInputLen])
	}
	var buf bytes.Buffer
	if err := summaryPromptTmpl.Execute(&buf, struct{ Title, Content string }{title, input}); err != nil {
		return "", nil, fmt.Errorf("rendering summary prompt: %w", err)
	}
	resp, err := l.gen.Generate(ctx, buf.String(), summaryMaxTokens)
	if err != nil {
		return "", nil, err
	}
	text, findings := ParseSummary(resp)
	return text, findings, nil
}

// Context renders the summaries of up to window sections preceding
// sectionID as a prompt block. It is empty when no prior section exists.
func (l *Ledger) Context(sectionID, window int) string {
	if window <= 0 {
		window = DefaultWindow
	}
	var prior []types.ContextSummary
	for _, s := range l.summaries {
		if s.SectionID < sectionID {
			prior = append(prior, s)
		}
	}
	if len(prior) > window {
		prior = prior[len(prior)-window:]
	}

	var parts []string
	for _, s := range prior {
		var b strings.Builder
		fmt.Fprintf(&b, "## %s (Summary)\n%s\n", s.Title, s.Summary)
		if len(s.KeyFindings) > 0 {
			b.WriteString("\nKey findings:\n")
			for _, f := range s.KeyFindings {
				fmt.Fprintf(&b, "- %s\n", f.Text)
			}
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n")
}

// PriorFindings returns the key findings of every section before sectionID,
// in section order.
func (l *Ledger) PriorFindings(sectionID int) []types.Finding {
	var out []types.Finding
	for _, s := range l.summaries {
		if s.SectionID < sectionID {
			out = append(out, s.KeyFindings...)
		}
	}
	return out
}

func (l *Ledger) find(sectionID int) (int, bool) {
	i := sort.Search(len(l.summaries), func(i int) bool {
		return l.summaries[i].SectionID >= sectionID
	})
	return i, i < len(l.summaries) && l.summaries[i].SectionID == sectionID
}

func (l *Ledger) insert(s types.ContextSummary) {
	i, ok := l.find(s.SectionID)
	if ok {
		return
	}
	l.summaries = append(l.summaries, types.ContextSummary{})
	copy(l.summaries[i+1:], l.summaries[i:])
	l.summaries[i] = s
}

// citationFree removes citation markers so source IDs do not become key terms.
func citationFree(text string) string {
	ms := citation.Markers(text)
	if len(ms) == 0 {
		return text
	}
	var b strings.Builder
	pos := 0
	for _, m := range ms {
		b.WriteString(text[pos:m.Start])
		b.WriteByte(' ')
		pos = m.End
	}
	b.WriteString(text[pos:])
	return b.String()
}
