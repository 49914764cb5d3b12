// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compress

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/paper-engine/pkg/types"
)

type fakeGen struct {
	resp    string
	err     error
	prompts []string
}

func (f *fakeGen) Generate(_ context.Context, prompt string, _ int) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.resp, f.err
}

const llmSummary = `SUMMARY: Transformers replaced recurrence with attention.

FINDINGS:
1. Self-attention scales to long sequences (sources: arxiv:1706.03762)
2. Pretraining improves transfer (sources: arxiv:1810.04805, doi:10.1/x)
3. A finding without sources
`

const sectionText = `# Background

Attention mechanisms transformed sequence modeling [arxiv:1706.03762]. Pretrained transformers dominate benchmarks [arxiv:1810.04805].
Transformers remain expensive.`

func TestParseSummary(t *testing.T) {
	summary, findings := ParseSummary(llmSummary)
	assert.Equal(t, "Transformers replaced recurrence with attention.", summary)
	require.Len(t, findings, 2)
	assert.Equal(t, "Self-attention scales to long sequences", findings[0].Text)
	assert.Equal(t, []string{"arxiv:1706.03762"}, findings[0].SourceIDs)
	assert.Equal(t, []string{"arxiv:1810.04805", "doi:10.1/x"}, findings[1].SourceIDs)
}

func TestRecordUsesGenerator(t *testing.T) {
	gen := &fakeGen{resp: llmSummary}
	l := NewLedger(gen, zaptest.NewLogger(t), nil)

	s := l.Record(context.Background(), 0, "Background", sectionText, []string{"arxiv:1706.03762"})
	assert.Equal(t, "Transformers replaced recurrence with attention.", s.Summary)
	assert.Len(t, s.KeyFindings, 2)
	assert.Contains(t, s.KeyTerms, "transformers")
	for _, term := range s.KeyTerms {
		assert.NotContains(t, term, "1706", "citation IDs are not key terms")
	}
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "# Section: Background")
	assert.Equal(t, 1, l.Len())
}

func TestRecordFallsBackToExtractive(t *testing.T) {
	gen := &fakeGen{err: errors.New("backend down")}
	l := NewLedger(gen, zaptest.NewLogger(t), nil)

	s := l.Record(context.Background(), 0, "Background", sectionText, nil)
	assert.Equal(t, "Attention mechanisms transformed sequence modeling. Pretrained transformers dominate benchmarks.", s.Summary)
	require.Len(t, s.KeyFindings, 2)
	assert.Equal(t, []string{"arxiv:1706.03762"}, s.KeyFindings[0].SourceIDs)
	assert.Equal(t, []string{"arxiv:1810.04805"}, s.KeyFindings[1].SourceIDs)
}

func TestRecordCapsFindings(t *testing.T) {
	var b strings.Builder
	b.WriteString("SUMMARY: s\nFINDINGS:\n")
	for i := 0; i < 8; i++ {
		b.WriteString("1. finding (sources: arxiv:1)\n")
	}
	l := NewLedger(&fakeGen{resp: b.String()}, nil, nil)
	s := l.Record(context.Background(), 0, "T", "text", nil)
	assert.Len(t, s.KeyFindings, MaxFindings)
}

func TestRecordReplacesRedoneSection(t *testing.T) {
	l := NewLedger(nil, nil, []types.ContextSummary{
		{SectionID: 1, Title: "One", Summary: "Discarded draft."},
	})
	again := l.Record(context.Background(), 1, "One", "Second version.", nil)
	assert.Equal(t, "Second version.", again.Summary)
	require.Equal(t, 1, l.Len())
	assert.Equal(t, "Second version.", l.Summaries()[0].Summary)
	assert.NotContains(t, l.Context(2, 3), "Discarded draft.")
}

func TestSummaryInputCutOnRuneBoundary(t *testing.T) {
	gen := &fakeGen{resp: llmSummary}
	l := NewLedger(gen, nil, nil)
	content := "a" + strings.Repeat("é", summaryInputLen)

	l.Record(context.Background(), 0, "Accents", content, nil)
	require.Len(t, gen.prompts, 1)
	assert.True(t, utf8.ValidString(gen.prompts[0]))
	assert.Contains(t, gen.prompts[0], "a"+strings.Repeat("é", summaryInputLen-1)+"\n")
	assert.NotContains(t, gen.prompts[0], strings.Repeat("é", summaryInputLen))
}

func TestContextWindow(t *testing.T) {
	l := NewLedger(nil, nil, nil)
	ctx := context.Background()
	assert.Empty(t, l.Context(0, 3), "first section has no prior context")

	for i, title := range []string{"Intro", "Related", "Method", "Results", "Discussion"} {
		l.Record(ctx, i, title, title+" body sentence.", nil)
	}

	block := l.Context(4, 3)
	assert.NotContains(t, block, "## Intro")
	assert.Contains(t, block, "## Related (Summary)")
	assert.Contains(t, block, "## Method (Summary)")
	assert.Contains(t, block, "## Results (Summary)")
	assert.NotContains(t, block, "## Discussion")

	assert.Contains(t, l.Context(1, 3), "## Intro (Summary)")
	assert.Contains(t, l.Context(4, 0), "## Related", "zero window uses the default")
}

func TestLedgerSeededOutOfOrder(t *testing.T) {
	cached := []types.ContextSummary{
		{SectionID: 2, Title: "C", KeyFindings: []types.Finding{{Text: "c"}}},
		{SectionID: 0, Title: "A", KeyFindings: []types.Finding{{Text: "a"}}},
	}
	l := NewLedger(nil, nil, cached)
	got := l.Summaries()
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].SectionID)
	assert.Equal(t, 2, got[1].SectionID)

	assert.Equal(t, []types.Finding{{Text: "a"}, {Text: "c"}}, l.PriorFindings(3))
	assert.Empty(t, l.PriorFindings(0))
}

func TestSplitSentencesKeepsTrailingMarker(t *testing.T) {
	got := splitSentences("Claim one. [arxiv:1706.03762] Claim two [doi:10.1/a.b].")
	require.Len(t, got, 2)
	assert.Equal(t, "Claim one. [arxiv:1706.03762]", got[0])
	assert.Equal(t, "Claim two [doi:10.1/a.b].", got[1])
}
