// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package plan

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-engine/pkg/types"
)

func TestProfilesLoaded(t *testing.T) {
	assert.Equal(t, []string{CSProject, GenericAcademic}, ProfileNames())

	p, ok := LookupProfile(GenericAcademic)
	require.True(t, ok)
	assert.Len(t, p.Sections, 6)

	p, ok = LookupProfile("nope")
	assert.False(t, ok)
	assert.Equal(t, GenericAcademic, p.Name)
}

func TestSectionProfileLookup(t *testing.T) {
	p, _ := LookupProfile(GenericAcademic)

	lit := p.Section("Literature Review")
	assert.Equal(t, 10, lit.MinCitations)
	assert.Equal(t, types.StrategyTargeted, lit.Strategy)

	cs, _ := LookupProfile(CSProject)
	bg := cs.Section("1.1 Background to the Study")
	assert.Equal(t, "Background to the Study", bg.Title, "fuzzy match on contained title")
	assert.Equal(t, types.StrategyGlobal, bg.Strategy)

	def := p.Section("Ethical Considerations")
	assert.Equal(t, p.DefaultCitations, def.MinCitations)
	assert.Equal(t, 1500, def.MaxWords)
}

func TestDetectProfile(t *testing.T) {
	cs := []string{"Introduction", "System Analysis", "System Design", "System Implementation", "Conclusion"}
	assert.Equal(t, CSProject, DetectProfile(cs).Name)

	two := []string{"Introduction", "System Design", "System Test-Run"}
	assert.Equal(t, GenericAcademic, DetectProfile(two).Name)
}

func TestBuild(t *testing.T) {
	cfg := types.ProjectConfig{
		Topic:    "Retrieval augmented generation for science",
		Template: []string{"Introduction", "Literature Review", "Results"},
		Guidance: map[string]string{"introduction": "Keep it short."},
	}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := Build(cfg, now)

	assert.Equal(t, GenericAcademic, p.Profile)
	assert.Equal(t, now, p.CreatedAt)
	require.Len(t, p.Sections, 3)
	for i, s := range p.Sections {
		assert.Equal(t, i, s.ID)
		assert.Equal(t, types.StatusPending, s.Status)
	}
	assert.Equal(t, "Keep it short.", p.Sections[0].Guidance)
	assert.Equal(t, 3, p.Sections[0].MinCitations)
	assert.Equal(t, types.StrategyTargeted, p.Sections[1].Strategy)
	assert.Equal(t, "Present research findings and analysis", p.Sections[2].Objective)

	cfg.MinCitations = 1
	cfg.MaxSectionWords = 400
	p = Build(cfg, now)
	assert.Equal(t, 1, p.Sections[1].MinCitations)
	assert.Equal(t, 400, p.Sections[1].MaxWords)
}

func TestObjective(t *testing.T) {
	tests := map[string]string{
		"1. Introduction":   "Introduce the topic, provide background, and state research objectives",
		"Literature Review": "Review existing research and identify gaps",
		"Methodology":       "Describe research methods and approach",
		"Key Findings":      "Present research findings and analysis",
		"Discussion":        "Interpret findings and discuss implications",
		"Conclusion":        "Summarize findings and suggest future work",
		"Ethics":            "Address the requirements of the Ethics section",
	}
	for title, want := range tests {
		assert.Equal(t, want, Objective(title), title)
	}
}

func TestGate(t *testing.T) {
	tests := []struct {
		pt    types.ProjectType
		title string
		allow bool
	}{
		{types.ProjectReview, "Results", false},
		{types.ProjectProposal, "Experimental Evaluation", false},
		{types.ProjectReview, "System Test-Run", false},
		{types.ProjectReview, "Literature Review", true},
		{types.ProjectEmpirical, "Results", true},
		{types.ProjectComputational, "Evaluation", true},
	}
	for _, tt := range tests {
		allow, reason := Gate(tt.pt, tt.title)
		assert.Equal(t, tt.allow, allow, "%s/%s", tt.pt, tt.title)
		if !allow {
			assert.NotEmpty(t, reason)
		}
	}
}

func TestValidate(t *testing.T) {
	good := types.ProjectConfig{
		Topic:    "  Impact of microplastics on marine biodiversity ",
		Template: []string{" Introduction ", "Discussion"},
	}
	cfg, err := Validate(good)
	require.NoError(t, err)
	assert.Equal(t, "Impact of microplastics on marine biodiversity", cfg.Topic)
	assert.Equal(t, []string{"Introduction", "Discussion"}, cfg.Template)
	assert.Equal(t, types.ProjectEmpirical, cfg.ProjectType)
	assert.Equal(t, "professional", cfg.Style.Tone)
	assert.Equal(t, "APA", cfg.Style.CitationFormat)
	assert.Equal(t, "undergraduate", cfg.Style.Complexity)

	bad := map[string]types.ProjectConfig{
		"short topic":   {Topic: "AI", Template: []string{"Intro"}},
		"no template":   {Topic: "A sufficiently long topic"},
		"blank section": {Topic: "A sufficiently long topic", Template: []string{"Intro", "  "}},
		"bad type":      {Topic: "A sufficiently long topic", Template: []string{"Intro"}, ProjectType: "essay"},
		"bad tone":      {Topic: "A sufficiently long topic", Template: []string{"Intro"}, Style: types.Style{Tone: "snarky"}},
		"bad profile":   {Topic: "A sufficiently long topic", Template: []string{"Intro"}, Profile: "legal"},
		"bad source":    {Topic: "A sufficiently long topic", Template: []string{"Intro"}, Sources: []string{"1706.03762", "ISBN 978-0"}},
	}
	for name, c := range bad {
		_, err := Validate(c)
		assert.ErrorIs(t, err, ErrInvalidProject, name)
	}
}

func TestLoadProject(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`topic: Graph neural networks for drug discovery
project_type: review
template:
  - Introduction
  - Results
style:
  tone: formal
sources:
  - arXiv:1706.03762
  - https://doi.org/10.1145/3368089
`), 0o644))

	cfg, err := LoadProject(path)
	require.NoError(t, err)
	assert.Equal(t, types.ProjectReview, cfg.ProjectType)
	assert.Equal(t, "formal", cfg.Style.Tone)
	assert.Len(t, cfg.Sources, 2)

	jsonPath := filepath.Join(dir, "project.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"topic": "Graph neural networks for drug discovery", "template": ["Introduction"]}`), 0o644))
	_, err = LoadProject(jsonPath)
	require.NoError(t, err)

	_, err = LoadProject(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
