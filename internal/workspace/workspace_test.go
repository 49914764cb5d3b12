// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/paper-engine/internal/checkpoint"
	"github.com/pdiddy/paper-engine/pkg/types"
)

func newWorkspace(t *testing.T) *Workspace {
	root := t.TempDir()
	return Open(filepath.Join(root, "state"), filepath.Join(root, "output"), zaptest.NewLogger(t))
}

func samplePlan() *types.Plan {
	return &types.Plan{
		Topic:   "Graph neural networks for drug discovery",
		Profile: "generic_academic",
		Sections: []types.SectionPlan{
			{ID: 0, Title: "Introduction", Status: types.StatusValidated},
			{ID: 1, Title: "Results", Status: types.StatusSkipped},
			{ID: 2, Title: "Discussion", Status: types.StatusFailed},
			{ID: 3, Title: "Conclusion", Status: types.StatusPending},
		},
		SourceIDs: []string{"arxiv:1"},
	}
}

func TestStateAndPlanRoundTrip(t *testing.T) {
	w := newWorkspace(t)
	assert.False(t, w.Initialized())

	st := NewRunState(types.ProjectConfig{Topic: "Graph neural networks", Template: []string{"Introduction"}}, "generic_academic")
	assert.NotEmpty(t, st.RunID)
	require.NoError(t, w.SaveState(st))
	require.NoError(t, w.SavePlan(samplePlan()))
	assert.True(t, w.Initialized())

	gotSt, err := w.LoadState()
	require.NoError(t, err)
	assert.Equal(t, st.RunID, gotSt.RunID)
	assert.Equal(t, "Graph neural networks", gotSt.Config.Topic)

	gotPlan, err := w.LoadPlan()
	require.NoError(t, err)
	require.Len(t, gotPlan.Sections, 4)
	assert.Equal(t, types.StatusSkipped, gotPlan.Sections[1].Status)
	assert.Equal(t, []string{"arxiv:1"}, gotPlan.SourceIDs)
}

func TestLoadMissingIsNotInitialized(t *testing.T) {
	w := newWorkspace(t)
	_, err := w.LoadState()
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = w.LoadPlan()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestResume(t *testing.T) {
	w := newWorkspace(t)
	_, err := w.Resume()
	assert.ErrorIs(t, err, ErrNotResumable)

	require.NoError(t, w.SaveState(NewRunState(types.ProjectConfig{}, "generic_academic")))
	require.NoError(t, w.SavePlan(samplePlan()))
	assert.False(t, w.CanResume(), "checkpoint still missing")
	_, err = w.Resume()
	assert.ErrorIs(t, err, ErrNotResumable)

	require.NoError(t, w.Checkpoints.Save(3, []int{0}, []types.ContextSummary{{SectionID: 0, Title: "Introduction"}}))
	assert.True(t, w.CanResume())
	r, err := w.Resume()
	require.NoError(t, err)
	assert.Equal(t, 3, r.Checkpoint.NextSectionID)
	assert.Len(t, r.Checkpoint.ContextCache, 1)
	assert.Len(t, r.Plan.Sections, 4)

	require.NoError(t, os.WriteFile(w.Checkpoints.CheckpointPath(), []byte("{{{"), 0o644))
	_, err = w.Resume()
	assert.ErrorIs(t, err, checkpoint.ErrCorruptState)
}

func TestSectionArtifacts(t *testing.T) {
	w := newWorkspace(t)
	sec := &types.SectionPlan{ID: 3, Title: "Literature Review: State of the Art"}

	path, err := w.WriteSection(sec, "\nBody text [arxiv:1].\n\n")
	require.NoError(t, err)
	assert.Equal(t, "03-literature-review-state-of-the-art.md", sec.File)
	assert.Equal(t, filepath.Join(w.SectionsDir(), sec.File), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Literature Review: State of the Art\n\nBody text [arxiv:1].\n", string(data))

	body, err := w.ReadSection(sec)
	require.NoError(t, err)
	assert.Equal(t, "Body text [arxiv:1].", body)

	_, err = w.WriteSection(&types.SectionPlan{ID: 0, Title: "Intro"}, "x")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(w.SectionsDir(), "notes.txt"), nil, 0o644))

	files, err := w.SectionFiles()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "00-intro.md", filepath.Base(files[0]))
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Introduction":                    "introduction",
		"  1.1 Background to the Study  ": "1-1-background-to-the-study",
		"Researcher's Specific Approach":  "researcher-s-specific-approach",
		"???":                             "section",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestReset(t *testing.T) {
	w := newWorkspace(t)
	require.NoError(t, w.SaveState(NewRunState(types.ProjectConfig{}, "generic_academic")))
	require.NoError(t, w.SavePlan(samplePlan()))
	require.NoError(t, w.Checkpoints.Save(1, []int{0}, nil))
	_, err := w.WriteSection(&types.SectionPlan{ID: 0, Title: "Intro"}, "x")
	require.NoError(t, err)
	keep := filepath.Join(w.StateDir, "sources.db")
	require.NoError(t, os.WriteFile(keep, []byte("db"), 0o644))

	require.NoError(t, w.Reset())
	assert.False(t, w.Initialized())
	assert.False(t, w.CanResume())
	files, err := w.SectionFiles()
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.FileExists(t, keep)

	require.NoError(t, w.Reset(), "reset is idempotent")
}

func TestProgress(t *testing.T) {
	pr := Progress(samplePlan())
	assert.Equal(t, 4, pr.Total)
	assert.Equal(t, 1, pr.Validated)
	assert.Equal(t, 1, pr.Skipped)
	assert.Equal(t, 1, pr.Failed)
	assert.Equal(t, 1, pr.Remaining)
	assert.InDelta(t, 75.0, pr.Percentage, 1e-9)
	assert.Equal(t, "[3] Conclusion", pr.NextSection)

	assert.Equal(t, types.Progress{}, Progress(&types.Plan{}))
}
