// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/paper-engine/pkg/types"
)

func TestRegisterIsImmutable(t *testing.T) {
	r := NewMemory()
	ctx := context.Background()

	added, err := r.Register(ctx, types.Source{ID: "arxiv:1706.03762", Title: "Attention Is All You Need"})
	require.NoError(t, err)
	assert.True(t, added)

	added, err = r.Register(ctx, types.Source{ID: "arxiv:1706.03762", Title: "Changed"})
	require.NoError(t, err)
	assert.False(t, added)

	got, ok := r.Get("arxiv:1706.03762")
	require.True(t, ok)
	assert.Equal(t, "Attention Is All You Need", got.Title)
	assert.Equal(t, 1, r.Len())
}

func TestRegisterRejectsEmptyID(t *testing.T) {
	_, err := NewMemory().Register(context.Background(), types.Source{Title: "x"})
	assert.Error(t, err)
}

func TestOpenPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	r, err := Open(ctx, dir, logger)
	require.NoError(t, err)

	retrieved := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	src := types.Source{
		ID:          "doi:10.1145/3368089",
		Title:       "Graph Neural Networks",
		Authors:     []string{"Ada Lovelace", "Alan Turing"},
		Year:        2020,
		DOI:         "10.1145/3368089",
		Provider:    "openalex,semantic_scholar",
		Citations:   []string{"arxiv:1234.5678"},
		MergedFrom:  []string{"doi:10.1145/3368089", "s2:abc"},
		RetrievedAt: retrieved,
	}
	_, err = r.Register(ctx, src)
	require.NoError(t, err)
	_, err = r.Register(ctx, types.Source{ID: "arxiv:2301.07041", Title: "Second"})
	require.NoError(t, err)
	require.NoError(t, r.Close())

	r2, err := Open(ctx, dir, logger)
	require.NoError(t, err)
	defer r2.Close()

	require.Equal(t, 2, r2.Len())
	got, ok := r2.Get(src.ID)
	require.True(t, ok)
	assert.Equal(t, src.Authors, got.Authors)
	assert.Equal(t, src.Citations, got.Citations)
	assert.Equal(t, src.MergedFrom, got.MergedFrom)
	assert.True(t, retrieved.Equal(got.RetrievedAt))

	ids := []string{}
	for _, s := range r2.Sources() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"doi:10.1145/3368089", "arxiv:2301.07041"}, ids)
}

func TestLookupSkipsUnknown(t *testing.T) {
	r := NewMemory()
	_, _ = r.Register(context.Background(), types.Source{ID: "arxiv:1", Title: "One"})
	got := r.Lookup([]string{"arxiv:missing", "arxiv:1"})
	require.Len(t, got, 1)
	assert.Equal(t, "arxiv:1", got[0].ID)
}
