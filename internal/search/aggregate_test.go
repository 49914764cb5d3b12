// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/paper-engine/internal/registry"
	"github.com/pdiddy/paper-engine/pkg/types"
)

type fakeFetcher struct {
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, s types.Source) (string, error) {
	f.fetched = append(f.fetched, s.ID)
	return "/cache/" + s.ArxivID + ".pdf", nil
}

func newTestAggregator(t *testing.T, backends ...Backend) *Aggregator {
	return &Aggregator{
		Backends: backends,
		Config:   testCfg(),
		Dedup:    newTestDedup(t),
		Logger:   zaptest.NewLogger(t),
	}
}

func TestAggregatorEmptyQuery(t *testing.T) {
	a := newTestAggregator(t, &mockBackend{name: "mock"})
	_, err := a.Search(context.Background(), Query{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestAggregatorNoBackends(t *testing.T) {
	a := newTestAggregator(t)
	_, err := a.Search(context.Background(), Query{FreeText: "test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no search backends")
}

func TestAggregatorZeroResultsIsNotAnError(t *testing.T) {
	a := newTestAggregator(t, &mockBackend{name: "mock"})
	a.Registry = registry.NewMemory()
	out, err := a.Search(context.Background(), Query{FreeText: "nothing"})
	require.NoError(t, err)
	assert.Empty(t, out.Sources)
	assert.Zero(t, out.Registered)
}

func TestAggregatorContinuesAfterBackendFailure(t *testing.T) {
	failing := &mockBackend{name: "failing", err: errors.New("network error")}
	working := &mockBackend{name: "working", results: []types.Source{
		{ID: "arxiv:2301.07041", Title: "Paper A", Provider: "working"},
	}}

	var buf bytes.Buffer
	a := newTestAggregator(t, failing, working)
	a.Progress = &buf
	out, err := a.Search(context.Background(), Query{FreeText: "test"})
	require.NoError(t, err)
	assert.Len(t, out.Sources, 1)
	assert.Len(t, out.BackendErrors, 1)
	assert.Contains(t, buf.String(), "warning:")
}

func TestAggregatorDedupsAcrossBackendsInBackendOrder(t *testing.T) {
	b1 := &mockBackend{name: "b1", results: []types.Source{
		{ID: "arxiv:2301.07041", Title: "Sparse Attention Transformers", Year: 2023},
		{ID: "arxiv:2301.99999", Title: "Protein Folding Dynamics", Year: 2023},
	}}
	b2 := &mockBackend{name: "b2", results: []types.Source{
		{ID: "s2:x", ArxivID: "2301.07041", Title: "Sparse attention transformers (dup)"},
		{ID: "s2:y", Title: "Graph Neural Networks", Year: 2022},
	}}

	a := newTestAggregator(t, b1, b2)
	a.Limiter = NewLimiter(0)
	out, err := a.Search(context.Background(), Query{FreeText: "test"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.DupsRemoved)

	var ids []string
	for _, s := range out.Sources {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"arxiv:2301.07041", "arxiv:2301.99999", "s2:y"}, ids)
}

func TestAggregatorResolvesAgainstRegistry(t *testing.T) {
	reg := registry.NewMemory()
	ctx := context.Background()
	_, err := reg.Register(ctx, types.Source{ID: "arxiv:1706.03762", ArxivID: "1706.03762", Title: "Attention Is All You Need", Year: 2017})
	require.NoError(t, err)

	b := &mockBackend{name: "b", results: []types.Source{
		{ID: "doi:10.5555/3295222", ArxivID: "1706.03762", Title: "Attention is all you need"},
		{ID: "arxiv:1810.04805", Title: "BERT", Year: 2018},
	}}
	a := newTestAggregator(t, b)
	a.Registry = reg

	out, err := a.Search(ctx, Query{FreeText: "attention"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Registered)
	require.Len(t, out.Sources, 2)
	assert.Equal(t, "arxiv:1706.03762", out.Sources[0].ID, "incoming duplicate maps to the registered ID")
	assert.Equal(t, "arxiv:1810.04805", out.Sources[1].ID)
	assert.Equal(t, 2, reg.Len())
	assert.False(t, reg.Has("doi:10.5555/3295222"))
}

func TestAggregatorCachesFullTextBeforeDedup(t *testing.T) {
	b := &mockBackend{name: "b", results: []types.Source{
		{ID: "s2:x", ArxivID: "2301.07041", Title: "Paper", Abstract: "longer abstract text"},
		{ID: "doi:10.1/z", Title: "No arXiv"},
	}}
	f := &fakeFetcher{}
	a := newTestAggregator(t, b)
	a.FullText = f

	out, err := a.Search(context.Background(), Query{FreeText: "paper"})
	require.NoError(t, err)
	assert.Equal(t, []string{"s2:x"}, f.fetched)
	require.Len(t, out.Sources, 2)
	assert.Equal(t, "/cache/2301.07041.pdf", out.Sources[0].LocalPath)
}

func TestAggregatorPassesQueryToBackends(t *testing.T) {
	b := &mockBackend{name: "b"}
	a := newTestAggregator(t, b)
	_, err := a.Search(context.Background(), Query{FreeText: "graph learning", Keywords: []string{"gnn"}})
	require.NoError(t, err)
	require.Len(t, b.queries, 1)
	assert.Equal(t, "graph learning", b.queries[0].FreeText)
}
