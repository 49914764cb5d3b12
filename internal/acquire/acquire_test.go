// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-engine/internal/httputil"
	"github.com/pdiddy/paper-engine/internal/registry"
	"github.com/pdiddy/paper-engine/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

const sampleArxivEntry = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <published>2017-06-12T17:57:34Z</published>
    <title>Attention Is All
      You Need</title>
    <summary>  The dominant sequence transduction models are based on
      complex recurrent networks.</summary>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <arxiv:doi>10.48550/arXiv.1706.03762</arxiv:doi>
  </entry>
</feed>`

const emptyArxivFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry><id>http://arxiv.org/api/errors#incorrect_id_format</id><title></title></entry>
</feed>`

const sampleCrossRef = `{
  "status": "ok",
  "message": {
    "DOI": "10.1145/3368089",
    "URL": "http://dx.doi.org/10.1145/3368089",
    "title": ["Deep Learning  for Code"],
    "abstract": "<jats:p>We study models of source code.</jats:p>",
    "author": [
      {"given": "Ada", "family": "Lovelace"},
      {"name": "The Code Consortium"}
    ],
    "issued": {"date-parts": [[2020, 11]]},
    "created": {"date-parts": [[2019, 1, 2]]}
  }
}`

func withServers(t *testing.T, arxiv, crossref http.HandlerFunc) *Resolver {
	t.Helper()
	a := httptest.NewServer(arxiv)
	c := httptest.NewServer(crossref)
	t.Cleanup(a.Close)
	t.Cleanup(c.Close)

	oldArxiv, oldCrossRef := arxivAPIBase, crossrefAPIBase
	arxivAPIBase = a.URL
	crossrefAPIBase = c.URL + "/works/"
	t.Cleanup(func() {
		arxivAPIBase = oldArxiv
		crossrefAPIBase = oldCrossRef
	})
	return &Resolver{Client: http.DefaultClient, UserAgent: "paper-engine-test/0.1"}
}

func unexpected(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func TestResolveArxiv(t *testing.T) {
	r := withServers(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "1706.03762", req.URL.Query().Get("id_list"))
		assert.Equal(t, "paper-engine-test/0.1", req.Header.Get("User-Agent"))
		w.Write([]byte(sampleArxivEntry))
	}, unexpected(t))

	s, err := r.Resolve(context.Background(), "arXiv:1706.03762v7")
	require.NoError(t, err)
	assert.Equal(t, "arxiv:1706.03762", s.ID)
	assert.Equal(t, "Attention Is All You Need", s.Title)
	assert.Equal(t, "The dominant sequence transduction models are based on complex recurrent networks.", s.Abstract)
	assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, s.Authors)
	assert.Equal(t, 2017, s.Year)
	assert.Equal(t, "10.48550/arxiv.1706.03762", s.DOI)
	assert.Equal(t, types.PrefixArxiv, s.Provider)
	assert.Equal(t, "https://arxiv.org/abs/1706.03762", s.URL)
}

func TestResolveArxivUnknownID(t *testing.T) {
	r := withServers(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(emptyArxivFeed))
	}, unexpected(t))

	_, err := r.Resolve(context.Background(), "9999.99999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entries found")
}

func TestResolveCrossRef(t *testing.T) {
	r := withServers(t, unexpected(t), func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/works/10.1145/3368089", req.URL.Path)
		assert.Equal(t, "application/json", req.Header.Get("Accept"))
		w.Write([]byte(sampleCrossRef))
	})

	s, err := r.Resolve(context.Background(), "https://doi.org/10.1145/3368089")
	require.NoError(t, err)
	assert.Equal(t, "doi:10.1145/3368089", s.ID)
	assert.Equal(t, "Deep Learning for Code", s.Title)
	assert.Equal(t, "We study models of source code.", s.Abstract)
	assert.Equal(t, []string{"Ada Lovelace", "The Code Consortium"}, s.Authors)
	assert.Equal(t, 2020, s.Year)
	assert.Equal(t, ProviderCrossRef, s.Provider)
	assert.Equal(t, "http://dx.doi.org/10.1145/3368089", s.URL)
}

func TestResolveCrossRefNotFound(t *testing.T) {
	r := withServers(t, unexpected(t), func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := r.Resolve(context.Background(), "10.1145/0000000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestResolveUnrecognized(t *testing.T) {
	r := &Resolver{}
	_, err := r.Resolve(context.Background(), "not-an-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized identifier")
}

func TestAcquireSkipsRegisteredWithoutRequest(t *testing.T) {
	r := withServers(t, unexpected(t), unexpected(t))
	reg := registry.NewMemory()
	ctx := context.Background()
	_, err := reg.Register(ctx, types.Source{ID: "arxiv:1706.03762", Title: "Attention Is All You Need"})
	require.NoError(t, err)

	s, skipped, err := r.Acquire(ctx, reg, "https://arxiv.org/abs/1706.03762")
	require.NoError(t, err)
	assert.True(t, skipped)
	assert.Equal(t, "Attention Is All You Need", s.Title)
}

func TestAcquireBatch(t *testing.T) {
	var arxivCalls int32
	r := withServers(t, func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&arxivCalls, 1)
		w.Write([]byte(sampleArxivEntry))
	}, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(sampleCrossRef))
	})
	reg := registry.NewMemory()

	var buf bytes.Buffer
	res := r.AcquireBatch(context.Background(), reg,
		[]string{"1706.03762", "10.1145/3368089", "bogus", "arXiv:1706.03762v2"}, &buf)

	assert.Equal(t, 2, res.Added)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 4, res.Total())
	assert.True(t, res.HasFailures())
	assert.Equal(t, []string{"arxiv:1706.03762", "doi:10.1145/3368089", "arxiv:1706.03762"}, res.IDs())
	assert.Equal(t, int32(1), atomic.LoadInt32(&arxivCalls))
	assert.Equal(t, 2, reg.Len())

	out := buf.String()
	assert.Contains(t, out, "added:   arxiv:1706.03762 Attention Is All You Need")
	assert.Contains(t, out, "failed:  bogus")
	assert.Contains(t, out, "skipped: arxiv:1706.03762 (already registered)")
	assert.Contains(t, out, "Batch summary: 2 added, 1 skipped, 1 failed (total: 4)")
}
