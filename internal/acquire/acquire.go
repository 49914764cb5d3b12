// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire resolves reference identifiers supplied by the user
// (arXiv IDs, DOIs, and their URLs) into registered sources, so a run can
// cite known papers that a keyword search would not surface.
package acquire

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/paper-engine/internal/httputil"
	"github.com/pdiddy/paper-engine/pkg/types"
)

// ProviderCrossRef names the metadata provider for DOI lookups.
const ProviderCrossRef = "crossref"

// Base URLs for metadata lookups. Declared as vars so tests can substitute
// httptest servers.
var (
	arxivAPIBase    = "https://export.arxiv.org/api/query"
	crossrefAPIBase = "https://api.crossref.org/works/"
)

// Registry is the source registry resolved references are added to.
type Registry interface {
	Get(id string) (types.Source, bool)
	Register(ctx context.Context, s types.Source) (bool, error)
}

// Resolver fetches reference metadata from arXiv and CrossRef.
type Resolver struct {
	Client    *http.Client
	UserAgent string

	// Limiter paces metadata requests. Nil means unpaced.
	Limiter *rate.Limiter
}

// BatchResult holds the outcome of a batch acquisition.
type BatchResult struct {
	Added   int
	Skipped int
	Failed  int

	// Sources lists the registered form of every added or skipped
	// reference in input order.
	Sources []types.Source
}

// Total returns the number of identifiers processed.
func (r BatchResult) Total() int {
	return r.Added + r.Skipped + r.Failed
}

// HasFailures reports whether any identifier failed to resolve.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// IDs returns the source IDs of the batch in input order.
func (r BatchResult) IDs() []string {
	ids := make([]string, 0, len(r.Sources))
	for _, s := range r.Sources {
		ids = append(ids, s.ID)
	}
	return ids
}

// Resolve classifies identifier and fetches its metadata.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (types.Source, error) {
	idType, native := Classify(identifier)
	switch idType {
	case TypeArxiv:
		return r.fetchArxiv(ctx, native)
	case TypeDOI:
		return r.fetchCrossRef(ctx, native)
	default:
		return types.Source{}, fmt.Errorf("unrecognized identifier format: %q", identifier)
	}
}

// Acquire resolves one identifier and registers it. A reference already in
// the registry is returned without a network request and skipped is true.
func (r *Resolver) Acquire(ctx context.Context, reg Registry, identifier string) (src types.Source, skipped bool, err error) {
	idType, native := Classify(identifier)
	if id := SourceID(idType, native); id != "" {
		if s, ok := reg.Get(id); ok {
			return s, true, nil
		}
	}

	src, err = r.Resolve(ctx, identifier)
	if err != nil {
		return types.Source{}, false, err
	}
	added, err := reg.Register(ctx, src)
	if err != nil {
		return types.Source{}, false, fmt.Errorf("registering %s: %w", src.ID, err)
	}
	if !added {
		existing, _ := reg.Get(src.ID)
		return existing, true, nil
	}
	return src, false, nil
}

// AcquireBatch processes identifiers in order, printing per-item status to
// w and returning a summary. It continues after individual failures; a
// cancelled context fails the remaining identifiers.
func (r *Resolver) AcquireBatch(ctx context.Context, reg Registry, identifiers []string, w io.Writer) BatchResult {
	var result BatchResult
	for _, id := range identifiers {
		src, skipped, err := r.Acquire(ctx, reg, id)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
			result.Failed++
			continue
		}
		if skipped {
			fmt.Fprintf(w, "skipped: %s (already registered)\n", src.ID)
			result.Skipped++
		} else {
			fmt.Fprintf(w, "added:   %s %s\n", src.ID, src.Title)
			result.Added++
		}
		result.Sources = append(result.Sources, src)
	}
	fmt.Fprintf(w, "\nBatch summary: %d added, %d skipped, %d failed (total: %d)\n",
		result.Added, result.Skipped, result.Failed, result.Total())
	return result
}

func (r *Resolver) get(ctx context.Context, url, accept string) (*http.Response, error) {
	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", r.UserAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	return httputil.DoWithRetry(ctx, client, req, 0)
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	DOI       string        `xml:"http://arxiv.org/schemas/atom doi"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// fetchArxiv retrieves metadata for one arXiv ID.
func (r *Resolver) fetchArxiv(ctx context.Context, arxivID string) (types.Source, error) {
	resp, err := r.get(ctx, fmt.Sprintf("%s?id_list=%s", arxivAPIBase, arxivID), "")
	if err != nil {
		return types.Source{}, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Source{}, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return types.Source{}, fmt.Errorf("parsing arXiv response: %w", err)
	}
	// An unknown ID comes back as a single entry without a title.
	if len(feed.Entries) == 0 || strings.TrimSpace(feed.Entries[0].Title) == "" {
		return types.Source{}, fmt.Errorf("no entries found for arXiv ID %s", arxivID)
	}

	entry := feed.Entries[0]
	s := types.Source{
		ID:             types.QualifiedID(types.PrefixArxiv, arxivID),
		Title:          collapseSpace(entry.Title),
		Abstract:       collapseSpace(entry.Summary),
		URL:            "https://arxiv.org/abs/" + arxivID,
		ArxivID:        arxivID,
		DOI:            types.NormalizeDOI(entry.DOI),
		Provider:       types.PrefixArxiv,
		RelevanceScore: 1,
		RetrievedAt:    time.Now().UTC(),
	}
	for _, a := range entry.Authors {
		s.Authors = append(s.Authors, strings.TrimSpace(a.Name))
	}
	if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
		s.Year = t.Year()
	}
	return s, nil
}

// CrossRef API JSON structures.
type crossrefResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	DOI      string           `json:"DOI"`
	URL      string           `json:"URL"`
	Title    []string         `json:"title"`
	Abstract string           `json:"abstract"`
	Author   []crossrefAuthor `json:"author"`
	Issued   crossrefDate     `json:"issued"`
	Created  crossrefDate     `json:"created"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

func (d crossrefDate) year() int {
	if len(d.DateParts) > 0 && len(d.DateParts[0]) > 0 {
		return d.DateParts[0][0]
	}
	return 0
}

// jatsTag matches the JATS markup CrossRef wraps abstracts in.
var jatsTag = regexp.MustCompile(`</?jats:[^>]*>`)

// fetchCrossRef retrieves metadata for one DOI.
func (r *Resolver) fetchCrossRef(ctx context.Context, doi string) (types.Source, error) {
	resp, err := r.get(ctx, crossrefAPIBase+doi, "application/json")
	if err != nil {
		return types.Source{}, fmt.Errorf("CrossRef API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return types.Source{}, fmt.Errorf("DOI %s not found", doi)
	}
	if resp.StatusCode != http.StatusOK {
		return types.Source{}, fmt.Errorf("CrossRef API returned HTTP %d", resp.StatusCode)
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return types.Source{}, fmt.Errorf("parsing CrossRef response: %w", err)
	}
	work := cr.Message
	if len(work.Title) == 0 {
		return types.Source{}, fmt.Errorf("CrossRef record for %s has no title", doi)
	}

	s := types.Source{
		ID:             types.QualifiedID(types.PrefixDOI, doi),
		Title:          collapseSpace(work.Title[0]),
		Abstract:       collapseSpace(jatsTag.ReplaceAllString(work.Abstract, " ")),
		URL:            work.URL,
		DOI:            doi,
		Provider:       ProviderCrossRef,
		RelevanceScore: 1,
		RetrievedAt:    time.Now().UTC(),
	}
	if s.URL == "" {
		s.URL = "https://doi.org/" + doi
	}
	for _, a := range work.Author {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		if name == "" {
			name = strings.TrimSpace(a.Name)
		}
		if name != "" {
			s.Authors = append(s.Authors, name)
		}
	}
	if s.Year = work.Issued.year(); s.Year == 0 {
		s.Year = work.Created.year()
	}
	return s, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
