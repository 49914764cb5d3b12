// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/paper-engine/internal/httputil"
	"github.com/pdiddy/paper-engine/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// OpenAlexBackend queries the OpenAlex API.
type OpenAlexBackend struct {
	Client *http.Client
	// Email is sent as mailto parameter for polite pool access.
	Email string
}

// Name returns the backend identifier.
func (b *OpenAlexBackend) Name() string { return types.PrefixOpenAlex }

// Search queries the OpenAlex API and returns candidate sources.
func (b *OpenAlexBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.Source, error) {
	searchText := query.terms()
	if searchText == "" {
		return nil, fmt.Errorf("empty OpenAlex query")
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}
	if maxResults > 200 {
		maxResults = 200
	}

	params := url.Values{
		"search":   {searchText},
		"per_page": {fmt.Sprintf("%d", maxResults)},
		"page":     {"1"},
	}

	var filters []string
	if !query.DateFrom.IsZero() {
		filters = append(filters, "from_publication_date:"+query.DateFrom.Format("2006-01-02"))
	}
	if !query.DateTo.IsZero() {
		filters = append(filters, "to_publication_date:"+query.DateTo.Format("2006-01-02"))
	}
	if len(filters) > 0 {
		params.Set("filter", strings.Join(filters, ","))
	}

	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	reqURL := openAlexSearchBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	now := time.Now().UTC()
	total := len(oar.Results)
	var sources []types.Source
	for i, work := range oar.Results {
		s := types.Source{
			Title:          work.Title,
			Abstract:       reconstructAbstract(work.AbstractInvertedIndex),
			Year:           work.PublicationYear,
			DOI:            types.NormalizeDOI(work.DOI),
			Provider:       b.Name(),
			RelevanceScore: positionScore(i, total),
			RetrievedAt:    now,
		}

		for _, authorship := range work.Authorships {
			if authorship.Author.DisplayName != "" {
				s.Authors = append(s.Authors, authorship.Author.DisplayName)
			}
		}

		if arxivID := arxivFromLocations(work.Locations); arxivID != "" {
			s.ArxivID = arxivID
		}

		// OpenAlex is DOI-centric: prefer the DOI, fall back to the work ID.
		workID := strings.TrimPrefix(work.ID, "https://openalex.org/")
		switch {
		case s.DOI != "":
			s.ID = types.QualifiedID(types.PrefixDOI, s.DOI)
			s.URL = "https://doi.org/" + s.DOI
		case workID != "":
			s.ID = types.QualifiedID(types.PrefixOpenAlex, workID)
			s.URL = work.ID
		default:
			continue
		}
		if work.OpenAccess.OAURL != "" && s.URL == "" {
			s.URL = work.OpenAccess.OAURL
		}

		sources = append(sources, s)
	}
	return sources, nil
}

// arxivFromLocations returns the arXiv ID of the first arXiv-hosted location.
func arxivFromLocations(locs []openAlexLocation) string {
	const marker = "arxiv.org/abs/"
	for _, l := range locs {
		if idx := strings.Index(l.LandingPageURL, marker); idx >= 0 {
			return stripArxivVersion(l.LandingPageURL[idx+len(marker):])
		}
	}
	return ""
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationYear       int                  `json:"publication_year"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	OpenAccess            openAlexOpenAccess   `json:"open_access"`
	Locations             []openAlexLocation   `json:"locations"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexOpenAccess struct {
	IsOA  bool   `json:"is_oa"`
	OAURL string `json:"oa_url"`
}

type openAlexLocation struct {
	LandingPageURL string `json:"landing_page_url"`
}
