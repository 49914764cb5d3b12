// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-engine pipeline:
// research sources, the section plan, validation verdicts, the context
// ledger, and the persisted run records.
package types

import (
	"strings"
	"time"
)

// Provider prefixes used in provider-qualified source IDs. A citation marker
// in generated text is a bracketed ID carrying one of these prefixes.
const (
	PrefixArxiv    = "arxiv"
	PrefixDOI      = "doi"
	PrefixSemantic = "s2"
	PrefixOpenAlex = "openalex"
)

// SourcePrefixes lists every prefix a citation marker may carry.
var SourcePrefixes = []string{PrefixArxiv, PrefixDOI, PrefixSemantic, PrefixOpenAlex}

// Source is a deduplicated research reference usable for citation. Two
// records that share a provider-native identifier (arXiv ID or DOI) are the
// same entity. Once registered a Source is never modified.
type Source struct {
	// ID is the stable provider-qualified identifier (e.g. "arxiv:1706.03762",
	// "doi:10.1145/3368089"). It is the token authors put inside citation markers.
	ID string `json:"id" yaml:"id"`

	// Title is the reference title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// Authors lists the authors in provider order.
	Authors []string `json:"authors" yaml:"authors"`

	// Year is the publication year, 0 when unknown.
	Year int `json:"year" yaml:"year"`

	// Abstract is the reference abstract or summary.
	Abstract string `json:"abstract" yaml:"abstract"`

	// URL is the landing page for the reference.
	URL string `json:"url" yaml:"url"`

	// ArxivID is the bare arXiv identifier when known (e.g. "1706.03762").
	ArxivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`

	// DOI is the bare, lowercased DOI when known.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Provider names the backend(s) that returned this reference, comma-separated.
	Provider string `json:"provider" yaml:"provider"`

	// LocalPath is the locally cached full text, empty when not downloaded.
	LocalPath string `json:"local_path,omitempty" yaml:"local_path,omitempty"`

	// Citations lists identifiers of works this reference cites.
	Citations []string `json:"citations,omitempty" yaml:"citations,omitempty"`

	// MergedFrom lists the IDs of every candidate merged into this record.
	MergedFrom []string `json:"merged_from,omitempty" yaml:"merged_from,omitempty"`

	// RelevanceScore is the provider's position-based score in [0,1].
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// RetrievedAt records when the provider returned the reference.
	RetrievedAt time.Time `json:"retrieved_at" yaml:"retrieved_at"`
}

// QualifiedID joins a provider prefix and a native identifier.
func QualifiedID(prefix, native string) string {
	return prefix + ":" + native
}

// SplitID splits a provider-qualified ID into prefix and native identifier.
// ok is false when the ID has no known prefix.
func SplitID(id string) (prefix, native string, ok bool) {
	i := strings.Index(id, ":")
	if i <= 0 {
		return "", "", false
	}
	prefix = id[:i]
	for _, p := range SourcePrefixes {
		if p == prefix {
			return prefix, id[i+1:], i+1 < len(id)
		}
	}
	return "", "", false
}

// NormalizeDOI lowercases a DOI and strips resolver prefixes.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, p := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "doi:"} {
		if strings.HasPrefix(strings.ToLower(doi), p) {
			doi = doi[len(p):]
		}
	}
	return strings.ToLower(doi)
}
