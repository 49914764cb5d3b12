// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries academic APIs, deduplicates the candidates into
// citable sources, and registers them for the section loop.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/paper-engine/pkg/types"
)

// Backend searches a single academic API. Each provider (arXiv, Semantic
// Scholar, OpenAlex) implements this interface.
type Backend interface {
	Name() string
	Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.Source, error)
}

// Query holds the search parameters.
type Query struct {
	FreeText string
	Author   string
	Keywords []string
	DateFrom time.Time
	DateTo   time.Time
}

// IsEmpty reports whether the query contains no searchable terms.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.FreeText) == "" && q.Author == "" && len(q.Keywords) == 0
}

// terms joins the query fields into one space-separated search string.
func (q Query) terms() string {
	var parts []string
	if q.FreeText != "" {
		parts = append(parts, q.FreeText)
	}
	if q.Author != "" {
		parts = append(parts, q.Author)
	}
	parts = append(parts, q.Keywords...)
	return strings.Join(parts, " ")
}

// positionScore assigns a position-based relevance score: the first result
// scores 1.0 and the last 0.1.
func positionScore(i, total int) float64 {
	if total > 1 {
		return 1.0 - float64(i)/float64(total-1)*0.9
	}
	return 1.0
}

// FormatTable writes sources as a human-readable table to w.
func FormatTable(sources []types.Source, dupsRemoved int, w io.Writer) {
	if len(sources) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-28s  %-50s  %-20s  %-4s  %s\n",
		"Rank", "ID", "Title", "Authors", "Year", "Provider")
	fmt.Fprintln(w, strings.Repeat("-", 124))

	for i, s := range sources {
		year := ""
		if s.Year > 0 {
			year = fmt.Sprintf("%d", s.Year)
		}
		fmt.Fprintf(w, "%-4d  %-28s  %-50s  %-20s  %-4s  %s\n",
			i+1, truncate(s.ID, 28), truncate(s.Title, 50), formatAuthors(s.Authors), year, s.Provider)
	}

	fmt.Fprintf(w, "\n%d results", len(sources))
	if dupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", dupsRemoved)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes sources as indented JSON to w.
func FormatJSON(sources []types.Source, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sources)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
