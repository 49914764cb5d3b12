// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-engine/pkg/types"
)

func TestToCSLItemArticle(t *testing.T) {
	s := types.Source{
		ID:       "doi:10.1145/3368089",
		Title:    "Graph Neural Networks",
		Authors:  []string{"Ada Lovelace", "Plato"},
		Year:     2020,
		DOI:      "10.1145/3368089",
		URL:      "https://doi.org/10.1145/3368089",
		Abstract: "A survey.",
	}

	item := toCSLItem(s)

	if item.ID != "doi:10.1145/3368089" {
		t.Errorf("ID = %q, want the source ID", item.ID)
	}
	if item.Type != "article" {
		t.Errorf("Type = %q, want article", item.Type)
	}
	if item.DOI != "10.1145/3368089" {
		t.Errorf("DOI = %q", item.DOI)
	}
	if len(item.Author) != 2 {
		t.Fatalf("len(Author) = %d, want 2", len(item.Author))
	}
	if item.Author[0].Family != "Lovelace" || item.Author[0].Given != "Ada" {
		t.Errorf("Author[0] = %+v", item.Author[0])
	}
	if item.Author[1].Literal != "Plato" {
		t.Errorf("Author[1] = %+v, want literal", item.Author[1])
	}
	if item.Issued == nil || item.Issued.DateParts[0][0] != 2020 {
		t.Errorf("Issued year should be 2020")
	}
}

func TestToCSLItemPreprint(t *testing.T) {
	item := toCSLItem(types.Source{ID: "arxiv:2301.07041", Title: "Preprint", ArxivID: "2301.07041"})
	if item.Type != "manuscript" {
		t.Errorf("Type = %q, want manuscript", item.Type)
	}
	if item.Number != "arXiv:2301.07041" {
		t.Errorf("Number = %q", item.Number)
	}
	if item.Issued != nil {
		t.Errorf("Issued should be nil without a year")
	}
}

func TestFormatCSL(t *testing.T) {
	var buf bytes.Buffer
	err := FormatCSL([]types.Source{
		{ID: "arxiv:1706.03762", Title: "Attention Is All You Need", ArxivID: "1706.03762", Year: 2017},
		{ID: "doi:10.1/x", Title: "Other", DOI: "10.1/x"},
	}, &buf)
	if err != nil {
		t.Fatalf("FormatCSL: %v", err)
	}

	var items []CSLItem
	if err := yaml.Unmarshal(buf.Bytes(), &items); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if !strings.Contains(buf.String(), "date-parts") {
		t.Errorf("output missing date-parts:\n%s", buf.String())
	}
}
