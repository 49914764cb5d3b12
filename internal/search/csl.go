package search

import (
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-engine/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that output is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID       string    `yaml:"id"`
	Type     string    `yaml:"type"`
	Title    string    `yaml:"title"`
	Author   []CSLName `yaml:"author,omitempty"`
	Abstract string    `yaml:"abstract,omitempty"`
	Issued   *CSLDate  `yaml:"issued,omitempty"`
	DOI      string    `yaml:"DOI,omitempty"`
	URL      string    `yaml:"URL,omitempty"`
	Number   string    `yaml:"number,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes sources as a CSL-YAML list to w.
func FormatCSL(sources []types.Source, w io.Writer) error {
	items := make([]CSLItem, len(sources))
	for i, s := range sources {
		items[i] = toCSLItem(s)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// toCSLItem converts a Source to a CSLItem. The CSL id is the source ID so
// that citation markers resolve against the bibliography.
func toCSLItem(s types.Source) CSLItem {
	item := CSLItem{
		ID:       s.ID,
		Type:     "article",
		Title:    s.Title,
		Abstract: s.Abstract,
		DOI:      s.DOI,
		URL:      s.URL,
	}

	for _, a := range s.Authors {
		item.Author = append(item.Author, parseAuthorName(a))
	}

	if s.Year > 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{s.Year}}}
	}

	if s.ArxivID != "" {
		item.Type = "article-journal"
		if s.DOI == "" {
			item.Type = "manuscript"
		}
		item.Number = "arXiv:" + s.ArxivID
	}

	return item
}

// parseAuthorName splits a full name string into CSL family/given parts.
// It splits on the last space: everything before is given, the last token
// is family. Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
