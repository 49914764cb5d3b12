// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package keywords tokenizes free text into content keywords shared by the
// relevance filter, the citation gate, and the context compressor.
package keywords

import (
	"sort"
	"strings"
	"unicode"
)

// MinLength is the shortest token (exclusive) considered a keyword.
const MinLength = 4

var stopwords = map[string]bool{
	"about": true, "above": true, "after": true, "again": true, "against": true,
	"among": true, "another": true, "because": true, "before": true, "being": true,
	"below": true, "between": true, "both": true, "could": true, "does": true,
	"doing": true, "during": true, "each": true, "either": true, "every": true,
	"first": true, "from": true, "further": true, "great": true, "having": true,
	"however": true, "into": true, "itself": true, "might": true, "more": true,
	"most": true, "much": true, "must": true, "never": true, "often": true,
	"other": true, "others": true, "otherwise": true, "ought": true, "over": true,
	"perhaps": true, "rather": true, "really": true, "same": true, "section": true,
	"several": true, "shall": true, "should": true, "since": true, "some": true,
	"still": true, "such": true, "than": true, "that": true, "their": true,
	"theirs": true, "them": true, "themselves": true, "then": true, "there": true,
	"therefore": true, "these": true, "they": true, "thing": true, "things": true,
	"this": true, "those": true, "though": true, "through": true, "thus": true,
	"together": true, "under": true, "until": true, "upon": true, "used": true,
	"using": true, "various": true, "very": true, "was": true, "were": true,
	"what": true, "whatever": true, "when": true, "where": true, "whereas": true,
	"whether": true, "which": true, "while": true, "whom": true, "whose": true,
	"with": true, "within": true, "without": true, "would": true, "your": true,
	"yours": true, "based": true, "also": true, "many": true, "well": true,
	"there's": true, "paper": true, "study": true, "studies": true,
}

// IsStopword reports whether w (lowercased) is on the stopword list.
func IsStopword(w string) bool {
	return stopwords[strings.ToLower(w)]
}

// Tokens splits text into lowercased words of letters, digits, and hyphens.
func Tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}

// Extract returns the keywords of text in first-occurrence order without
// duplicates: tokens longer than MinLength that are not stopwords.
func Extract(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range Tokens(text) {
		tok = strings.Trim(tok, "-")
		if len(tok) <= MinLength || stopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// Set returns the keywords of text as a set.
func Set(text string) map[string]bool {
	kw := Extract(text)
	set := make(map[string]bool, len(kw))
	for _, k := range kw {
		set[k] = true
	}
	return set
}

// Top returns the n most frequent keywords of text. Ties keep
// first-occurrence order.
func Top(text string, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, tok := range Tokens(text) {
		tok = strings.Trim(tok, "-")
		if len(tok) <= MinLength || stopwords[tok] {
			continue
		}
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if n >= 0 && len(order) > n {
		order = order[:n]
	}
	return order
}
