// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citation

import (
	"strings"

	"github.com/pdiddy/paper-engine/internal/keywords"
)

// sentence is a span of text ending at sentence punctuation, with the IDs
// of the citation markers it contains.
type sentence struct {
	text string
	ids  []string
}

// sentences splits text at '.', '!' and '?'. Citation markers are removed
// before splitting because source IDs contain dots.
func sentences(text string) []sentence {
	var out []sentence
	var cur strings.Builder
	var ids []string

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" || len(ids) > 0 {
			out = append(out, sentence{text: s, ids: ids})
		}
		cur.Reset()
		ids = nil
	}

	pos := 0
	for _, m := range Markers(text) {
		writeSplitting(text[pos:m.Start], &cur, flush)
		ids = append(ids, m.ID)
		cur.WriteByte(' ')
		pos = m.End
	}
	writeSplitting(text[pos:], &cur, flush)
	flush()
	return out
}

func writeSplitting(s string, cur *strings.Builder, flush func()) {
	for _, r := range s {
		cur.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			flush()
		}
	}
}

// GapTopics infers research topics from the sentences around missing
// citations: keywords of each sentence citing a missing ID, at most
// TopicsPerCitation per ID, deduplicated, at most MaxTopics overall, in
// order of first appearance.
func GapTopics(text string, missing []string) []string {
	if len(missing) == 0 {
		return nil
	}
	sents := sentences(text)

	seen := make(map[string]bool)
	var topics []string
	for _, id := range missing {
		perID := 0
		perSeen := make(map[string]bool)
		for _, s := range sents {
			if !containsID(s.ids, id) {
				continue
			}
			for _, kw := range keywords.Extract(s.text) {
				if perID >= TopicsPerCitation {
					break
				}
				if perSeen[kw] {
					continue
				}
				perSeen[kw] = true
				perID++
				if !seen[kw] {
					seen[kw] = true
					topics = append(topics, kw)
					if len(topics) >= MaxTopics {
						return topics
					}
				}
			}
		}
	}
	return topics
}

func containsID(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
