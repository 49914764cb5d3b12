// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compress

import (
	"strings"

	"github.com/pdiddy/paper-engine/internal/citation"
	"github.com/pdiddy/paper-engine/pkg/types"
)

// punctSpace closes the gap a removed marker leaves before punctuation.
var punctSpace = strings.NewReplacer(" .", ".", " ,", ",", " ;", ";", " !", "!", " ?", "?")

// ParseSummary reads a "SUMMARY:" line and the numbered "FINDINGS:" list
// that follows it. Findings without a "(sources: ...)" suffix are ignored.
func ParseSummary(resp string) (string, []types.Finding) {
	var summary string
	var findings []types.Finding
	inFindings := false

	for _, line := range strings.Split(strings.TrimSpace(resp), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "SUMMARY:"):
			summary = strings.TrimSpace(strings.TrimPrefix(line, "SUMMARY:"))
		case strings.HasPrefix(line, "FINDINGS:"):
			inFindings = true
		case inFindings && strings.Contains(line, "(sources:"):
			idx := strings.Index(line, "(sources:")
			text := strings.TrimLeft(strings.TrimSpace(line[:idx]), "0123456789.-) ")
			srcPart := strings.TrimSuffix(strings.TrimSpace(line[idx+len("(sources:"):]), ")")
			var ids []string
			for _, s := range strings.Split(srcPart, ",") {
				if s = strings.TrimSpace(s); s != "" {
					ids = append(ids, s)
				}
			}
			if text != "" {
				findings = append(findings, types.Finding{Text: text, SourceIDs: ids})
			}
		}
	}
	return summary, findings
}

// Extractive builds a summary without the generator: the first two
// sentences of content, and one finding per citing sentence.
func Extractive(content string, sourceIDs []string) (string, []types.Finding) {
	var sents []string
	var findings []types.Finding
	for _, s := range splitSentences(content) {
		clean := punctSpace.Replace(strings.Join(strings.Fields(citationFree(s)), " "))
		if clean == "" || strings.HasPrefix(clean, "#") {
			continue
		}
		sents = append(sents, clean)
		if ids := citation.Extract(s); len(ids) > 0 && len(findings) < MaxFindings {
			findings = append(findings, types.Finding{Text: clean, SourceIDs: ids})
		}
	}

	n := 2
	if len(sents) < n {
		n = len(sents)
	}
	summary := strings.Join(sents[:n], " ")
	if len(findings) == 0 && summary != "" && len(sourceIDs) > 0 {
		findings = append(findings, types.Finding{Text: summary, SourceIDs: sourceIDs})
	}
	return summary, findings
}

// splitSentences splits at sentence punctuation outside citation markers
// and at line breaks, keeping the markers with their sentence.
func splitSentences(text string) []string {
	ms := citation.Markers(text)
	inMarker := func(i int) bool {
		for _, m := range ms {
			if i >= m.Start && i < m.End {
				return true
			}
		}
		return false
	}

	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\n' || ((c == '.' || c == '!' || c == '?') && !inMarker(i)) {
			end := i + 1
			// A marker directly after the punctuation belongs to this sentence.
			for _, m := range ms {
				if m.Start >= end && strings.TrimSpace(text[end:m.Start]) == "" && !strings.Contains(text[end:m.Start], "\n") {
					end = m.End
					i = end - 1
					break
				}
			}
			if s := strings.TrimSpace(text[start:end]); s != "" {
				out = append(out, s)
			}
			start = end
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}
