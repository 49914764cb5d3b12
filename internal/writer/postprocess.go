// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package writer

import (
	"regexp"
	"strings"

	"github.com/pdiddy/paper-engine/pkg/types"
)

// proposalRewrites turns completed-work claims into planned-work claims.
var proposalRewrites = []struct {
	re  *regexp.Regexp
	new string
}{
	{regexp.MustCompile(`(?i)\bwe conducted\b`), "we will conduct"},
	{regexp.MustCompile(`(?i)\bwe collected\b`), "we will collect"},
	{regexp.MustCompile(`(?i)\bwe analyzed\b`), "we will analyze"},
	{regexp.MustCompile(`(?i)\bresults show\b`), "expected results will show"},
	{regexp.MustCompile(`(?i)\bwe found\b`), "we expect to find"},
	{regexp.MustCompile(`(?i)\bour experiment\b`), "our proposed experiment"},
	{regexp.MustCompile(`(?i)\bthis study demonstrated\b`), "this proposed study will demonstrate"},
	{regexp.MustCompile(`(?i)\bthe system performs\b`), "the proposed system will perform"},
	{regexp.MustCompile(`(?i)\bwe implemented\b`), "we will implement"},
}

// AdjustClaims rewrites past-tense result claims into future tense for
// proposals. Other project types are returned unchanged. The replacement
// keeps the capitalization of the first letter.
func AdjustClaims(text string, pt types.ProjectType) string {
	if pt != types.ProjectProposal {
		return text
	}
	for _, r := range proposalRewrites {
		text = r.re.ReplaceAllStringFunc(text, func(m string) string {
			if m != "" && m[0] >= 'A' && m[0] <= 'Z' {
				return strings.ToUpper(r.new[:1]) + r.new[1:]
			}
			return r.new
		})
	}
	return text
}

var (
	bracketRe     = regexp.MustCompile(`\s?\[([^\[\]]+)\]`)
	placeholderRe = regexp.MustCompile(`(?i)^(source_?(id|\d*)|\d+|ref_?\d*|citation|arxiv|doi)$`)
)

// StripPlaceholders removes generic citation placeholders such as [1],
// [source_1], [ref_2], [citation] and a bare [arxiv], returning the cleaned
// text and the placeholders removed. Real citation markers are untouched.
func StripPlaceholders(text string) (string, []string) {
	var removed []string
	out := bracketRe.ReplaceAllStringFunc(text, func(m string) string {
		inner := strings.TrimSpace(bracketRe.FindStringSubmatch(m)[1])
		if placeholderRe.MatchString(inner) {
			removed = append(removed, "["+inner+"]")
			return ""
		}
		return m
	})
	return out, removed
}

// Clean applies every post-generation rewrite to section text.
func Clean(text string, pt types.ProjectType) (string, []string) {
	text = strings.TrimSpace(text)
	text = stripLeadingTitle(text)
	text, removed := StripPlaceholders(text)
	return AdjustClaims(text, pt), removed
}

// stripLeadingTitle drops a top-level heading the model repeats despite
// instructions, since the section artifact adds its own title line.
func stripLeadingTitle(text string) string {
	if !strings.HasPrefix(text, "# ") {
		return text
	}
	if i := strings.Index(text, "\n"); i >= 0 {
		return strings.TrimSpace(text[i+1:])
	}
	return ""
}
