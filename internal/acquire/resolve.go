// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/paper-engine/pkg/types"
)

// IdentifierType classifies a user-supplied reference identifier.
type IdentifierType int

const (
	TypeUnknown IdentifierType = iota
	TypeArxiv
	TypeDOI
)

func (t IdentifierType) String() string {
	switch t {
	case TypeArxiv:
		return "arxiv"
	case TypeDOI:
		return "doi"
	default:
		return "unknown"
	}
}

// arxivPattern matches arXiv IDs: "2301.07041", "arXiv:2301.07041", "2301.07041v2".
var arxivPattern = regexp.MustCompile(`^(?i:arxiv:)?(\d{4}\.\d{4,5})(?:v\d+)?$`)

// doiPattern matches bare DOIs: "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// Classify determines the identifier type and returns the native
// identifier. arXiv versions are dropped and DOIs lowercased, so the result
// joined with its prefix is the registry ID of the reference. arXiv abs and
// pdf URLs, doi.org URLs, and "doi:" prefixes are accepted.
func Classify(identifier string) (IdentifierType, string) {
	identifier = strings.TrimSpace(identifier)

	if m := arxivPattern.FindStringSubmatch(identifier); m != nil {
		return TypeArxiv, m[1]
	}

	if doi := types.NormalizeDOI(identifier); doiPattern.MatchString(doi) {
		return TypeDOI, doi
	}

	u, err := url.Parse(identifier)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return TypeUnknown, identifier
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	switch host {
	case "arxiv.org", "export.arxiv.org":
		for _, prefix := range []string{"/abs/", "/pdf/"} {
			if rest, ok := strings.CutPrefix(u.Path, prefix); ok {
				rest = strings.TrimSuffix(rest, ".pdf")
				if m := arxivPattern.FindStringSubmatch(rest); m != nil {
					return TypeArxiv, m[1]
				}
			}
		}
	case "doi.org", "dx.doi.org":
		if doi := strings.ToLower(strings.TrimPrefix(u.Path, "/")); doiPattern.MatchString(doi) {
			return TypeDOI, doi
		}
	}
	return TypeUnknown, identifier
}

// SourceID returns the registry ID for a classified identifier, or "" when
// the type is unknown.
func SourceID(idType IdentifierType, native string) string {
	switch idType {
	case TypeArxiv:
		return types.QualifiedID(types.PrefixArxiv, native)
	case TypeDOI:
		return types.QualifiedID(types.PrefixDOI, native)
	default:
		return ""
	}
}
