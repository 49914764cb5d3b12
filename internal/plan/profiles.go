// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package plan

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-engine/pkg/types"
)

//go:embed profiles.yaml
var profilesYAML []byte

// Profile names.
const (
	GenericAcademic = "generic_academic"
	CSProject       = "cs_project"
)

// SectionProfile holds the generation limits for one kind of section.
type SectionProfile struct {
	Title            string                 `yaml:"title"`
	Type             string                 `yaml:"type"`
	MinCitations     int                    `yaml:"min_citations"`
	MinWords         int                    `yaml:"min_words"`
	MaxWords         int                    `yaml:"max_words"`
	RequiresCode     bool                   `yaml:"requires_code"`
	RequiresDiagrams bool                   `yaml:"requires_diagrams"`
	Strategy         types.ResearchStrategy `yaml:"strategy"`
}

// Profile is a named set of section profiles for one kind of document.
type Profile struct {
	Name             string           `yaml:"name"`
	Discipline       string           `yaml:"discipline"`
	DefaultCitations int              `yaml:"default_citations"`
	Sections         []SectionProfile `yaml:"sections"`
}

var profiles = mustLoadProfiles(profilesYAML)

func mustLoadProfiles(data []byte) map[string]Profile {
	var list []Profile
	if err := yaml.Unmarshal(data, &list); err != nil {
		panic(fmt.Sprintf("parsing embedded profiles: %v", err))
	}
	out := make(map[string]Profile, len(list))
	for _, p := range list {
		for i := range p.Sections {
			if p.Sections[i].Strategy == "" {
				p.Sections[i].Strategy = types.StrategyGlobal
			}
		}
		out[p.Name] = p
	}
	return out
}

// ProfileNames returns the known profile names, sorted.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LookupProfile returns the named profile. Unknown names fall back to
// generic_academic with ok false.
func LookupProfile(name string) (Profile, bool) {
	p, ok := profiles[name]
	if !ok {
		return profiles[GenericAcademic], false
	}
	return p, true
}

// csIndicators are template fragments typical of computing project reports.
var csIndicators = []string{
	"system implementation",
	"system design",
	"system analysis",
	"test-run",
	"program documentation",
	"user manual",
}

// DetectProfile picks cs_project when at least three CS indicators occur in
// the template titles, and generic_academic otherwise.
func DetectProfile(template []string) Profile {
	score := 0
	for _, kw := range csIndicators {
		for _, title := range template {
			if strings.Contains(strings.ToLower(title), kw) {
				score++
				break
			}
		}
	}
	if score >= 3 {
		return profiles[CSProject]
	}
	return profiles[GenericAcademic]
}

// Section returns the profile for a section title: an exact match, then the
// first section whose title contains or is contained in the given title,
// then a default built from DefaultCitations.
func (p Profile) Section(title string) SectionProfile {
	for _, s := range p.Sections {
		if s.Title == title {
			return s
		}
	}
	lower := strings.ToLower(strings.TrimSpace(title))
	if lower != "" {
		for _, s := range p.Sections {
			key := strings.ToLower(s.Title)
			if strings.Contains(lower, key) || strings.Contains(key, lower) {
				return s
			}
		}
	}
	return SectionProfile{
		Title:        title,
		Type:         "discussion",
		MinCitations: p.DefaultCitations,
		MinWords:     800,
		MaxWords:     1500,
		Strategy:     types.StrategyGlobal,
	}
}
