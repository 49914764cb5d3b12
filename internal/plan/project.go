// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package plan

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-engine/internal/acquire"
	"github.com/pdiddy/paper-engine/pkg/types"
)

// ErrInvalidProject is wrapped by every project validation error.
var ErrInvalidProject = errors.New("invalid project")

const (
	minTopicLen  = 10
	maxSections  = 40
	defaultTone  = "professional"
	defaultCite  = "APA"
	defaultLevel = "undergraduate"
)

var (
	validTones      = []string{"professional", "formal", "conversational"}
	validFormats    = []string{"APA", "Harvard", "MLA", "Chicago"}
	validComplexity = []string{"undergraduate", "graduate", "expert"}
	validTypes      = []types.ProjectType{types.ProjectEmpirical, types.ProjectComputational, types.ProjectReview, types.ProjectProposal}
)

// LoadProject reads a project file (YAML, or JSON) and validates it.
func LoadProject(path string) (types.ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ProjectConfig{}, fmt.Errorf("reading project %s: %w", path, err)
	}
	var cfg types.ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return types.ProjectConfig{}, fmt.Errorf("%w: parsing %s: %v", ErrInvalidProject, path, err)
	}
	return Validate(cfg)
}

// Validate normalizes cfg and applies defaults, or reports the first
// problem found.
func Validate(cfg types.ProjectConfig) (types.ProjectConfig, error) {
	cfg.Topic = strings.TrimSpace(cfg.Topic)
	if cfg.Topic == "" {
		return cfg, fmt.Errorf("%w: topic is required", ErrInvalidProject)
	}
	if len(cfg.Topic) < minTopicLen {
		return cfg, fmt.Errorf("%w: topic is too short (minimum %d characters)", ErrInvalidProject, minTopicLen)
	}

	if len(cfg.Template) == 0 {
		return cfg, fmt.Errorf("%w: template must list at least one section", ErrInvalidProject)
	}
	if len(cfg.Template) > maxSections {
		return cfg, fmt.Errorf("%w: template has %d sections (maximum %d)", ErrInvalidProject, len(cfg.Template), maxSections)
	}
	template := make([]string, len(cfg.Template))
	for i, s := range cfg.Template {
		s = strings.TrimSpace(s)
		if s == "" {
			return cfg, fmt.Errorf("%w: section %d has an empty title", ErrInvalidProject, i)
		}
		template[i] = s
	}
	cfg.Template = template

	if cfg.ProjectType == "" {
		cfg.ProjectType = types.ProjectEmpirical
	}
	if !slices.Contains(validTypes, cfg.ProjectType) {
		return cfg, fmt.Errorf("%w: unknown project_type %q", ErrInvalidProject, cfg.ProjectType)
	}

	if cfg.Profile != "" {
		if _, ok := LookupProfile(cfg.Profile); !ok {
			return cfg, fmt.Errorf("%w: unknown profile %q (known: %s)", ErrInvalidProject, cfg.Profile, strings.Join(ProfileNames(), ", "))
		}
	}

	if cfg.MaxSectionWords < 0 || cfg.MinCitations < 0 {
		return cfg, fmt.Errorf("%w: max_section_words and min_citations must not be negative", ErrInvalidProject)
	}

	for i, id := range cfg.Sources {
		if t, _ := acquire.Classify(id); t == acquire.TypeUnknown {
			return cfg, fmt.Errorf("%w: sources[%d] %q is not an arXiv ID or DOI", ErrInvalidProject, i, id)
		}
	}

	var err error
	if cfg.Style.Tone, err = choice("style.tone", cfg.Style.Tone, defaultTone, validTones); err != nil {
		return cfg, err
	}
	if cfg.Style.CitationFormat, err = choice("style.citation_format", cfg.Style.CitationFormat, defaultCite, validFormats); err != nil {
		return cfg, err
	}
	if cfg.Style.Complexity, err = choice("style.complexity", cfg.Style.Complexity, defaultLevel, validComplexity); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func choice(field, value, def string, valid []string) (string, error) {
	if value == "" {
		return def, nil
	}
	if !slices.Contains(valid, value) {
		return "", fmt.Errorf("%w: invalid %s %q (must be one of: %s)", ErrInvalidProject, field, value, strings.Join(valid, ", "))
	}
	return value, nil
}
