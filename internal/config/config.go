// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads paper-engine settings from viper (config file,
// PAPER_ENGINE_* environment variables, bound flags) into types.Config.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/paper-engine/internal/secrets"
	"github.com/pdiddy/paper-engine/pkg/types"
)

// EnvPrefix is the environment variable prefix.
const EnvPrefix = "PAPER_ENGINE"

// DefaultUserAgent identifies paper-engine to provider APIs.
const DefaultUserAgent = "paper-engine/0.1"

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("state_dir", "state")
	v.SetDefault("output_dir", "output")

	v.SetDefault("search.timeout", 30*time.Second)
	v.SetDefault("search.user_agent", DefaultUserAgent)
	v.SetDefault("search.max_results", 20)
	v.SetDefault("search.enable_arxiv", true)
	v.SetDefault("search.enable_semantic_scholar", true)
	v.SetDefault("search.enable_openalex", true)
	v.SetDefault("search.requests_per_second", 1.0)

	v.SetDefault("research.global.min_score", 0.15)
	v.SetDefault("research.global.top_k", 5)
	v.SetDefault("research.targeted.min_score", 0.30)
	v.SetDefault("research.targeted.top_k", 10)
	v.SetDefault("research.title_similarity", 0.85)
	v.SetDefault("research.cache_fulltext", false)

	v.SetDefault("generation.timeout", 120*time.Second)
	v.SetDefault("generation.user_agent", DefaultUserAgent)
	v.SetDefault("generation.backend", "claude")
	v.SetDefault("generation.model", "")

	v.SetDefault("orchestration.max_retries", 3)
	v.SetDefault("orchestration.context_window", 3)
	v.SetDefault("orchestration.full_context_sections", 2)
	v.SetDefault("orchestration.word_tolerance", 0.10)
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the orchestrator cannot run with.
func Validate(cfg types.Config) error {
	switch {
	case cfg.StateDir == "":
		return fmt.Errorf("config: state_dir must be set")
	case cfg.OutputDir == "":
		return fmt.Errorf("config: output_dir must be set")
	case cfg.Orchestration.MaxRetries < 1:
		return fmt.Errorf("config: orchestration.max_retries must be at least 1, got %d", cfg.Orchestration.MaxRetries)
	case cfg.Orchestration.ContextWindow < 1:
		return fmt.Errorf("config: orchestration.context_window must be at least 1, got %d", cfg.Orchestration.ContextWindow)
	case cfg.Orchestration.WordTolerance <= 0 || cfg.Orchestration.WordTolerance >= 1:
		return fmt.Errorf("config: orchestration.word_tolerance must be in (0,1), got %g", cfg.Orchestration.WordTolerance)
	case cfg.Research.TitleSimilarity <= 0 || cfg.Research.TitleSimilarity > 1:
		return fmt.Errorf("config: research.title_similarity must be in (0,1], got %g", cfg.Research.TitleSimilarity)
	case cfg.Search.MaxResults < 1:
		return fmt.Errorf("config: search.max_results must be positive, got %d", cfg.Search.MaxResults)
	}
	switch cfg.Generation.Backend {
	case "claude", "openrouter":
	default:
		return fmt.Errorf("config: generation.backend must be claude or openrouter, got %q", cfg.Generation.Backend)
	}
	return nil
}

// ApplySecrets fills credentials left empty by the config from loaded
// secrets. Explicit configuration wins.
func ApplySecrets(cfg *types.Config, s map[string]string) {
	genKey := secrets.AnthropicAPIKey
	if cfg.Generation.Backend == "openrouter" {
		genKey = secrets.OpenRouterAPIKey
	}
	cfg.Generation.APIKey = secrets.Resolve(s, genKey, cfg.Generation.APIKey)
	cfg.Search.SemanticScholarAPIKey = secrets.Resolve(s, secrets.SemanticScholarAPIKey, cfg.Search.SemanticScholarAPIKey)
	cfg.Search.OpenAlexEmail = secrets.Resolve(s, secrets.OpenAlexEmail, cfg.Search.OpenAlexEmail)
}
