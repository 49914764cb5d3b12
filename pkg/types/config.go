package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the research providers.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxResults is the maximum number of results per provider call (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// EnableArxiv controls whether the arXiv backend is used.
	EnableArxiv bool `json:"enable_arxiv" yaml:"enable_arxiv" mapstructure:"enable_arxiv"`

	// EnableSemanticScholar controls whether the Semantic Scholar backend is used.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar" mapstructure:"enable_semantic_scholar"`

	// EnableOpenAlex controls whether the OpenAlex backend is used.
	EnableOpenAlex bool `json:"enable_openalex" yaml:"enable_openalex" mapstructure:"enable_openalex"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty" mapstructure:"openalex_email"`

	// RequestsPerSecond paces provider calls (default 1).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// RelevanceOptions bounds the sources selected for one section.
type RelevanceOptions struct {
	// MinScore is the lowest relevance score kept.
	MinScore float64 `json:"min_score" yaml:"min_score" mapstructure:"min_score"`

	// TopK caps the number of sources returned.
	TopK int `json:"top_k" yaml:"top_k" mapstructure:"top_k"`
}

// ResearchConfig holds settings for source gathering and selection.
type ResearchConfig struct {
	// Global applies to sections with the global research strategy.
	Global RelevanceOptions `json:"global" yaml:"global" mapstructure:"global"`

	// Targeted applies to sections with the targeted research strategy.
	Targeted RelevanceOptions `json:"targeted" yaml:"targeted" mapstructure:"targeted"`

	// TitleSimilarity is the fuzzy title match threshold for dedup (default 0.85).
	TitleSimilarity float64 `json:"title_similarity" yaml:"title_similarity" mapstructure:"title_similarity"`

	// CacheFullText downloads arXiv PDFs for registered sources.
	CacheFullText bool `json:"cache_fulltext" yaml:"cache_fulltext" mapstructure:"cache_fulltext"`
}

// GenerationConfig holds settings for the text generation collaborator.
type GenerationConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Backend selects the generation API: "claude" or "openrouter".
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Model is the model identifier passed to the backend.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the backend.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// OrchestrationConfig holds the section loop settings.
type OrchestrationConfig struct {
	// MaxRetries is the generation attempt budget per section (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// ContextWindow is the number of prior summaries injected (default 3).
	ContextWindow int `json:"context_window" yaml:"context_window" mapstructure:"context_window"`

	// FullContextSections is the number of leading sections that receive the
	// previous section's full text instead of compressed context (default 2).
	FullContextSections int `json:"full_context_sections" yaml:"full_context_sections" mapstructure:"full_context_sections"`

	// WordTolerance is the allowed relative deviation from the word target (default 0.10).
	WordTolerance float64 `json:"word_tolerance" yaml:"word_tolerance" mapstructure:"word_tolerance"`
}

// Config groups every component configuration.
type Config struct {
	// StateDir holds the run records (state, plan, checkpoint, context cache, sources.db).
	StateDir string `json:"state_dir" yaml:"state_dir" mapstructure:"state_dir"`

	// OutputDir holds the section artifacts and references.yaml.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	Search        SearchConfig        `json:"search" yaml:"search" mapstructure:"search"`
	Research      ResearchConfig      `json:"research" yaml:"research" mapstructure:"research"`
	Generation    GenerationConfig    `json:"generation" yaml:"generation" mapstructure:"generation"`
	Orchestration OrchestrationConfig `json:"orchestration" yaml:"orchestration" mapstructure:"orchestration"`
}
