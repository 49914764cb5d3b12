// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/paper-engine/internal/acquire"
	"github.com/pdiddy/paper-engine/internal/config"
	"github.com/pdiddy/paper-engine/internal/fulltext"
	"github.com/pdiddy/paper-engine/internal/generate"
	"github.com/pdiddy/paper-engine/internal/orchestrator"
	"github.com/pdiddy/paper-engine/internal/registry"
	"github.com/pdiddy/paper-engine/internal/search"
	"github.com/pdiddy/paper-engine/internal/workspace"
	"github.com/pdiddy/paper-engine/pkg/types"
)

// pdfDir is the full-text cache location inside the state directory.
const pdfDir = "sources/pdfs"

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	var cfg zap.Config
	switch strings.ToLower(format) {
	case "json":
		cfg = zap.NewProductionConfig()
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("invalid --log-format %q (want console or json)", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// loadConfig reads the merged configuration and fills credentials from
// .secrets/ and the environment.
func loadConfig() (types.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return types.Config{}, err
	}
	config.ApplySecrets(&cfg, loadedSecrets)
	return cfg, nil
}

func newBackends(cfg types.SearchConfig) []search.Backend {
	client := &http.Client{Timeout: cfg.Timeout}
	var backends []search.Backend
	if cfg.EnableArxiv {
		backends = append(backends, &search.ArxivBackend{Client: client})
	}
	if cfg.EnableSemanticScholar {
		backends = append(backends, &search.SemanticScholarBackend{Client: client, APIKey: cfg.SemanticScholarAPIKey})
	}
	if cfg.EnableOpenAlex {
		backends = append(backends, &search.OpenAlexBackend{Client: client, Email: cfg.OpenAlexEmail})
	}
	return backends
}

// newAggregator builds the research aggregator. reg may be nil for
// searches that should not register their results.
func newAggregator(cfg types.Config, reg *registry.Registry) *search.Aggregator {
	agg := &search.Aggregator{
		Backends: newBackends(cfg.Search),
		Config:   cfg.Search,
		Dedup:    search.NewDeduplicator(cfg.Research.TitleSimilarity, logger.Named("dedup")),
		Limiter:  search.NewLimiter(cfg.Search.RequestsPerSecond),
		Logger:   logger.Named("search"),
		Progress: os.Stderr,
	}
	if reg != nil {
		agg.Registry = reg
	}
	if cfg.Research.CacheFullText {
		agg.FullText = &fulltext.Fetcher{
			Client:    &http.Client{Timeout: cfg.Search.Timeout},
			Dir:       filepath.Join(cfg.StateDir, pdfDir),
			UserAgent: cfg.Search.UserAgent,
		}
	}
	return agg
}

func newResolver(cfg types.SearchConfig) *acquire.Resolver {
	return &acquire.Resolver{
		Client:    &http.Client{Timeout: cfg.Timeout},
		UserAgent: cfg.UserAgent,
		Limiter:   search.NewLimiter(cfg.RequestsPerSecond),
	}
}

// app holds the components one command invocation works with.
type app struct {
	cfg types.Config
	ws  *workspace.Workspace
	reg *registry.Registry
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	reg, err := registry.Open(ctx, cfg.StateDir, logger.Named("registry"))
	if err != nil {
		return nil, fmt.Errorf("opening source registry: %w", err)
	}
	return &app{
		cfg: cfg,
		ws:  workspace.Open(cfg.StateDir, cfg.OutputDir, logger.Named("workspace")),
		reg: reg,
	}, nil
}

func (a *app) Close() error { return a.reg.Close() }

func (a *app) orchestrator() (*orchestrator.Orchestrator, error) {
	gen, err := generate.New(a.cfg.Generation)
	if err != nil {
		return nil, err
	}
	o := orchestrator.New(a.ws, a.reg, gen, a.cfg, logger.Named("orchestrator"))
	o.Research = newAggregator(a.cfg, a.reg)
	o.Acquire = newResolver(a.cfg.Search)
	o.Progress = os.Stdout
	return o, nil
}
