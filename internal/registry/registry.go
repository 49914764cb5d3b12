// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry holds the deduplicated sources a run may cite. Records
// are kept in memory for validation lookups and written through to a SQLite
// database so a resumed run sees the same registry.
package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-engine/pkg/types"
)

// DBFile is the registry database filename inside the state directory.
const DBFile = "sources.db"

// Registry is the run's source registry. A registered source is never
// modified; registering an existing ID is a no-op.
type Registry struct {
	db     *sql.DB
	byID   map[string]types.Source
	order  []string
	logger *zap.Logger
}

// NewMemory returns a registry without persistence.
func NewMemory() *Registry {
	return &Registry{byID: make(map[string]types.Source), logger: zap.NewNop()}
}

// Open opens or creates the registry database in dir and loads every
// stored source.
func Open(ctx context.Context, dir string, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	dbPath := filepath.Join(dir, DBFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	r := &Registry{db: db, byID: make(map[string]types.Source), logger: logger}
	if err := r.createSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	if err := r.load(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("registry opened", zap.String("path", dbPath), zap.Int("sources", len(r.order)))
	return r, nil
}

// Close releases the database connection.
func (r *Registry) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Registry) createSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			authors TEXT,
			year INTEGER,
			abstract TEXT,
			url TEXT,
			arxiv_id TEXT,
			doi TEXT,
			provider TEXT,
			local_path TEXT,
			citations TEXT,
			merged_from TEXT,
			relevance_score REAL,
			retrieved_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sources_arxiv ON sources(arxiv_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sources_doi ON sources(doi)`,
	}
	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (r *Registry) load(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title, authors, year, abstract, url, arxiv_id, doi,
		provider, local_path, citations, merged_from, relevance_score, retrieved_at
		FROM sources ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("loading sources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s types.Source
		var authors, citations, mergedFrom, retrievedAt string
		if err := rows.Scan(&s.ID, &s.Title, &authors, &s.Year, &s.Abstract, &s.URL, &s.ArxivID, &s.DOI,
			&s.Provider, &s.LocalPath, &citations, &mergedFrom, &s.RelevanceScore, &retrievedAt); err != nil {
			return fmt.Errorf("scanning source: %w", err)
		}
		if err := decodeList(authors, &s.Authors); err != nil {
			return fmt.Errorf("decoding authors of %s: %w", s.ID, err)
		}
		if err := decodeList(citations, &s.Citations); err != nil {
			return fmt.Errorf("decoding citations of %s: %w", s.ID, err)
		}
		if err := decodeList(mergedFrom, &s.MergedFrom); err != nil {
			return fmt.Errorf("decoding merged_from of %s: %w", s.ID, err)
		}
		if t, err := time.Parse(time.RFC3339Nano, retrievedAt); err == nil {
			s.RetrievedAt = t
		}
		r.byID[s.ID] = s
		r.order = append(r.order, s.ID)
	}
	return rows.Err()
}

// Register stores s if its ID is not yet registered. It reports whether s
// was added.
func (r *Registry) Register(ctx context.Context, s types.Source) (bool, error) {
	if s.ID == "" {
		return false, fmt.Errorf("registering source without ID")
	}
	if _, ok := r.byID[s.ID]; ok {
		return false, nil
	}

	if r.db != nil {
		authors, _ := json.Marshal(nonNil(s.Authors))
		citations, _ := json.Marshal(nonNil(s.Citations))
		mergedFrom, _ := json.Marshal(nonNil(s.MergedFrom))
		_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO sources
			(id, title, authors, year, abstract, url, arxiv_id, doi, provider, local_path,
			 citations, merged_from, relevance_score, retrieved_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.Title, string(authors), s.Year, s.Abstract, s.URL, s.ArxivID, s.DOI, s.Provider,
			s.LocalPath, string(citations), string(mergedFrom), s.RelevanceScore,
			s.RetrievedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return false, fmt.Errorf("inserting source %s: %w", s.ID, err)
		}
	}

	r.byID[s.ID] = s
	r.order = append(r.order, s.ID)
	return true, nil
}

// Get returns the source registered under id.
func (r *Registry) Get(id string) (types.Source, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Len returns the number of registered sources.
func (r *Registry) Len() int { return len(r.order) }

// Sources returns every registered source in registration order.
func (r *Registry) Sources() []types.Source {
	out := make([]types.Source, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Lookup returns the registered sources for ids, skipping unknown IDs.
func (r *Registry) Lookup(ids []string) []types.Source {
	var out []types.Source
	for _, id := range ids {
		if s, ok := r.byID[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

func decodeList(raw string, dst *[]string) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
