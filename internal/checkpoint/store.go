// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package checkpoint persists the resumable cursor of a run and the
// context ledger that accompanies it.
package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-engine/internal/fsutil"
	"github.com/pdiddy/paper-engine/pkg/types"
)

const (
	checkpointFile   = "checkpoint.yaml"
	contextCacheFile = "context_cache.yaml"
)

// ErrCorruptState is returned by Load when the checkpoint record exists but
// cannot be parsed. A run with a corrupt checkpoint is not resumable.
var ErrCorruptState = errors.New("corrupt checkpoint state")

// now is replaced in tests.
var now = time.Now

// Store reads and writes checkpoint.yaml and context_cache.yaml in Dir.
type Store struct {
	Dir    string
	Logger *zap.Logger
}

// New returns a Store rooted at dir.
func New(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{Dir: dir, Logger: logger}
}

// CheckpointPath returns the path of the checkpoint record.
func (s *Store) CheckpointPath() string { return filepath.Join(s.Dir, checkpointFile) }

// ContextCachePath returns the path of the context-cache record.
func (s *Store) ContextCachePath() string { return filepath.Join(s.Dir, contextCacheFile) }

type contextCache struct {
	Summaries []types.ContextSummary `yaml:"summaries"`
}

// Save writes the context cache and then the checkpoint, each atomically.
// The checkpoint write is the commit point: a crash before it leaves the
// previous checkpoint in place.
func (s *Store) Save(nextSectionID int, completed []int, cache []types.ContextSummary) error {
	if completed == nil {
		completed = []int{}
	}
	if cache == nil {
		cache = []types.ContextSummary{}
	}
	if err := fsutil.WriteYAML(s.ContextCachePath(), contextCache{Summaries: cache}); err != nil {
		return fmt.Errorf("saving context cache: %w", err)
	}

	cp := types.Checkpoint{
		NextSectionID:       nextSectionID,
		CompletedSectionIDs: completed,
		Timestamp:           now().UTC(),
	}
	if err := fsutil.WriteYAML(s.CheckpointPath(), cp); err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	s.Logger.Debug("checkpoint saved",
		zap.Int("next_section", nextSectionID),
		zap.Ints("completed", completed),
		zap.Int("summaries", len(cache)),
	)
	return nil
}

// Load returns the saved checkpoint with its context cache, or nil when no
// checkpoint exists. A checkpoint that cannot be parsed yields
// ErrCorruptState. A missing or unreadable context cache leaves
// ContextCache empty.
func (s *Store) Load() (*types.Checkpoint, error) {
	var cp types.Checkpoint
	if err := fsutil.ReadYAML(s.CheckpointPath(), &cp); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptState, s.CheckpointPath(), err)
	}
	if cp.NextSectionID < 0 {
		return nil, fmt.Errorf("%w: negative next_section_id %d", ErrCorruptState, cp.NextSectionID)
	}
	for _, id := range cp.CompletedSectionIDs {
		if id < 0 {
			return nil, fmt.Errorf("%w: negative completed section id %d", ErrCorruptState, id)
		}
	}

	var cc contextCache
	switch err := fsutil.ReadYAML(s.ContextCachePath(), &cc); {
	case err == nil:
		cp.ContextCache = cc.Summaries
	case os.IsNotExist(err):
		s.Logger.Info("no context cache, resuming with an empty ledger")
	default:
		s.Logger.Warn("unreadable context cache, resuming with an empty ledger",
			zap.String("path", s.ContextCachePath()), zap.Error(err))
	}
	return &cp, nil
}

// Exists reports whether a checkpoint record is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.CheckpointPath())
	return err == nil
}

// Clear removes both records. Missing files are not an error.
func (s *Store) Clear() error {
	for _, p := range []string{s.CheckpointPath(), s.ContextCachePath()} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", p, err)
		}
	}
	return nil
}
