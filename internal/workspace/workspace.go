// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workspace owns the on-disk layout of a run: the run state record,
// the plan record, and the section artifacts. The checkpoint records live
// alongside them and are managed by the checkpoint package.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-engine/internal/checkpoint"
	"github.com/pdiddy/paper-engine/internal/citation"
	"github.com/pdiddy/paper-engine/internal/fsutil"
	"github.com/pdiddy/paper-engine/pkg/types"
)

const (
	stateFile      = "state.yaml"
	planFile       = "plan.yaml"
	sectionsDir    = "sections"
	referencesFile = "references.yaml"
)

var (
	// ErrNotInitialized is returned when the state or plan record is missing.
	ErrNotInitialized = errors.New("run not initialized")

	// ErrNotResumable is returned by Resume when any of the state, plan, and
	// checkpoint records is missing.
	ErrNotResumable = errors.New("run not resumable")
)

// sectionFilePattern matches numbered section files: NN-slug.md.
var sectionFilePattern = regexp.MustCompile(`^\d{2}-.+\.md$`)

// now is replaced in tests.
var now = time.Now

// Workspace is the state and output directory pair of one run.
type Workspace struct {
	StateDir    string
	OutputDir   string
	Checkpoints *checkpoint.Store
	Logger      *zap.Logger
}

// Open returns the workspace rooted at stateDir and outputDir. Nothing is
// created until the first write.
func Open(stateDir, outputDir string, logger *zap.Logger) *Workspace {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workspace{
		StateDir:    stateDir,
		OutputDir:   outputDir,
		Checkpoints: checkpoint.New(stateDir, logger),
		Logger:      logger,
	}
}

// StatePath returns the path of the run state record.
func (w *Workspace) StatePath() string { return filepath.Join(w.StateDir, stateFile) }

// PlanPath returns the path of the plan record.
func (w *Workspace) PlanPath() string { return filepath.Join(w.StateDir, planFile) }

// SectionsDir returns the directory holding section artifacts.
func (w *Workspace) SectionsDir() string { return filepath.Join(w.OutputDir, sectionsDir) }

// ReferencesPath returns the path of the CSL-YAML reference list.
func (w *Workspace) ReferencesPath() string { return filepath.Join(w.OutputDir, referencesFile) }

// NewRunState returns the initial state record for a validated project.
func NewRunState(cfg types.ProjectConfig, profile string) *types.RunState {
	t := now().UTC()
	return &types.RunState{
		RunID:             uuid.NewString(),
		Config:            cfg,
		Profile:           profile,
		CompletedSections: []int{},
		FailedSections:    []int{},
		SkippedSections:   []int{},
		CreatedAt:         t,
		UpdatedAt:         t,
	}
}

// Initialized reports whether both the state and plan records exist.
func (w *Workspace) Initialized() bool {
	return exists(w.StatePath()) && exists(w.PlanPath())
}

// CanResume reports whether the state, plan, and checkpoint records all
// exist. Resume additionally requires that they parse.
func (w *Workspace) CanResume() bool {
	return w.Initialized() && w.Checkpoints.Exists()
}

// SaveState stamps UpdatedAt and writes the state record atomically.
func (w *Workspace) SaveState(st *types.RunState) error {
	st.UpdatedAt = now().UTC()
	if err := fsutil.WriteYAML(w.StatePath(), st); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

// LoadState reads the state record.
func (w *Workspace) LoadState() (*types.RunState, error) {
	var st types.RunState
	if err := fsutil.ReadYAML(w.StatePath(), &st); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s missing", ErrNotInitialized, w.StatePath())
		}
		return nil, fmt.Errorf("parsing state %s: %w", w.StatePath(), err)
	}
	return &st, nil
}

// SavePlan writes the plan record atomically.
func (w *Workspace) SavePlan(p *types.Plan) error {
	if err := fsutil.WriteYAML(w.PlanPath(), p); err != nil {
		return fmt.Errorf("saving plan: %w", err)
	}
	return nil
}

// LoadPlan reads the plan record.
func (w *Workspace) LoadPlan() (*types.Plan, error) {
	var p types.Plan
	if err := fsutil.ReadYAML(w.PlanPath(), &p); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s missing", ErrNotInitialized, w.PlanPath())
		}
		return nil, fmt.Errorf("parsing plan %s: %w", w.PlanPath(), err)
	}
	return &p, nil
}

// Resumed is everything a resumed run starts from.
type Resumed struct {
	State      *types.RunState
	Plan       *types.Plan
	Checkpoint *types.Checkpoint
}

// Resume loads the three records a resumed run requires. A missing record
// yields ErrNotResumable; an unparsable checkpoint yields
// checkpoint.ErrCorruptState. Neither is repaired.
func (w *Workspace) Resume() (*Resumed, error) {
	if !w.CanResume() {
		return nil, fmt.Errorf("%w: need %s, %s and %s", ErrNotResumable,
			w.StatePath(), w.PlanPath(), w.Checkpoints.CheckpointPath())
	}
	st, err := w.LoadState()
	if err != nil {
		return nil, err
	}
	p, err := w.LoadPlan()
	if err != nil {
		return nil, err
	}
	cp, err := w.Checkpoints.Load()
	if err != nil {
		return nil, err
	}
	if cp == nil {
		return nil, fmt.Errorf("%w: checkpoint vanished", ErrNotResumable)
	}
	return &Resumed{State: st, Plan: p, Checkpoint: cp}, nil
}

// Reset removes the run records and section artifacts. The source
// registry is kept so a fresh run does not re-download known sources.
func (w *Workspace) Reset() error {
	if err := w.Checkpoints.Clear(); err != nil {
		return err
	}
	for _, p := range []string{w.StatePath(), w.PlanPath(), w.ReferencesPath()} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", p, err)
		}
	}
	if err := os.RemoveAll(w.SectionsDir()); err != nil {
		return fmt.Errorf("removing %s: %w", w.SectionsDir(), err)
	}
	w.Logger.Info("workspace reset", zap.String("state_dir", w.StateDir))
	return nil
}

// SectionFileName returns the artifact name for a section: NN-slug.md.
func SectionFileName(sec *types.SectionPlan) string {
	return fmt.Sprintf("%02d-%s.md", sec.ID, Slugify(sec.Title))
}

// WriteSection writes a title line followed by body to the section's
// artifact and records the file name on sec.
func (w *Workspace) WriteSection(sec *types.SectionPlan, body string) (string, error) {
	name := SectionFileName(sec)
	path := filepath.Join(w.SectionsDir(), name)
	content := fmt.Sprintf("# %s\n\n%s\n", sec.Title, strings.TrimSpace(body))
	if err := fsutil.WriteFileAtomic(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing section %d: %w", sec.ID, err)
	}
	sec.File = name
	return path, nil
}

// ReadSection returns the body of a section artifact without its title line.
func (w *Workspace) ReadSection(sec *types.SectionPlan) (string, error) {
	name := sec.File
	if name == "" {
		name = SectionFileName(sec)
	}
	data, err := os.ReadFile(filepath.Join(w.SectionsDir(), name))
	if err != nil {
		return "", fmt.Errorf("reading section %d: %w", sec.ID, err)
	}
	text := string(data)
	if strings.HasPrefix(text, "# ") {
		if i := strings.Index(text, "\n"); i >= 0 {
			text = text[i+1:]
		} else {
			text = ""
		}
	}
	return strings.TrimSpace(text), nil
}

// CitedIDs returns the unique citation IDs of every validated section of p,
// in plan order.
func (w *Workspace) CitedIDs(p *types.Plan) ([]string, error) {
	seen := make(map[string]bool)
	ids := []string{}
	for i := range p.Sections {
		sec := &p.Sections[i]
		if sec.Status != types.StatusValidated {
			continue
		}
		body, err := w.ReadSection(sec)
		if err != nil {
			return nil, err
		}
		for _, id := range citation.Extract(body) {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// SectionFiles returns the ordered section artifact paths.
func (w *Workspace) SectionFiles() ([]string, error) {
	entries, err := os.ReadDir(w.SectionsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading sections directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && sectionFilePattern.MatchString(e.Name()) {
			files = append(files, filepath.Join(w.SectionsDir(), e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Slugify lowercases title and joins its alphanumeric runs with hyphens.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "section"
	}
	if len(s) > 60 {
		s = strings.TrimSuffix(s[:60], "-")
	}
	return s
}

// Progress summarizes the plan's section statuses for display.
func Progress(p *types.Plan) types.Progress {
	pr := types.Progress{Total: len(p.Sections)}
	for _, s := range p.Sections {
		switch s.Status {
		case types.StatusValidated:
			pr.Validated++
		case types.StatusFailed:
			pr.Failed++
		case types.StatusSkipped:
			pr.Skipped++
		default:
			if pr.NextSection == "" {
				pr.NextSection = fmt.Sprintf("[%d] %s", s.ID, s.Title)
			}
		}
	}
	pr.Remaining = pr.Total - pr.Validated - pr.Failed - pr.Skipped
	if pr.Total > 0 {
		pr.Percentage = float64(pr.Total-pr.Remaining) / float64(pr.Total) * 100
	}
	return pr
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
