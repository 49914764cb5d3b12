// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fulltext caches source full texts (arXiv PDFs) on local disk. A
// cached full text ranks a source first when duplicate candidates merge.
package fulltext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/paper-engine/internal/httputil"
	"github.com/pdiddy/paper-engine/pkg/types"
)

// arxivPDFBase is the arXiv PDF download prefix. Declared as a var so tests
// can substitute an httptest server.
var arxivPDFBase = "https://arxiv.org/pdf/"

// ErrNoFullText is returned for sources with no downloadable full text.
var ErrNoFullText = errors.New("no downloadable full text")

// Fetcher downloads full texts into Dir.
type Fetcher struct {
	Client    *http.Client
	Dir       string
	UserAgent string
}

// Fetch downloads the full text of src and returns its local path. An
// already cached file is not downloaded again.
func (f *Fetcher) Fetch(ctx context.Context, src types.Source) (string, error) {
	if src.ArxivID == "" {
		return "", ErrNoFullText
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache directory: %w", err)
	}

	destPath := filepath.Join(f.Dir, fileName(src.ArxivID))
	if _, err := os.Stat(destPath); err == nil {
		return destPath, nil
	}

	if err := f.downloadFile(ctx, arxivPDFBase+src.ArxivID, destPath); err != nil {
		return "", err
	}
	return destPath, nil
}

// fileName maps an arXiv ID to a flat filename ("cs/0112017" → "cs_0112017.pdf").
func fileName(arxivID string) string {
	return strings.ReplaceAll(arxivID, "/", "_") + ".pdf"
}

func (f *Fetcher) downloadFile(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fulltext-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
