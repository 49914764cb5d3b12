// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, AnthropicAPIKey, "  ak_abc123  \n")
				writeFile(t, dir, SemanticScholarAPIKey, "sk_xyz789")
				writeFile(t, dir, OpenAlexEmail, "user@example.com\n")
				return dir
			},
			want: map[string]string{
				AnthropicAPIKey:       "ak_abc123",
				SemanticScholarAPIKey: "sk_xyz789",
				OpenAlexEmail:         "user@example.com",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, OpenRouterAPIKey, "or-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{OpenRouterAPIKey: "or-key"},
		},
		{
			name: "skips dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, AnthropicAPIKey, "ak_real")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{AnthropicAPIKey: "ak_real"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), zaptest.NewLogger(t))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read mode 0 files")
	}
	dir := t.TempDir()
	writeFile(t, dir, "good-key", "value123")
	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	got, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"good-key": "value123"}, got)
}

func TestResolve(t *testing.T) {
	t.Setenv("OPENALEX_EMAIL", "env@example.com")
	t.Setenv("OPENROUTER_API_KEY", "")
	s := map[string]string{AnthropicAPIKey: "from-file"}

	assert.Equal(t, "explicit", Resolve(s, AnthropicAPIKey, "explicit"))
	assert.Equal(t, "from-file", Resolve(s, AnthropicAPIKey, ""))
	assert.Equal(t, "env@example.com", Resolve(s, OpenAlexEmail, ""))
	assert.Empty(t, Resolve(nil, OpenRouterAPIKey, ""))
	assert.Equal(t, "SEMANTIC_SCHOLAR_API_KEY", EnvName(SemanticScholarAPIKey))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
