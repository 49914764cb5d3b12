package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextfile(t *testing.T) {
	SectionOutcomes.WithLabelValues("validated").Inc()
	SupplementalSearches.Inc()

	dir := t.TempDir()
	require.NoError(t, WriteTextfile(dir))

	data, err := os.ReadFile(filepath.Join(dir, TextfileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `paper_engine_sections_total{status="validated"}`)
	assert.Contains(t, string(data), "paper_engine_supplemental_searches_total")
}
