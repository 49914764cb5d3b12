// Package metrics defines the Prometheus instruments for a generation run
// and exports them as a node-exporter textfile.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TextfileName is the metrics export filename inside the state directory.
const TextfileName = "metrics.prom"

var (
	// Section metrics
	SectionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_engine_sections_total",
			Help: "Total number of sections reaching a terminal status",
		},
		[]string{"status"},
	)

	GenerationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_engine_generation_attempts_total",
			Help: "Total number of section generation attempts",
		},
		[]string{"result"},
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "paper_engine_generation_duration_seconds",
			Help:    "Generation collaborator call duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	ValidationIssues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_engine_validation_issues_total",
			Help: "Total number of citation gate issues",
		},
		[]string{"kind", "severity"},
	)

	// Research metrics
	SupplementalSearches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paper_engine_supplemental_searches_total",
			Help: "Total number of gap-driven supplemental searches",
		},
	)

	SourcesRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paper_engine_sources_registered_total",
			Help: "Total number of sources added to the registry",
		},
	)

	DuplicatesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paper_engine_duplicates_removed_total",
			Help: "Total number of duplicate candidates merged",
		},
	)

	BackendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_engine_backend_errors_total",
			Help: "Total number of search provider failures",
		},
		[]string{"backend"},
	)

	// Run metrics
	Suspensions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paper_engine_suspensions_total",
			Help: "Total number of runs suspended by signal",
		},
	)
)

// WriteTextfile writes the default registry to dir/metrics.prom.
func WriteTextfile(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}
	path := filepath.Join(dir, TextfileName)
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
