package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-engine/internal/registry"
	"github.com/pdiddy/paper-engine/internal/search"
	"github.com/pdiddy/paper-engine/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search academic APIs for candidate sources",
	Long: `Search queries academic APIs (arXiv, Semantic Scholar, OpenAlex) for papers
matching a research question or structured query parameters. Results are
deduplicated across providers. With --register they are added to the source
registry so a run can cite them.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "free-text research question")
	searchCmd.Flags().String("author", "", "filter by author name")
	searchCmd.Flags().String("keywords", "", "filter by keywords (comma-separated)")
	searchCmd.Flags().String("from", "", "publication date range start (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "publication date range end (YYYY-MM-DD)")
	searchCmd.Flags().Int("max-results", 0, "maximum number of results per provider (default from config)")
	searchCmd.Flags().String("format", "table", "output format: table, json, or csl")
	searchCmd.Flags().Bool("register", false, "add results to the source registry")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, err := queryFromFlags(cmd, args)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		cfg.Search.MaxResults = n
	}

	ctx := context.Background()
	var reg *registry.Registry
	if register, _ := cmd.Flags().GetBool("register"); register {
		reg, err = registry.Open(ctx, cfg.StateDir, logger.Named("registry"))
		if err != nil {
			return fmt.Errorf("opening source registry: %w", err)
		}
		defer reg.Close()
	}

	out, err := newAggregator(cfg, reg).Search(ctx, query)
	if err != nil {
		return err
	}
	if reg != nil {
		fmt.Fprintf(os.Stderr, "registered %d new sources\n", out.Registered)
	}
	return writeSources(out.Sources, out.DupsRemoved, format)
}

func queryFromFlags(cmd *cobra.Command, args []string) (search.Query, error) {
	var q search.Query
	q.FreeText, _ = cmd.Flags().GetString("query")
	if q.FreeText == "" && len(args) > 0 {
		q.FreeText = strings.Join(args, " ")
	}
	q.Author, _ = cmd.Flags().GetString("author")
	if kw, _ := cmd.Flags().GetString("keywords"); kw != "" {
		for _, k := range strings.Split(kw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				q.Keywords = append(q.Keywords, k)
			}
		}
	}

	var err error
	if q.DateFrom, err = parseDateFlag(cmd, "from"); err != nil {
		return q, err
	}
	if q.DateTo, err = parseDateFlag(cmd, "to"); err != nil {
		return q, err
	}
	return q, nil
}

func parseDateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s date %q (want YYYY-MM-DD)", name, s)
	}
	return t, nil
}

func checkFormat(format string) error {
	switch format {
	case "table", "json", "csl":
		return nil
	}
	return fmt.Errorf("unknown format %q (want table, json, or csl)", format)
}

func writeSources(sources []types.Source, dupsRemoved int, format string) error {
	switch format {
	case "json":
		return search.FormatJSON(sources, os.Stdout)
	case "csl":
		return search.FormatCSL(sources, os.Stdout)
	default:
		search.FormatTable(sources, dupsRemoved, os.Stdout)
		return nil
	}
}
