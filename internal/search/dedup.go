// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-engine/pkg/types"
)

// DefaultTitleSimilarity is the title similarity ratio at or above which two
// same-year candidates are considered the same work.
const DefaultTitleSimilarity = 0.85

// Deduplicator merges candidate sources that refer to the same work.
type Deduplicator struct {
	// Threshold is the title similarity ratio for same-year candidates.
	// Zero means DefaultTitleSimilarity.
	Threshold float64

	Logger *zap.Logger
}

// NewDeduplicator returns a Deduplicator with the given threshold.
func NewDeduplicator(threshold float64, logger *zap.Logger) *Deduplicator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deduplicator{Threshold: threshold, Logger: logger}
}

func (d *Deduplicator) threshold() float64 {
	if d.Threshold <= 0 {
		return DefaultTitleSimilarity
	}
	return d.Threshold
}

func (d *Deduplicator) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// Deduplicate returns one merged record per duplicate cluster, ordered by
// the first occurrence of each cluster, and the number of candidates
// removed. Malformed candidates (no ID or no title) are dropped and not
// counted as duplicates. Merging repeats until no two survivors are
// duplicates, so deduplicating the output again returns it unchanged.
func (d *Deduplicator) Deduplicate(candidates []types.Source) ([]types.Source, int) {
	var valid []types.Source
	for _, c := range candidates {
		if strings.TrimSpace(c.ID) == "" || strings.TrimSpace(c.Title) == "" {
			d.logger().Debug("dropping malformed candidate",
				zap.String("id", c.ID), zap.String("title", c.Title), zap.String("provider", c.Provider))
			continue
		}
		valid = append(valid, c)
	}

	removed := 0
	current := valid
	for {
		next, n := d.mergeOnce(current)
		removed += n
		current = next
		if n == 0 {
			break
		}
	}

	if removed > 0 {
		d.logger().Debug("deduplication complete",
			zap.Int("candidates", len(valid)), zap.Int("unique", len(current)), zap.Int("removed", removed))
	}
	return current, removed
}

// mergeOnce clusters the records under the transitive closure of Duplicates
// and merges each cluster.
func (d *Deduplicator) mergeOnce(records []types.Source) ([]types.Source, int) {
	n := len(records)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if find(i) == find(j) {
				continue
			}
			if d.Duplicates(records[i], records[j]) {
				ri, rj := find(i), find(j)
				if ri < rj {
					parent[rj] = ri
				} else {
					parent[ri] = rj
				}
			}
		}
	}

	clusters := make(map[int][]types.Source)
	var roots []int
	for i, r := range records {
		root := find(i)
		if _, ok := clusters[root]; !ok {
			roots = append(roots, root)
		}
		clusters[root] = append(clusters[root], r)
	}

	out := make([]types.Source, 0, len(roots))
	for _, root := range roots {
		out = append(out, merge(clusters[root]))
	}
	return out, n - len(out)
}

// Duplicates reports whether a and b refer to the same work: same ID, same
// arXiv ID, same DOI, or same nonzero year with title similarity at or
// above the threshold.
func (d *Deduplicator) Duplicates(a, b types.Source) bool {
	if a.ID != "" && a.ID == b.ID {
		return true
	}
	if aid, bid := arxivIdentity(a), arxivIdentity(b); aid != "" && aid == bid {
		return true
	}
	if adoi, bdoi := doiIdentity(a), doiIdentity(b); adoi != "" && adoi == bdoi {
		return true
	}
	if a.Year != 0 && a.Year == b.Year {
		return TitleSimilarity(a.Title, b.Title) >= d.threshold()
	}
	return false
}

// TitleSimilarity returns the sequence-matching ratio of two titles after
// lowercasing and collapsing whitespace.
func TitleSimilarity(a, b string) float64 {
	na := strings.Join(strings.Fields(strings.ToLower(a)), " ")
	nb := strings.Join(strings.Fields(strings.ToLower(b)), " ")
	if na == "" && nb == "" {
		return 1
	}
	m := difflib.NewMatcher(strings.Split(na, ""), strings.Split(nb, ""))
	return m.Ratio()
}

func arxivIdentity(s types.Source) string {
	if s.ArxivID != "" {
		return stripArxivVersion(strings.ToLower(s.ArxivID))
	}
	if prefix, native, ok := types.SplitID(s.ID); ok && prefix == types.PrefixArxiv {
		return stripArxivVersion(strings.ToLower(native))
	}
	return ""
}

func doiIdentity(s types.Source) string {
	if s.DOI != "" {
		return types.NormalizeDOI(s.DOI)
	}
	if prefix, native, ok := types.SplitID(s.ID); ok && prefix == types.PrefixDOI {
		return types.NormalizeDOI(native)
	}
	return ""
}

// merge selects the best representative of a cluster and fills its gaps
// from the other members. A single-member cluster is returned unchanged.
func merge(cluster []types.Source) types.Source {
	if len(cluster) == 1 {
		return cluster[0]
	}

	ranked := make([]types.Source, len(cluster))
	copy(ranked, cluster)
	sort.SliceStable(ranked, func(i, j int) bool {
		return rankLess(ranked[j], ranked[i])
	})

	best := ranked[0]
	best.Authors = append([]string(nil), best.Authors...)

	var citations []string
	seenCite := make(map[string]bool)
	var mergedFrom []string
	seenMerged := make(map[string]bool)
	addMerged := func(id string) {
		if id != "" && !seenMerged[id] {
			seenMerged[id] = true
			mergedFrom = append(mergedFrom, id)
		}
	}
	var providers []string
	seenProvider := make(map[string]bool)

	for _, m := range ranked {
		for _, c := range m.Citations {
			if !seenCite[c] {
				seenCite[c] = true
				citations = append(citations, c)
			}
		}
		for _, p := range strings.Split(m.Provider, ",") {
			if p != "" && !seenProvider[p] {
				seenProvider[p] = true
				providers = append(providers, p)
			}
		}
		if best.ArxivID == "" {
			best.ArxivID = m.ArxivID
		}
		if best.DOI == "" {
			best.DOI = m.DOI
		}
		if best.Year == 0 {
			best.Year = m.Year
		}
		if best.URL == "" {
			best.URL = m.URL
		}
		if best.Abstract == "" {
			best.Abstract = m.Abstract
		}
		if best.LocalPath == "" {
			best.LocalPath = m.LocalPath
		}
		if m.RelevanceScore > best.RelevanceScore {
			best.RelevanceScore = m.RelevanceScore
		}
	}
	if len(best.Authors) == 0 {
		best.Authors = mergeAuthors(ranked)
	}

	// MergedFrom keeps the input order of the members.
	for _, m := range cluster {
		if len(m.MergedFrom) > 0 {
			for _, id := range m.MergedFrom {
				addMerged(id)
			}
		} else {
			addMerged(m.ID)
		}
	}

	best.Citations = citations
	best.MergedFrom = mergedFrom
	best.Provider = strings.Join(providers, ",")
	return best
}

// rankLess orders by (has local full text, abstract length, citation count).
func rankLess(a, b types.Source) bool {
	ah, bh := a.LocalPath != "", b.LocalPath != ""
	if ah != bh {
		return !ah
	}
	if len(a.Abstract) != len(b.Abstract) {
		return len(a.Abstract) < len(b.Abstract)
	}
	return len(a.Citations) < len(b.Citations)
}

func mergeAuthors(cluster []types.Source) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range cluster {
		for _, a := range m.Authors {
			key := strings.ToLower(a)
			if !seen[key] {
				seen[key] = true
				out = append(out, a)
			}
		}
	}
	return out
}
