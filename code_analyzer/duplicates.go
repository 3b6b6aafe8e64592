package code_analyzer

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/reposcope/reposcope/code_analyzer/models"
)

// DuplicateDetector performs two-phase clustering: exact content-hash
// grouping, then structural-hash pre-filtering with pairwise similarity
// scoring and greedy cluster formation.
type DuplicateDetector struct {
	rootDir             string
	similarityThreshold float64
	workers             int
}

// NewDuplicateDetector creates a detector. similarityThreshold is the
// minimum pairwise similarity for a file to join a structural cluster.
func NewDuplicateDetector(rootDir string, similarityThreshold float64, workers int) *DuplicateDetector {
	if workers < 1 {
		workers = 1
	}
	return &DuplicateDetector{
		rootDir:             rootDir,
		similarityThreshold: similarityThreshold,
		workers:             workers,
	}
}

// Detect runs both phases and mutates duplicate_of/structural_duplicates on
// the records. Structural similarity scoring is the compute-heavy step and
// runs one candidate group per worker.
func (d *DuplicateDetector) Detect(ctx context.Context, records map[string]*models.FileRecord) []models.DuplicateCluster {
	clusters := d.detectExact(records)
	clusters = append(clusters, d.detectStructural(ctx, records)...)
	return clusters
}

// detectExact groups files by content hash. Any group of size > 1 is an
// exact cluster with full confidence and a deterministically chosen base.
func (d *DuplicateDetector) detectExact(records map[string]*models.FileRecord) []models.DuplicateCluster {
	byHash := make(map[string][]string)
	for path, record := range records {
		byHash[record.ContentHash] = append(byHash[record.ContentHash], path)
	}

	hashes := make([]string, 0, len(byHash))
	for hash := range byHash {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)

	var clusters []models.DuplicateCluster
	for _, hash := range hashes {
		group := byHash[hash]
		if len(group) < 2 {
			continue
		}

		base := chooseBaseFile(group)
		savings := 0
		for _, path := range group {
			if path != base {
				records[path].DuplicateOf = base
				savings += records[path].LineCount
			}
		}

		sort.Strings(group)
		clusters = append(clusters, models.DuplicateCluster{
			ID:               uuid.NewString(),
			Similarity:       1.0,
			Files:            group,
			BaseFile:         base,
			EstimatedSavings: savings,
			Confidence:       100,
		})
	}

	return clusters
}

// detectStructural clusters files that hash equal structurally but differ in
// content, joining a cluster only when pairwise similarity to the base
// exceeds the configured threshold.
func (d *DuplicateDetector) detectStructural(ctx context.Context, records map[string]*models.FileRecord) []models.DuplicateCluster {
	byHash := make(map[string][]string)
	for path, record := range records {
		// Files already claimed by an exact cluster stay out of phase 2.
		if record.DuplicateOf != "" || record.StructuralHash == "" {
			continue
		}
		byHash[record.StructuralHash] = append(byHash[record.StructuralHash], path)
	}

	hashes := make([]string, 0, len(byHash))
	for hash := range byHash {
		if len(byHash[hash]) > 1 {
			hashes = append(hashes, hash)
		}
	}
	sort.Strings(hashes)

	var (
		mutex    sync.Mutex
		clusters []models.DuplicateCluster
	)

	group, _ := errgroup.WithContext(ctx)
	group.SetLimit(d.workers)

	for _, hash := range hashes {
		candidates := byHash[hash]
		group.Go(func() error {
			found := d.clusterGroup(candidates, records)
			if len(found) > 0 {
				mutex.Lock()
				clusters = append(clusters, found...)
				mutex.Unlock()
			}
			return nil
		})
	}
	group.Wait()

	sort.Slice(clusters, func(i, j int) bool { return clusters[i].BaseFile < clusters[j].BaseFile })
	return clusters
}

// clusterGroup greedily forms sub-clusters within one structural-hash group.
func (d *DuplicateDetector) clusterGroup(candidates []string, records map[string]*models.FileRecord) []models.DuplicateCluster {
	sort.Strings(candidates)
	claimed := make(map[string]bool)

	var clusters []models.DuplicateCluster

	for _, basePath := range candidates {
		if claimed[basePath] {
			continue
		}

		baseLines := d.fileLines(basePath)
		members := []string{basePath}
		totalSimilarity := 0.0
		savings := 0

		for _, otherPath := range candidates {
			if otherPath == basePath || claimed[otherPath] {
				continue
			}

			similarity := d.pairSimilarity(records[basePath], records[otherPath], baseLines, d.fileLines(otherPath))
			if similarity < d.similarityThreshold {
				continue
			}

			members = append(members, otherPath)
			totalSimilarity += similarity
			savings += records[otherPath].LineCount
			claimed[otherPath] = true
		}

		if len(members) < 2 {
			continue
		}
		claimed[basePath] = true

		base := chooseBaseFile(members)
		averageSimilarity := totalSimilarity / float64(len(members)-1)

		for _, member := range members {
			for _, peer := range members {
				if member != peer {
					records[member].StructuralDuplicates = append(records[member].StructuralDuplicates, peer)
				}
			}
			sort.Strings(records[member].StructuralDuplicates)
		}

		sort.Strings(members)
		clusters = append(clusters, models.DuplicateCluster{
			ID:               uuid.NewString(),
			Similarity:       averageSimilarity,
			Files:            members,
			BaseFile:         base,
			EstimatedSavings: savings,
			Confidence:       averageSimilarity * 100,
		})
	}

	return clusters
}

// pairSimilarity combines export/import token-set overlap with ordered-line
// sequence similarity, weighted equally.
func (d *DuplicateDetector) pairSimilarity(a, b *models.FileRecord, aLines, bLines []string) float64 {
	tokenScore := (jaccard(a.Exports, b.Exports) + jaccard(a.Imports, b.Imports)) / 2
	sequenceScore := lineSequenceSimilarity(aLines, bLines)
	return 0.5*tokenScore + 0.5*sequenceScore
}

// fileLines reads a file and returns its trimmed, non-empty lines.
func (d *DuplicateDetector) fileLines(relativePath string) []string {
	content, err := os.ReadFile(filepath.Join(d.rootDir, filepath.FromSlash(relativePath)))
	if err != nil {
		return nil
	}

	var lines []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// chooseBaseFile picks the canonical file of a cluster: shortest path first,
// then lexical order.
func chooseBaseFile(paths []string) string {
	base := paths[0]
	for _, path := range paths[1:] {
		if len(path) < len(base) || (len(path) == len(base) && path < base) {
			base = path
		}
	}
	return base
}

// jaccard is token-set overlap between two symbol lists.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	setA := make(map[string]bool, len(a))
	for _, token := range a {
		setA[token] = true
	}

	setB := make(map[string]bool, len(b))
	intersection := 0
	for _, token := range b {
		if !setB[token] {
			setB[token] = true
			if setA[token] {
				intersection++
			}
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// lineSequenceSimilarity is the longest-common-subsequence ratio over the
// two files' ordered line sequences.
func lineSequenceSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	// Single-row LCS to keep memory linear in the shorter file.
	previous := make([]int, len(b)+1)
	current := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				current[j] = previous[j-1] + 1
			} else if previous[j] >= current[j-1] {
				current[j] = previous[j]
			} else {
				current[j] = current[j-1]
			}
		}
		previous, current = current, previous
	}

	lcs := previous[len(b)]
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	return float64(lcs) / float64(longer)
}
