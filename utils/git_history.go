package utils

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/reposcope/reposcope/code_analyzer/models"
)

// GitHistory collects per-file commit history. Availability is probed once
// at construction; when git is missing or the directory is not a repository,
// every lookup degrades to "no history available" without retrying.
type GitHistory struct {
	workingDir string
	available  bool
}

// NewGitHistory creates a GitHistory instance and probes availability.
func NewGitHistory(workingDir string) *GitHistory {
	g := &GitHistory{workingDir: workingDir}

	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = workingDir
	g.available = cmd.Run() == nil

	return g
}

// Available reports whether git history can be collected at all.
func (g *GitHistory) Available() bool {
	return g.available
}

// FileInsights returns the commit summary for a single file. Any failure
// degrades to HasHistory=false; it never aborts the caller's analysis.
func (g *GitHistory) FileInsights(ctx context.Context, relPath string) *models.GitInsights {
	insights := &models.GitInsights{}

	if !g.available {
		return insights
	}

	cmd := exec.CommandContext(ctx, "git", "log", "--follow", "--pretty=format:%an|%aI", "--", relPath)
	cmd.Dir = g.workingDir
	output, err := cmd.Output()
	if err != nil || len(output) == 0 {
		return insights
	}

	authorSet := make(map[string]bool)
	var first, last time.Time

	for _, line := range strings.Split(string(output), "\n") {
		parts := strings.SplitN(line, "|", 2)
		if len(parts) != 2 {
			continue
		}

		authorSet[parts[0]] = true
		when, err := time.Parse(time.RFC3339, parts[1])
		if err != nil {
			continue
		}

		// git log is newest-first
		if insights.CommitCount == 0 {
			last = when
		}
		first = when
		insights.CommitCount++
	}

	if insights.CommitCount == 0 {
		return insights
	}

	insights.HasHistory = true
	insights.FirstCommit = first
	insights.LastCommit = last
	for author := range authorSet {
		insights.Authors = append(insights.Authors, author)
	}
	sort.Strings(insights.Authors)

	return insights
}

// BranchName returns the current branch, for report headers.
func (g *GitHistory) BranchName() (string, error) {
	if !g.available {
		return "", fmt.Errorf("not a git repository")
	}

	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = g.workingDir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get branch name: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}
