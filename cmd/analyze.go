package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/reposcope/reposcope/code_analyzer/models"
	"github.com/reposcope/reposcope/constants/lipgloss"
)

// analyzeCmd: reposcope analyze [path]
var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a project tree and report duplicates, unwired files, and risks",
	Long: `The 'analyze' subcommand runs the full analysis pipeline over a project
tree: scanning, dependency graph construction, duplicate detection,
usage classification, risk scoring, and recommendations. The summary is
printed to the terminal; pass --output to also write the full JSON report.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		handleAnalyzeCommand(rootDependencies, args)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func handleAnalyzeCommand(rootDependencies *RootDependencies, args []string) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootDir := rootDependencies.Cwd
	if len(args) > 0 {
		rootDir = args[0]
	}

	// Being able to read the project root at all is the one startup
	// precondition the engine does not own.
	if info, err := os.Stat(rootDir); err != nil || !info.IsDir() {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Cannot read project root %s", rootDir)))
		return
	}

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).WithRemoveWhenDone(true)

	spinnerInstance, _ := spinner.Start("Analyzing project...")

	report, err := rootDependencies.Analyzer.Analyze(ctx, rootDir)

	spinnerInstance.Stop()
	fmt.Print("\r")

	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}

	printSummary(report, rootDependencies.Config.ShowOnlyUnwired)

	if rootDependencies.Config.OutputDir != "" {
		if err := writeReport(report, rootDependencies.Config.OutputDir); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error writing report: %v", err)))
			return
		}
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Report written to %s", rootDependencies.Config.OutputDir)))
	}
}

func printSummary(report *models.AnalysisReport, onlyUnwired bool) {
	if onlyUnwired {
		printUnwired(report)
		return
	}

	header := fmt.Sprintf("Analyzed %d files in %s (cache hit rate %.1f%%)",
		report.Stats.FilesScanned, report.Stats.Duration.Round(time.Millisecond), report.Stats.CacheHitRate)
	fmt.Println(lipgloss.BoxStyle.Render(header))

	fmt.Printf("  Dependency edges: %d\n", report.Graph.EdgeCount())
	fmt.Printf("  Duplicate clusters: %d\n", len(report.DuplicateClusters))
	fmt.Printf("  Unused files: %d\n", len(report.UnusedFiles))
	fmt.Printf("  Unwired files: %d\n", len(report.UnwiredFiles))
	fmt.Printf("  High-risk files: %d\n", len(report.HighRiskFiles))

	for _, cluster := range report.DuplicateClusters {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("  ≈ %s (%d files, ~%d lines recoverable, confidence %.0f%%)",
			cluster.BaseFile, len(cluster.Files), cluster.EstimatedSavings, cluster.Confidence)))
	}

	for _, path := range report.HighRiskFiles {
		record := report.Files[path]
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("  ! %s (risk %.0f, %s)", path, record.RiskScore, record.RiskLevel)))
	}

	printUnwired(report)
}

func printUnwired(report *models.AnalysisReport) {
	for _, path := range report.UnwiredFiles {
		record := report.Files[path]
		fmt.Println(lipgloss.Cyan.Render(fmt.Sprintf("  ∅ %s (%s → %s)", path, record.UnwiredType, record.Recommendation)))
		for _, suggestion := range record.WiringSuggestions {
			fmt.Println(lipgloss.Gray.Render(fmt.Sprintf("      wire into %s (%.0f%%): %s",
				suggestion.TargetPath, suggestion.Similarity*100, suggestion.Reason)))
		}
	}
}

func writeReport(report *models.AnalysisReport, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	return os.WriteFile(filepath.Join(outputDir, "analysis-report.json"), data, 0644)
}
