package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/reposcope/reposcope/constants/lipgloss"
)

// resetCacheCmd represents the reset-cache command
var resetCacheCmd = &cobra.Command{
	Use:   "reset-cache",
	Short: "Reset the metadata cache",
	Long: `The 'reset-cache' command removes all cached per-file analysis results.
Use this command to clear a corrupted cache or to force a full cold re-scan.`,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		stats, _ := cmd.Flags().GetBool("stats")
		handleResetCacheCommand(force, stats, cmd)
	},
}

func init() {
	resetCacheCmd.Flags().BoolP("force", "f", false, "Force cache reset without confirmation")
	resetCacheCmd.Flags().BoolP("stats", "s", false, "Show cache statistics instead of resetting")

	rootCmd.AddCommand(resetCacheCmd)
}

func handleResetCacheCommand(force bool, showStats bool, cmd *cobra.Command) {
	rootDependencies := handleRootCommand(cmd)
	if rootDependencies == nil {
		return
	}

	if showStats {
		fmt.Println(lipgloss.Info.Render("Cache Statistics:"))
		cacheStats := rootDependencies.Analyzer.GetCacheStats()
		if enabled, ok := cacheStats["cache_enabled"].(bool); !ok || !enabled {
			fmt.Println("  Cache is disabled")
			return
		}
		if path, ok := cacheStats["cache_path"].(string); ok {
			fmt.Printf("  Cache File: %s\n", path)
		}
		if entries, ok := cacheStats["cached_entries"].(int); ok {
			fmt.Printf("  Cached Entries: %d\n", entries)
		}
		if hitRate, ok := cacheStats["hit_rate_percent"].(float64); ok {
			fmt.Printf("  Hit Rate: %.1f%%\n", hitRate)
		}
		return
	}

	if !force {
		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Are you sure you want to reset the metadata cache? (y/N): ")
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println(lipgloss.Yellow.Render("Cache reset cancelled."))
			return
		}
	}

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).WithRemoveWhenDone(true)

	spinnerInstance, _ := spinner.Start("Resetting metadata cache...")

	err := rootDependencies.Analyzer.ClearCache()

	spinnerInstance.Stop()
	fmt.Print("\r")

	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error resetting cache: %v", err)))
		return
	}

	fmt.Println(lipgloss.Green.Render("✓ Metadata cache has been successfully reset!"))
}
