package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reposcope/reposcope/code_analyzer"
	"github.com/reposcope/reposcope/code_analyzer/contracts"
	"github.com/reposcope/reposcope/config"
	"github.com/reposcope/reposcope/constants/lipgloss"
)

// RootDependencies holds the shared objects every subcommand needs.
type RootDependencies struct {
	Cwd      string
	Config   *config.Config
	Analyzer contracts.IProjectAnalyzer
}

var rootCmd = &cobra.Command{
	Use:   "reposcope",
	Short: "Project intelligence for multi-file source trees",
	Long: `reposcope scans a source tree and builds per-file structural metadata, a
cross-file dependency graph, duplicate clusters, unused/unwired
classifications, risk and stability scores, and actionable recommendations.`,
	Run: func(cmd *cobra.Command, args []string) {
		if version, _ := cmd.Flags().GetBool("version"); version {
			fmt.Println(config.DefaultConfig.Version)
			return
		}
		_ = cmd.Help()
	},
}

func init() {
	config.InitFlags(rootCmd)
}

// handleRootCommand wires configuration and the analyzer for a subcommand.
func handleRootCommand(cmd *cobra.Command) *RootDependencies {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting current directory: %v", err)))
		return nil
	}

	cfg := config.LoadConfigs(rootCmd, cwd)

	return &RootDependencies{
		Cwd:      cwd,
		Config:   cfg,
		Analyzer: code_analyzer.NewCodeAnalyzer(cwd, cfg),
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}
