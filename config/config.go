package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reposcope/reposcope/constants/lipgloss"
)

// Thresholds are the heuristic constants driving duplicate detection and
// unwired classification. They are deliberately configuration, not code:
// the engine only promises monotonic, threshold-driven behavior, not that
// any particular value is correct.
type Thresholds struct {
	DuplicateSimilarity   float64 `mapstructure:"duplicate_similarity"`
	WiringSimilarityFloor float64 `mapstructure:"wiring_similarity_floor"`
	UnwiredMinExports     int     `mapstructure:"unwired_min_exports"`
	UnwiredMinLines       int     `mapstructure:"unwired_min_lines"`
	ActiveHistoryCommits  int     `mapstructure:"active_history_commits"`
	RecentWindowDays      int     `mapstructure:"recent_window_days"`
}

// Config represents the structure of the configuration file
type Config struct {
	Version         string     `mapstructure:"version"`
	EnableCache     bool       `mapstructure:"enable_cache"`
	EnableParallel  bool       `mapstructure:"enable_parallel"`
	EnableGit       bool       `mapstructure:"enable_git"`
	Workers         int        `mapstructure:"workers"`
	Verbosity       string     `mapstructure:"verbosity"`
	ShowOnlyUnwired bool       `mapstructure:"show_only_unwired"`
	OutputDir       string     `mapstructure:"output_dir"`
	Thresholds      Thresholds `mapstructure:"thresholds"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version:         "0.3.0",
	EnableCache:     true,
	EnableParallel:  true,
	EnableGit:       true,
	Workers:         runtime.NumCPU(),
	Verbosity:       "info",
	ShowOnlyUnwired: false,
	OutputDir:       "",
	Thresholds: Thresholds{
		DuplicateSimilarity:   0.85,
		WiringSimilarityFloor: 0.30,
		UnwiredMinExports:     2,
		UnwiredMinLines:       50,
		ActiveHistoryCommits:  5,
		RecentWindowDays:      30,
	},
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs initializes the configuration from file, flags, and environment
// variables, and returns the final config.
func LoadConfigs(rootCmd *cobra.Command, cwd string) *Config {
	var config *Config

	setDefaults()

	viper.AutomaticEnv()
	bindEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error reading config file: %v", err)))
			os.Exit(1)
		}
	} else {
		viper.SetConfigName("reposcope-config")
		viper.AddConfigPath(cwd)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			viper.SetConfigType("json")
			// Missing config is fine; defaults apply.
			_ = viper.ReadInConfig()
		}
	}

	bindFlags(rootCmd)

	if err := viper.Unmarshal(&config); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Unable to decode into struct: %v", err)))
		os.Exit(1)
	}

	return config
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("version", DefaultConfig.Version)
	viper.SetDefault("enable_cache", DefaultConfig.EnableCache)
	viper.SetDefault("enable_parallel", DefaultConfig.EnableParallel)
	viper.SetDefault("enable_git", DefaultConfig.EnableGit)
	viper.SetDefault("workers", DefaultConfig.Workers)
	viper.SetDefault("verbosity", DefaultConfig.Verbosity)
	viper.SetDefault("show_only_unwired", DefaultConfig.ShowOnlyUnwired)
	viper.SetDefault("output_dir", DefaultConfig.OutputDir)
	viper.SetDefault("thresholds.duplicate_similarity", DefaultConfig.Thresholds.DuplicateSimilarity)
	viper.SetDefault("thresholds.wiring_similarity_floor", DefaultConfig.Thresholds.WiringSimilarityFloor)
	viper.SetDefault("thresholds.unwired_min_exports", DefaultConfig.Thresholds.UnwiredMinExports)
	viper.SetDefault("thresholds.unwired_min_lines", DefaultConfig.Thresholds.UnwiredMinLines)
	viper.SetDefault("thresholds.active_history_commits", DefaultConfig.Thresholds.ActiveHistoryCommits)
	viper.SetDefault("thresholds.recent_window_days", DefaultConfig.Thresholds.RecentWindowDays)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv() {
	_ = viper.BindEnv("enable_cache", "REPOSCOPE_ENABLE_CACHE")
	_ = viper.BindEnv("enable_parallel", "REPOSCOPE_ENABLE_PARALLEL")
	_ = viper.BindEnv("enable_git", "REPOSCOPE_ENABLE_GIT")
	_ = viper.BindEnv("workers", "REPOSCOPE_WORKERS")
	_ = viper.BindEnv("verbosity", "REPOSCOPE_VERBOSITY")
	_ = viper.BindEnv("output_dir", "REPOSCOPE_OUTPUT_DIR")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(rootCmd *cobra.Command) {
	_ = viper.BindPFlag("enable_cache", rootCmd.PersistentFlags().Lookup("enable_cache"))
	_ = viper.BindPFlag("enable_parallel", rootCmd.PersistentFlags().Lookup("enable_parallel"))
	_ = viper.BindPFlag("enable_git", rootCmd.PersistentFlags().Lookup("enable_git"))
	_ = viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("verbosity", rootCmd.PersistentFlags().Lookup("verbosity"))
	_ = viper.BindPFlag("show_only_unwired", rootCmd.PersistentFlags().Lookup("only_unwired"))
	_ = viper.BindPFlag("output_dir", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("thresholds.duplicate_similarity", rootCmd.PersistentFlags().Lookup("duplicate_similarity"))
	_ = viper.BindPFlag("thresholds.wiring_similarity_floor", rootCmd.PersistentFlags().Lookup("wiring_floor"))
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to a configuration file (JSON or YAML).")

	rootCmd.PersistentFlags().Bool("enable_cache", DefaultConfig.EnableCache, "Enable or disable the metadata cache for incremental re-analysis")
	rootCmd.PersistentFlags().Bool("enable_parallel", DefaultConfig.EnableParallel, "Scan files on a bounded worker pool sized to available cores")
	rootCmd.PersistentFlags().Bool("enable_git", DefaultConfig.EnableGit, "Enrich analysis with per-file commit history when a repository is present")
	rootCmd.PersistentFlags().Int("workers", DefaultConfig.Workers, "Number of scan workers when parallelism is enabled")
	rootCmd.PersistentFlags().String("verbosity", DefaultConfig.Verbosity, "Log verbosity: 'debug', 'info', 'warn', or 'error'")
	rootCmd.PersistentFlags().Bool("only_unwired", DefaultConfig.ShowOnlyUnwired, "Show only unwired findings in the summary")
	rootCmd.PersistentFlags().StringP("output", "o", DefaultConfig.OutputDir, "Directory to write the JSON analysis report into")
	rootCmd.PersistentFlags().Float64("duplicate_similarity", DefaultConfig.Thresholds.DuplicateSimilarity, "Structural duplicate similarity threshold (0-1)")
	rootCmd.PersistentFlags().Float64("wiring_floor", DefaultConfig.Thresholds.WiringSimilarityFloor, "Minimum similarity for wiring suggestions (0-1)")

	rootCmd.Flags().BoolP("version", "v", false, "Print the version of the application.")
}
