package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var debugMode bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "copilot-dda",
	Short: "Collect and analyze GitHub Copilot usage data",
	Long: `A collection of pipelines around GitHub's usage APIs: Copilot
Direct Data Access exports (collect, inspect, dashboard) and organization
commit activity (commits). Each command authenticates with the GITHUB_TOKEN
environment variable, fetches data, and writes reports, CSV exports and
chart images to disk.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is a convenience for local runs; real environments export
		// the token directly.
		_ = godotenv.Load()

		level := slog.LevelInfo
		if debugMode {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")
}

// tokenFromEnv reads the GitHub access token. Every networked command
// requires it before any request is issued.
func tokenFromEnv() (string, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return "", fmt.Errorf("GITHUB_TOKEN environment variable is not set; export your GitHub token first")
	}
	return token, nil
}
