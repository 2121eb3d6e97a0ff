package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/raywall/copilot-usage-metrics/analyzer"
)

var (
	collectSince  string
	collectUntil  string
	collectOutput string
)

var collectCmd = &cobra.Command{
	Use:   "collect <enterprise>",
	Short: "Run the full Copilot Direct Data Access pipeline",
	Long: `Collects Copilot usage data for an enterprise from the Direct Data
Access API, aggregates it, and writes a summary report, five chart images
and CSV exports into a timestamped output directory.

The date window defaults to the last 14 days ending yesterday. The API
rejects windows longer than 14 days or starting more than 365 days ago,
so both limits are validated before any request is made.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := tokenFromEnv()
		if err != nil {
			return err
		}

		window, err := analyzer.ResolveWindow(collectSince, collectUntil, time.Now())
		if err != nil {
			return err
		}

		a, err := analyzer.New(args[0], token, window, collectOutput)
		if err != nil {
			return err
		}
		return a.Run(cmd.Context())
	},
}

func init() {
	collectCmd.Flags().StringVar(&collectSince, "since", "", "start date in YYYY-MM-DD format (default: 14 days before until)")
	collectCmd.Flags().StringVar(&collectUntil, "until", "", "end date in YYYY-MM-DD format (default: yesterday)")
	collectCmd.Flags().StringVar(&collectOutput, "output", "", "output directory for analysis results (default: auto-generated)")
	rootCmd.AddCommand(collectCmd)
}
