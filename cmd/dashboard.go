package cmd

import (
	"github.com/spf13/cobra"

	"github.com/raywall/copilot-usage-metrics/engagement"
)

var (
	dashboardOutput string
	dashboardTop    int
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard <jsonl-file>",
	Short: "Render per-user engagement dashboards from a JSON export",
	Long: `Loads a line-delimited JSON export of per-user Copilot engagement
rollups (with nested per-feature, per-IDE and per-language totals) and
renders six dashboard charts for the most active users.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := engagement.LoadRecords(args[0])
		if err != nil {
			return err
		}
		return engagement.RenderDashboard(records, dashboardOutput, dashboardTop)
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardOutput, "output", "copilot_dashboard", "output directory for dashboard images")
	dashboardCmd.Flags().IntVar(&dashboardTop, "top", 10, "number of top users to break out individually")
	rootCmd.AddCommand(dashboardCmd)
}
