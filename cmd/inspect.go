package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/raywall/copilot-usage-metrics/analyzer"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <raw-csv>",
	Short: "Summarize a previously collected raw data file",
	Long: `Loads a raw_copilot_data.csv produced by collect and prints
per-user activity, language and feature shares, and an hourly histogram.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := analyzer.LoadRaw(args[0])
		if err != nil {
			return err
		}
		analyzer.Inspect(os.Stdout, ds)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
