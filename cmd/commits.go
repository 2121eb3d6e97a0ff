package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/raywall/copilot-usage-metrics/orgstats"
)

var commitsMonths int

var commitsCmd = &cobra.Command{
	Use:   "commits <org>",
	Short: "Count commits per repository across an organization",
	Long: `Lists the repositories of a GitHub organization and prints the
number of commits in each over the trailing window.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := tokenFromEnv()
		if err != nil {
			return err
		}

		since := time.Now().AddDate(0, -commitsMonths, 0)
		collector := orgstats.NewCollector(args[0], token, since)
		counts, err := collector.CommitCounts(cmd.Context())
		if err != nil {
			return err
		}

		for _, rc := range counts {
			fmt.Printf("Repository: %s, Commits in last %d months: %d\n", rc.Repo, commitsMonths, rc.Commits)
		}
		return nil
	},
}

func init() {
	commitsCmd.Flags().IntVar(&commitsMonths, "months", 3, "how many months back to count commits")
	rootCmd.AddCommand(commitsCmd)
}
