package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newQuotaCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Show the collection budget for the current window",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			quota, err := client.Quota(cmd.Context())
			if err != nil {
				return err
			}

			breaker := "closed"
			if quota.BreakerOpen {
				breaker = "open"
			}
			rows := [][]string{
				{"Window start", formatTaskTime(quota.WindowStart)},
				{"Units used", fmt.Sprintf("%d", quota.UnitsUsed)},
				{"Units limit", fmt.Sprintf("%d", quota.UnitsLimit)},
				{"Units remaining", fmt.Sprintf("%d", quota.UnitsRemaining)},
				{"Circuit breaker", breaker},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Field", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}
