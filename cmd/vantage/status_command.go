package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and task status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Daemon running since %s\n", status.StartedAt.Local().Format(time.RFC1123))
			if status.RunningTask != "" {
				fmt.Fprintf(out, "Currently executing: %s\n", status.RunningTask)
			}
			fmt.Fprintf(out, "Overall success rate: %.0f%%\n", status.SuccessRate*100)
			fmt.Fprintf(out, "Quota: %d/%d units used", status.Quota.UnitsUsed, status.Quota.UnitsLimit)
			if status.Quota.BreakerOpen {
				fmt.Fprint(out, " (circuit open)")
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out)

			rows := make([][]string, 0, len(status.Tasks))
			for _, task := range status.Tasks {
				rows = append(rows, []string{
					task.Name,
					fmt.Sprintf("%d", task.Priority),
					task.Interval,
					taskStateLabel(task),
					formatTaskTime(task.LastRunAt),
					formatTaskTime(task.NextRun),
					fmt.Sprintf("%d/%d", task.SuccessCount, task.RunCount),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Task", "Priority", "Interval", "State", "Last Run", "Next Run", "Success"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}
