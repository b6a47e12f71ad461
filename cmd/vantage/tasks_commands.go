package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTasksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List scheduled tasks and their last outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(status.Tasks))
			for _, task := range status.Tasks {
				lastError := task.LastError
				if lastError == "" {
					lastError = "-"
				}
				rows = append(rows, []string{
					task.Name,
					taskStateLabel(task),
					formatTaskTime(task.LastSuccessAt),
					lastError,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Task", "State", "Last Success", "Last Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newTriggerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <task>",
		Short: "Run a task ahead of its schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Trigger(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if resp.Message != "" {
				fmt.Fprintf(out, "Task %s: %s\n", resp.Task, resp.Message)
			} else {
				fmt.Fprintf(out, "Task %s triggered\n", resp.Task)
			}
			return nil
		},
	}
}
