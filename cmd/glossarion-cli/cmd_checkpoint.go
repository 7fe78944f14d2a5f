package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Manage import checkpoints",
	}
	cmd.AddCommand(checkpointResetCmd())
	return cmd
}

func checkpointResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <source-id>",
		Short: "Delete all checkpoints for a source",
		Long: `Delete all checkpoints recorded for a source ID. The next incremental
run of that source re-imports every record; the conflict-tolerant inserts
make that safe but not free.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			removed, err := apiClient.ResetCheckpoints(context.Background(), args[0])
			if err != nil {
				fatal("reset checkpoints", err)
			}
			output(map[string]int{"removed": removed}, fmt.Sprintf("%d", removed))
		},
	}
}
