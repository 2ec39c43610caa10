package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shelver/internal/api"
	"shelver/internal/queue"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var deep bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan library roots and enqueue discovered items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.Service, _ *queue.Store) error {
				summary, err := svc.Scan(cmd.Context(), deep)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d items: %d added, %d updated\n",
					summary.Scanned, summary.Added, summary.Updated)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&deep, "deep", false, "Refresh hints on already-queued entries")
	return cmd
}

func newBatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "batch",
		Short: "Process one batch of queued entries now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkerService(func(svc *api.Service) error {
				summary, err := svc.RunBatch(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Batch %s: %d processed, %d applied, %d pending, %d errors\n",
					summary.BatchID, summary.Processed, summary.Applied, summary.PendingCreated, summary.Errors)
				return nil
			})
		},
	}
}
