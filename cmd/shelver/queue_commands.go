package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"shelver/internal/api"
	"shelver/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the work queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueApproveCommand(ctx))
	queueCmd.AddCommand(newQueueRejectCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueDismissCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var includeDismissed bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.Service, _ *queue.Store) error {
				statuses, err := parseStatuses(listStatuses)
				if err != nil {
					return err
				}
				entries, err := svc.Snapshot(cmd.Context(), includeDismissed, statuses...)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.FromEntries(entries))
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				colorize := shouldColorize(cmd.OutOrStdout())
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{
						strconv.FormatInt(entry.ID, 10),
						entry.SourcePath,
						colorStatus(string(entry.Status), colorize),
						entry.Proposal.Path,
						entry.ConfidenceTier,
					})
				}
				table := renderTable([]tableColumn{
					{name: "ID", numeric: true},
					{name: "Source", maxWidth: 60},
					{name: "Status"},
					{name: "Proposal", maxWidth: 50},
					{name: "Tier"},
				}, rows)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (repeatable)")
	cmd.Flags().BoolVar(&includeDismissed, "all", false, "Include dismissed entries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one queue entry in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(svc *api.Service, _ *queue.Store) error {
				entry, err := svc.Entry(cmd.Context(), id)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.FromEntry(entry))
				}
				printEntryDetail(cmd, entry)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	return cmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.Service, _ *queue.Store) error {
				stats, err := svc.Stats(cmd.Context())
				if err != nil {
					return err
				}
				var rows [][]string
				for _, status := range queue.AllStatuses() {
					if count := stats[status]; count > 0 {
						rows = append(rows, []string{string(status), strconv.Itoa(count)})
					}
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable([]tableColumn{
					{name: "Status"},
					{name: "Count", numeric: true},
				}, rows)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newQueueApproveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id>",
		Short: "Accept a pending proposal and perform the rename",
		Args:  cobra.ExactArgs(1),
		RunE:  decideRunE(ctx, api.DecisionAccept),
	}
}

func newQueueRejectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a pending proposal without touching the filesystem",
		Args:  cobra.ExactArgs(1),
		RunE:  decideRunE(ctx, api.DecisionReject),
	}
}

func decideRunE(ctx *commandContext, verdict api.Decision) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return ctx.withService(func(svc *api.Service, _ *queue.Store) error {
			entry, err := svc.Decide(cmd.Context(), id, verdict)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry %d is now %s\n", entry.ID, entry.Status)
			return nil
		})
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Requeue errored entries; with no ids, retry all",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return ctx.withService(func(svc *api.Service, _ *queue.Store) error {
				count, err := svc.Retry(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d entries\n", count)
				return nil
			})
		},
	}
}

func newQueueDismissCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <id>",
		Short: "Hide an errored entry from default listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(svc *api.Service, _ *queue.Store) error {
				if err := svc.DismissError(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Dismissed entry %d\n", id)
				return nil
			})
		},
	}
}

func printEntryDetail(cmd *cobra.Command, entry *queue.Entry) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:          %d\n", entry.ID)
	fmt.Fprintf(out, "Source:      %s\n", entry.SourcePath)
	fmt.Fprintf(out, "Root:        %s\n", entry.LibraryRoot)
	fmt.Fprintf(out, "Kind:        %s\n", entry.Kind)
	fmt.Fprintf(out, "Tag:         %s\n", entry.StructuralTag)
	fmt.Fprintf(out, "Status:      %s\n", entry.Status)
	if entry.Hints.Author != "" || entry.Hints.Title != "" {
		fmt.Fprintf(out, "Hints:       %s / %s\n", entry.Hints.Author, entry.Hints.Title)
	}
	if !entry.Proposal.Empty() {
		fmt.Fprintf(out, "Proposal:    %s by %s\n", entry.Proposal.Title, entry.Proposal.Author)
		if entry.Proposal.Series != "" {
			fmt.Fprintf(out, "Series:      %s #%s\n", entry.Proposal.Series, entry.Proposal.SeriesPos)
		}
		fmt.Fprintf(out, "Destination: %s\n", entry.Proposal.Path)
		fmt.Fprintf(out, "Match:       %s (similarity %.2f, tier %s)\n", entry.MatchSource, entry.Similarity, entry.ConfidenceTier)
	}
	if entry.Rationale != "" {
		fmt.Fprintf(out, "Rationale:   %s\n", entry.Rationale)
	}
	if entry.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:       %s (retries %d)\n", entry.ErrorMessage, entry.RetryCount)
	}
}

func parseStatuses(raw []string) ([]queue.Status, error) {
	statuses := make([]queue.Status, 0, len(raw))
	for _, value := range raw {
		status, err := queue.ParseStatus(value)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
