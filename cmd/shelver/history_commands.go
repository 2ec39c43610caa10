package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"shelver/internal/api"
	"shelver/internal/queue"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent renames, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.Service, _ *queue.Store) error {
				records, err := svc.History(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.FromHistories(records))
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No renames recorded")
					return nil
				}

				rows := make([][]string, 0, len(records))
				for _, record := range records {
					kind := "apply"
					if record.UndoOf != nil {
						kind = fmt.Sprintf("undo of %d", *record.UndoOf)
					}
					rows = append(rows, []string{
						strconv.FormatInt(record.ID, 10),
						strconv.FormatInt(record.EntryID, 10),
						record.OriginalPath,
						record.NewPath,
						kind,
					})
				}
				table := renderTable([]tableColumn{
					{name: "ID", numeric: true},
					{name: "Entry", numeric: true},
					{name: "From", maxWidth: 60},
					{name: "To", maxWidth: 60},
					{name: "Kind"},
				}, rows)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of records")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newUndoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "undo <history-id>",
		Short: "Reverse one applied rename",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(svc *api.Service, _ *queue.Store) error {
				record, err := svc.Undo(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", record.NewPath)
				return nil
			})
		},
	}
}
