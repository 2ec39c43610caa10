package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"shelver/internal/logs"
	"shelver/internal/notifications"
	"shelver/internal/preflight"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lineCount int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the worker log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			path := logs.Path(cfg.Paths.LogDir)
			lines, offset, err := logs.Tail(path, lineCount)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			if !follow {
				if len(lines) == 0 {
					fmt.Fprintf(out, "No log output yet at %s\n", path)
				}
				return nil
			}

			err = logs.Follow(cmd.Context(), path, offset, out)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&lineCount, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	return cmd
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories and provider reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				state := "FAIL"
				if result.Passed {
					state = "OK"
				}
				rows = append(rows, []string{result.Name, state, result.Detail})
			}
			table := renderTable([]tableColumn{
				{name: "Check"},
				{name: "State"},
				{name: "Detail"},
			}, rows)
			fmt.Fprintln(cmd.OutOrStdout(), table)

			if !preflight.AllPassed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test push notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Notifications.NtfyTopic == "" {
				return errors.New("no ntfy topic configured (set notifications.ntfy_topic)")
			}
			if err := notifications.NewService(cfg).Test(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent test notification to %s\n", cfg.Notifications.NtfyTopic)
			return nil
		},
	}
}
