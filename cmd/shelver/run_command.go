package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"shelver/internal/bookindex"
	"shelver/internal/logging"
	"shelver/internal/preflight"
	"shelver/internal/queue"
	"shelver/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the background identification worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			lockPath := filepath.Join(cfg.Paths.LogDir, "shelver.lock")
			lock := flock.New(lockPath)
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !locked {
				return errors.New("another shelver worker is already running")
			}
			defer func() { _ = lock.Unlock() }()

			logger, err := logging.NewAt(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			// Reachability problems are transient on home networks, so the
			// worker starts anyway and logs what it found degraded.
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				if !result.Passed {
					logger.Warn("preflight check failed",
						logging.String("check", result.Name),
						logging.String("detail", result.Detail),
					)
				}
			}

			store, err := queue.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var opts []workflow.Option
			index, err := bookindex.Open(cfg)
			if err != nil {
				logger.Warn("book index unavailable, skipping local source", logging.Error(err))
			} else {
				defer index.Close()
				opts = append(opts, workflow.WithBookIndex(index))
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			manager := workflow.NewManager(cfg, ctx.configPath, store, logger, opts...)
			if err := manager.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Worker running (lock %s). Press Ctrl+C to stop.\n", lockPath)

			<-runCtx.Done()
			manager.Stop()
			fmt.Fprintln(cmd.OutOrStdout(), "Worker stopped")
			return nil
		},
	}
}
