package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvoss/horizonsync/internal/remote"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync/plan daemon loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		daemon, db, cfg, err := buildDaemon()
		if err != nil {
			// Unrecoverable startup failure: DB unreachable, missing
			// credentials. Fatal, non-zero exit.
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := daemon.Init(ctx); err != nil {
			return fmt.Errorf("init: %w", err)
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			daemon.RunDailyScheduler(ctx, "rollover", cfg.RolloverAt, daemon.RunDailyRollover)
		}()
		go func() {
			defer wg.Done()
			daemon.RunDailyScheduler(ctx, "daily_report", cfg.DailyReportAt, daemon.RunDailyReport)
		}()

		ticker := time.NewTicker(cfg.SyncTimeout())
		defer ticker.Stop()

		slog.Info("horizonsync: starting", "tick_interval", cfg.SyncTimeout())

		for {
			select {
			case sig := <-sigCh:
				slog.Info("horizonsync: received signal, shutting down", "signal", sig)
				cancel()
				wg.Wait()
				return nil
			case <-ticker.C:
				if err := daemon.Tick(ctx); err != nil {
					// An auth failure is fatal: non-zero exit.
					var authErr *remote.AuthError
					if errors.As(err, &authErr) {
						slog.Error("horizonsync: authentication failed, exiting", "err", err)
						cancel()
						wg.Wait()
						return err
					}
					// Any other tick failure never exits the outer loop; the
					// next tick resumes from whatever state committed.
					slog.Warn("horizonsync: tick failed", "err", err)
				}
			}
		}
	},
}
