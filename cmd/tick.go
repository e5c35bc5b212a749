package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run a single sync tick and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		daemon, db, _, err := buildDaemon()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		if err := daemon.Init(ctx); err != nil {
			return fmt.Errorf("init: %w", err)
		}
		return daemon.Tick(ctx)
	},
}
