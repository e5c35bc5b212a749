package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvoss/horizonsync/internal/models"
	"github.com/nvoss/horizonsync/internal/planner"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print each horizon's current plan status",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, _, err := buildDaemon()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		for _, horizon := range models.AllHorizons() {
			plan, ok, err := db.ActivePlan(ctx, horizon)
			if err != nil {
				return fmt.Errorf("active plan for %s: %w", horizon, err)
			}
			if !ok {
				fmt.Printf("%s: no active plan\n", horizon)
				continue
			}
			counts, err := db.CountsByStatus(ctx, plan.ID)
			if err != nil {
				return fmt.Errorf("counts for %s: %w", horizon, err)
			}
			r := planner.BuildReport(horizon, counts)
			fmt.Printf("%s (%s – %s): %d completed, %d planned, %d postponed, %d deleted (%.0f%% of %d)\n",
				r.Horizon, plan.Start.Format("2006-01-02"), plan.End.Format("2006-01-02"),
				r.Completed, r.Planned, r.Postponed, r.Deleted, r.ComplRatio, r.OverallPlanned)
		}
		return nil
	},
}
