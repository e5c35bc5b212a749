package orchestrator

import (
	"fmt"
	"sort"

	"github.com/nvoss/horizonsync/internal/analyzer"
)

// analyzerReports runs the consistency analyzer over the current (DB-mirror)
// state, as opposed to Tick's use of the freshly synced state — the daily
// digest reflects what was actually persisted, not an in-flight sync.
func analyzerReports(d *Daemon) map[string]analyzer.ProjectReport {
	return analyzer.Analyze(d.projects.Current(), d.tasks.Current(), d.cfg.SpecialLabels.Goal, d.cfg.SpecialLabels.Success)
}

// formatDailyDigest renders one line per project with an active goal or
// duration, followed by every outstanding consistency warning.
func formatDailyDigest(reports map[string]analyzer.ProjectReport) string {
	ids := make([]string, 0, len(reports))
	for id := range reports {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	text := "Daily status:\n"
	for _, id := range ids {
		r := reports[id]
		if r.StartDate == "" && r.EndDate == "" && len(r.Goals) == 0 {
			continue
		}
		text += fmt.Sprintf("- project %s: %s – %s (%d goals)\n", r.ProjectID, r.StartDate, r.EndDate, len(r.Goals))
	}
	for _, id := range ids {
		for _, w := range reports[id].Warnings {
			text += "! " + w + "\n"
		}
	}
	return text
}
