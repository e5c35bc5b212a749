// Package analyzer walks the task hierarchy per project and derives
// structural warnings about goal/subtask consistency.
package analyzer

import (
	"fmt"

	"github.com/nvoss/horizonsync/internal/dateparse"
	"github.com/nvoss/horizonsync/internal/models"
)

const taskURLTemplate = "https://todoist.com/showTask?id=%s"
const projectURLTemplate = "https://todoist.com/showProject?id=%s"

// GoalReport is the per-active-goal record within a project.
type GoalReport struct {
	GoalID          string
	Earliest        *models.Task
	Latest          *models.Task
	StartDate       string // YYYY-MM-DD, empty if unset
	EndDate         string
	SuccessSubtasks []models.Task
}

// ProjectReport is the analyzer's output for a single project.
type ProjectReport struct {
	ProjectID string
	StartDate string
	EndDate   string
	Goals     []GoalReport
	Warnings  []string
}

// Analyze builds a ProjectReport for every project, using goalLabel and
// successLabel to identify goals and their designated success step.
func Analyze(projects map[string]models.Project, tasks map[string]models.Task, goalLabel, successLabel string) map[string]ProjectReport {
	byProject := make(map[string][]models.Task)
	for _, t := range tasks {
		byProject[t.ProjectID] = append(byProject[t.ProjectID], t)
	}
	byParent := make(map[string][]models.Task)
	for _, t := range tasks {
		if t.ParentID != "" {
			byParent[t.ParentID] = append(byParent[t.ParentID], t)
		}
	}

	out := make(map[string]ProjectReport)
	for _, project := range projects {
		out[project.ID] = analyzeProject(project, byProject[project.ID], byParent, goalLabel, successLabel)
	}
	return out
}

func analyzeProject(project models.Project, projectTasks []models.Task, byParent map[string][]models.Task, goalLabel, successLabel string) ProjectReport {
	report := ProjectReport{ProjectID: project.ID}

	var activeGoals []models.Task
	for _, t := range projectTasks {
		if t.IsActiveGoal(goalLabel) {
			activeGoals = append(activeGoals, t)
		}
	}

	var envelopeEarliest, envelopeLatest *models.Task

	for _, goal := range activeGoals {
		subtasks := byParent[goal.ID]
		goalReport := GoalReport{GoalID: goal.ID}

		if len(subtasks) == 0 {
			report.Warnings = append(report.Warnings, warningString(goal, "Goal without subtasks"))
			report.Goals = append(report.Goals, goalReport)
			continue
		}

		earliest := ExtremeDue(subtasks, true)
		latest := ExtremeDue(subtasks, false)
		goalReport.Earliest = earliest
		goalReport.Latest = latest
		if earliest != nil {
			goalReport.StartDate = earliest.Due.Date
		}
		if latest != nil {
			goalReport.EndDate = latest.Due.Date
		}

		for _, st := range subtasks {
			if st.HasLabel(successLabel) {
				goalReport.SuccessSubtasks = append(goalReport.SuccessSubtasks, st)
			}
		}

		if goal.Due == nil && earliest != nil {
			report.Warnings = append(report.Warnings, warningString(goal, "Goal doesn't have due, steps have"))
		}
		if goal.Due != nil && latest != nil && goal.Due.Date != latest.Due.Date {
			report.Warnings = append(report.Warnings, warningString(goal, "Goal due is not equal to the last step due"))
		}
		for _, success := range goalReport.SuccessSubtasks {
			if latest == nil || success.ID != latest.ID {
				report.Warnings = append(report.Warnings, warningString(success, `"Success" step is not the last`))
			}
		}

		if earliest != nil && (envelopeEarliest == nil || isEarlierDue(earliest, envelopeEarliest)) {
			envelopeEarliest = earliest
		}
		if latest != nil && (envelopeLatest == nil || isLaterDue(latest, envelopeLatest)) {
			envelopeLatest = latest
		}

		report.Goals = append(report.Goals, goalReport)
	}

	if envelopeEarliest != nil {
		report.StartDate = envelopeEarliest.Due.Date
	}
	if envelopeLatest != nil {
		report.EndDate = envelopeLatest.Due.Date
	}

	isRoot := project.ParentID == "" || project.IsInbox
	if !isRoot {
		if len(activeGoals) == 0 {
			report.Warnings = append(report.Warnings, projectWarningString(project, "Project with no active goals"))
		}
		if report.StartDate == "" && report.EndDate == "" {
			report.Warnings = append(report.Warnings, projectWarningString(project, "Project with no planned duration"))
		}
	}

	return report
}

func warningString(task models.Task, msg string) string {
	url := fmt.Sprintf(taskURLTemplate, task.ID)
	return fmt.Sprintf(`<a href="%s">%s</a>. %s`, url, task.Content, msg)
}

func projectWarningString(project models.Project, msg string) string {
	url := fmt.Sprintf(projectURLTemplate, project.ID)
	return fmt.Sprintf(`<a href="%s">%s</a>. %s`, url, project.Name, msg)
}

// ExtremeDue selects the earliest (or latest, if earliest is false)
// subtask by due.date. Ties are broken by datetime-presence (a subtask
// carrying a due.datetime wins over one that does not), then by comparing
// due.datetime itself. Subtasks with no due are ignored; returns nil if
// none of the subtasks carry a due.
func ExtremeDue(subtasks []models.Task, earliest bool) *models.Task {
	var best *models.Task
	for i := range subtasks {
		t := &subtasks[i]
		if t.Due == nil {
			continue
		}
		if best == nil {
			best = t
			continue
		}
		if isBetterExtreme(t, best, earliest) {
			best = t
		}
	}
	return best
}

func isBetterExtreme(candidate, current *models.Task, earliest bool) bool {
	cd, cerr := dateparse.ParseDate(candidate.Due.Date)
	bd, berr := dateparse.ParseDate(current.Due.Date)
	if cerr != nil || berr != nil {
		return false
	}

	if !cd.Equal(bd) {
		if earliest {
			return cd.Before(bd)
		}
		return cd.After(bd)
	}

	// Same date: datetime-presence wins, then compare datetime.
	cHas, bHas := candidate.Due.HasDatetime(), current.Due.HasDatetime()
	if cHas != bHas {
		return cHas
	}
	if !cHas {
		return false
	}
	cdt, cerr := dateparse.ParseDatetime(candidate.Due.Datetime)
	bdt, berr := dateparse.ParseDatetime(current.Due.Datetime)
	if cerr != nil || berr != nil {
		return false
	}
	if earliest {
		return cdt.Before(bdt)
	}
	return cdt.After(bdt)
}

func isEarlierDue(a, b *models.Task) bool { return isBetterExtreme(a, b, true) }
func isLaterDue(a, b *models.Task) bool   { return isBetterExtreme(a, b, false) }
