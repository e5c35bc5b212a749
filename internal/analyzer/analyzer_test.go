package analyzer

import (
	"strings"
	"testing"

	"github.com/nvoss/horizonsync/internal/models"
)

func TestGoalWithoutSubtasks(t *testing.T) {
	projects := map[string]models.Project{
		"p1": {ID: "p1", Name: "Project One", ParentID: "root"},
	}
	tasks := map[string]models.Task{
		"g1": {ID: "g1", ProjectID: "p1", Priority: 4, Labels: []string{"GOAL"}, Content: "Ship the thing"},
	}

	reports := Analyze(projects, tasks, "GOAL", "SUCCESS")
	report := reports["p1"]

	if report.StartDate != "" || report.EndDate != "" {
		t.Errorf("expected no date envelope, got start=%q end=%q", report.StartDate, report.EndDate)
	}

	found := false
	for _, w := range report.Warnings {
		if strings.Contains(w, "Goal without subtasks") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a 'Goal without subtasks' warning, got %+v", report.Warnings)
	}
}

func TestSuccessStepNotLast(t *testing.T) {
	projects := map[string]models.Project{
		"p1": {ID: "p1", Name: "Project One", ParentID: "root"},
	}
	tasks := map[string]models.Task{
		"g1": {ID: "g1", ProjectID: "p1", Priority: 4, Labels: []string{"GOAL"}, Due: &models.Due{Date: "2025-03-20"}},
		"s1": {ID: "s1", ParentID: "g1", ProjectID: "p1", Labels: []string{"SUCCESS"}, Due: &models.Due{Date: "2025-03-10"}},
		"s2": {ID: "s2", ParentID: "g1", ProjectID: "p1", Due: &models.Due{Date: "2025-03-20"}},
	}

	reports := Analyze(projects, tasks, "GOAL", "SUCCESS")
	report := reports["p1"]

	found := false
	for _, w := range report.Warnings {
		if strings.Contains(w, `"Success" step is not the last`) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a success-step warning, got %+v", report.Warnings)
	}
}

func TestExtremeDueTieBreaksOnDatetimePresence(t *testing.T) {
	subtasks := []models.Task{
		{ID: "a", Due: &models.Due{Date: "2025-03-10"}},
		{ID: "b", Due: &models.Due{Date: "2025-03-10", Datetime: "2025-03-10T09:00:00"}},
	}
	earliest := ExtremeDue(subtasks, true)
	if earliest == nil || earliest.ID != "b" {
		t.Errorf("expected subtask with datetime to win tie, got %+v", earliest)
	}
}

func TestRootProjectSkipsPlannedDurationWarning(t *testing.T) {
	projects := map[string]models.Project{
		"inbox": {ID: "inbox", Name: "Inbox", IsInbox: true},
	}
	tasks := map[string]models.Task{}

	reports := Analyze(projects, tasks, "GOAL", "SUCCESS")
	report := reports["inbox"]
	if len(report.Warnings) != 0 {
		t.Errorf("root project should not get no-active-goals/no-duration warnings, got %+v", report.Warnings)
	}
}
