package models

import (
	"reflect"

	"github.com/nvoss/horizonsync/internal/entitystore"
)

// TaskDiff computes the attribute-level changes between two versions of the
// same task, suppressing a change confined to due.string — the remote's
// server-side cosmetic re-rendering of the due date in natural language,
// which can flip at midnight without any underlying schedule change.
func TaskDiff(current, synced Task) map[string]entitystore.Change {
	out := make(map[string]entitystore.Change)

	strDue := func(d *Due) string {
		if d == nil {
			return ""
		}
		return d.Date + "|" + d.Datetime + "|" + d.Timezone + boolStr(d.IsRecurring)
	}

	if current.Content != synced.Content {
		out["content"] = entitystore.Change{Before: current.Content, After: synced.Content}
	}
	if current.Description != synced.Description {
		out["description"] = entitystore.Change{Before: current.Description, After: synced.Description}
	}
	if current.Priority != synced.Priority {
		out["priority"] = entitystore.Change{Before: current.Priority, After: synced.Priority}
	}
	if current.ProjectID != synced.ProjectID {
		out["project_id"] = entitystore.Change{Before: current.ProjectID, After: synced.ProjectID}
	}
	if current.SectionID != synced.SectionID {
		out["section_id"] = entitystore.Change{Before: current.SectionID, After: synced.SectionID}
	}
	if current.ParentID != synced.ParentID {
		out["parent_id"] = entitystore.Change{Before: current.ParentID, After: synced.ParentID}
	}
	if !reflect.DeepEqual(current.Labels, synced.Labels) {
		out["labels"] = entitystore.Change{Before: current.Labels, After: synced.Labels}
	}
	if strDue(current.Due) != strDue(synced.Due) {
		// Meaningful due change (date/datetime/timezone/recurrence), as
		// opposed to a due.string-only change which is never surfaced here.
		out["due"] = entitystore.Change{Before: current.Due, After: synced.Due}
	}
	if current.IsCompleted != synced.IsCompleted {
		out["is_completed"] = entitystore.Change{Before: current.IsCompleted, After: synced.IsCompleted}
	}
	if current.IsDeleted != synced.IsDeleted {
		out["is_deleted"] = entitystore.Change{Before: current.IsDeleted, After: synced.IsDeleted}
	}

	return out
}

func boolStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
