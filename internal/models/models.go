// Package models defines the entity types mirrored from the remote
// workspace and the planner's own plan/record types.
package models

import "time"

// EventType is the canonical set of activity-event kinds.
type EventType string

const (
	EventAdded       EventType = "added"
	EventUpdated     EventType = "updated"
	EventDeleted     EventType = "deleted"
	EventCompleted   EventType = "completed"
	EventUncompleted EventType = "uncompleted"
	EventArchived    EventType = "archived"
	EventUnarchived  EventType = "unarchived"
	EventShared      EventType = "shared"
	EventLeft        EventType = "left"
)

// ObjectType is the canonical set of entity kinds an Event can reference.
type ObjectType string

const (
	ObjectItem    ObjectType = "item"
	ObjectProject ObjectType = "project"
	ObjectSection ObjectType = "section"
	ObjectLabel   ObjectType = "label"
)

// IsValidEventType reports whether et is one of the canonical event kinds.
func IsValidEventType(et string) bool {
	switch EventType(et) {
	case EventAdded, EventUpdated, EventDeleted, EventCompleted, EventUncompleted,
		EventArchived, EventUnarchived, EventShared, EventLeft:
		return true
	}
	return false
}

// IsValidObjectType reports whether ot is one of the canonical object kinds.
func IsValidObjectType(ot string) bool {
	switch ObjectType(ot) {
	case ObjectItem, ObjectProject, ObjectSection, ObjectLabel:
		return true
	}
	return false
}

// Due describes a task's due date/datetime as reported by the remote
// workspace. String is the server's freeform cosmetic rendering of the due
// date in the user's language — it changes independently of Date/Datetime
// (e.g. a nightly re-render of "today" to "tomorrow") and must not, by
// itself, be treated as a meaningful change.
type Due struct {
	Date       string // YYYY-MM-DD
	Datetime   string // RFC3339-ish, optional
	IsRecurring bool
	String     string
	Timezone   string
}

// HasDatetime reports whether a time-of-day component was set.
func (d *Due) HasDatetime() bool {
	return d != nil && d.Datetime != ""
}

// EntityID implementations let each mirrored kind plug into a generic
// entitystore.Store without attribute-by-attribute boilerplate.

// Task is the local mirror of a remote task ("item").
type Task struct {
	ID          string
	Content     string
	Description string
	Priority    int // 1..4, 4 = highest
	ProjectID   string
	SectionID   string
	ParentID    string
	Labels      []string
	Due         *Due
	Order       int
	IsCompleted bool
	IsDeleted   bool
}

// HasLabel reports whether the task carries the given label name.
func (t *Task) HasLabel(name string) bool {
	if name == "" {
		return false
	}
	for _, l := range t.Labels {
		if l == name {
			return true
		}
	}
	return false
}

// IsGoal reports whether the task carries the configured GOAL label.
func (t *Task) IsGoal(goalLabel string) bool {
	return t.HasLabel(goalLabel)
}

// IsActiveGoal ≡ not completed ∧ is_goal ∧ priority ∈ {3,4}.
func (t *Task) IsActiveGoal(goalLabel string) bool {
	return !t.IsCompleted && t.IsGoal(goalLabel) && (t.Priority == 3 || t.Priority == 4)
}

// IsActiveWithDue ≡ not completed ∧ priority ∈ {3,4} ∧ due present.
func (t *Task) IsActiveWithDue() bool {
	return !t.IsCompleted && (t.Priority == 3 || t.Priority == 4) && t.Due != nil
}

// IsActiveNoDue ≡ not completed ∧ priority ∈ {2,4} ∧ no due.
func (t *Task) IsActiveNoDue() bool {
	return !t.IsCompleted && (t.Priority == 2 || t.Priority == 4) && t.Due == nil
}

// IsActive ≡ any of IsActiveGoal, IsActiveWithDue, IsActiveNoDue.
func (t *Task) IsActive(goalLabel string) bool {
	return t.IsActiveGoal(goalLabel) || t.IsActiveWithDue() || t.IsActiveNoDue()
}

// IsInFocus ≡ not completed ∧ not goal ∧ (is_active_no_due ∨ (is_active_with_due ∧ due.date ≤ today)).
func (t *Task) IsInFocus(goalLabel string, today time.Time) bool {
	if t.IsCompleted || t.IsGoal(goalLabel) {
		return false
	}
	if t.IsActiveNoDue() {
		return true
	}
	if t.IsActiveWithDue() {
		due, err := time.Parse("2006-01-02", t.Due.Date)
		if err != nil {
			return false
		}
		return !due.After(today)
	}
	return false
}

// EntityID returns the task's stable id.
func (t Task) EntityID() string { return t.ID }

// Project is the local mirror of a remote project.
type Project struct {
	ID         string
	Name       string
	ParentID   string
	Color      string
	IsInbox    bool
	IsFavorite bool
}

// EntityID returns the project's stable id.
func (p Project) EntityID() string { return p.ID }

// Section is the local mirror of a remote section.
type Section struct {
	ID        string
	Name      string
	ProjectID string
	Order     int
}

// EntityID returns the section's stable id.
func (s Section) EntityID() string { return s.ID }

// Label is the local mirror of a remote label.
type Label struct {
	ID         string
	Name       string
	Color      string
	IsFavorite bool
}

// EntityID returns the label's stable id.
func (l Label) EntityID() string { return l.ID }

// Event is an immutable activity record from the remote workspace.
type Event struct {
	ID              string
	EventDate       time.Time
	EventType       EventType
	ObjectType      ObjectType
	ObjectID        string
	ExtraData       map[string]any
	InitiatorID     string
	ParentItemID    string
	ParentProjectID string
}

// Horizon is one of the five plan time windows.
type Horizon string

const (
	HorizonDay     Horizon = "day"
	HorizonWeek    Horizon = "week"
	HorizonMonth   Horizon = "month"
	HorizonQuarter Horizon = "quarter"
	HorizonYear    Horizon = "year"
)

// AllHorizons lists the five recognized horizons in a stable order.
func AllHorizons() []Horizon {
	return []Horizon{HorizonDay, HorizonWeek, HorizonMonth, HorizonQuarter, HorizonYear}
}

// PlanStatus is a task's plan-local status within a single plan.
type PlanStatus string

const (
	StatusPlanned            PlanStatus = "planned"
	StatusPostponed          PlanStatus = "postponed"
	StatusCompleted          PlanStatus = "completed"
	StatusCompletedRecurring PlanStatus = "completed_recurring"
	StatusDeleted            PlanStatus = "deleted"
)

// Plan is a horizon-bounded window tracking which tasks were scheduled.
type Plan struct {
	ID      int64
	Horizon Horizon
	Active  bool
	Start   time.Time
	End     time.Time
}

// PlanTaskRecord is one append-only entry in a plan's task-status history.
type PlanTaskRecord struct {
	RecordID  int64
	TaskID    string
	PlanID    int64
	Status    PlanStatus
	Timestamp time.Time
}

// Report summarizes a rolled-over plan's outcome.
type Report struct {
	Horizon        Horizon
	Completed      int
	Planned        int
	Postponed      int
	Deleted        int
	OverallPlanned int
	ComplRatio     float64
}
