package planner

import "github.com/nvoss/horizonsync/internal/models"

// emptyStatus represents "no prior record for this (plan, task)".
const emptyStatus models.PlanStatus = ""

// TransitionTable is a source-status -> legal-target-statuses table. It is
// plain data rather than a hard-coded switch, per guidance that the
// transition table should be supplied as configuration instead of baked
// into the state machine.
type TransitionTable map[models.PlanStatus][]models.PlanStatus

// DefaultTransitionTable returns the canonical legal-transition table.
func DefaultTransitionTable() TransitionTable {
	return TransitionTable{
		emptyStatus: {
			models.StatusPlanned,
			models.StatusCompleted,
			models.StatusDeleted,
		},
		models.StatusPlanned: {
			models.StatusPostponed,
			models.StatusCompleted,
			models.StatusCompletedRecurring,
			models.StatusDeleted,
		},
		models.StatusPostponed: {
			models.StatusPlanned,
			models.StatusCompleted,
			models.StatusCompletedRecurring,
			models.StatusDeleted,
		},
		models.StatusCompleted: {
			models.StatusPlanned,
			models.StatusPostponed,
			models.StatusDeleted,
		},
		models.StatusCompletedRecurring: {
			models.StatusPlanned,
			models.StatusCompleted,
			models.StatusPostponed,
			models.StatusDeleted,
		},
		models.StatusDeleted: {}, // terminal
	}
}

// StateMachine wraps a TransitionTable with legality queries. "added" and
// "loaded" classifications arrive from (none) and are treated as the empty
// source status.
type StateMachine struct {
	table TransitionTable
}

// NewStateMachine constructs a StateMachine over the given table.
func NewStateMachine(table TransitionTable) *StateMachine {
	return &StateMachine{table: table}
}

// IsLegal reports whether from -> to is a registered transition.
func (sm *StateMachine) IsLegal(from, to models.PlanStatus) bool {
	targets, ok := sm.table[from]
	if !ok {
		return false
	}
	for _, t := range targets {
		if t == to {
			return true
		}
	}
	return false
}

// AllowedFrom returns every legal target status from a given source.
func (sm *StateMachine) AllowedFrom(from models.PlanStatus) []models.PlanStatus {
	return sm.table[from]
}
