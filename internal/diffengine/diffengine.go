// Package diffengine turns (events, current, synced) into an ordered
// sequence of (task, status-transition) tuples the planner can consume.
package diffengine

import (
	"context"
	"log/slog"

	"github.com/nvoss/horizonsync/internal/models"
)

// Status is one of the planner-recognized transition kinds.
type Status string

const (
	StatusAdded       Status = "added"
	StatusUpdated     Status = "updated"
	StatusCompleted   Status = "completed"
	StatusUncompleted Status = "uncompleted"
	StatusDeleted     Status = "deleted"
	StatusLoaded      Status = "loaded"
)

// Classification is one (task, status) tuple emitted by Classify.
type Classification struct {
	Task   models.Task
	Status Status
}

// RemoteFetcher fetches a single task by id, returning nil if the remote
// reports it does not exist (too old, permanently gone).
type RemoteFetcher func(ctx context.Context, id string) (*models.Task, error)

// EventsByObjectID returns every event for id, ascending by event_date.
type EventsByObjectID func(id string) []models.Event

// Classify evaluates classification rules independently per task id
// touched by newLastEventByType, in the order:
//
//  1. id not in current: use the bulk-synced copy if present, otherwise a
//     single-item remote fetch; classify "added". A nil fetch result (too
//     old) is skipped with a warning and never reprocessed.
//  2. id in current but not synced: the task was completed or deleted
//     remotely; reconstruct its attributes by folding the ordered event
//     stream and classify by the fold's terminal event type.
//  3. id in both: classify by the most recent event type for that id;
//     suppress entirely when the only underlying change is due.string.
func Classify(
	ctx context.Context,
	current, synced map[string]models.Task,
	newLastEventByType map[models.EventType][]models.Event,
	fetch RemoteFetcher,
	eventsFor EventsByObjectID,
	log *slog.Logger,
) ([]Classification, error) {
	if log == nil {
		log = slog.Default()
	}

	touched := touchedIDs(newLastEventByType)
	mostRecent := mostRecentTypeByID(newLastEventByType)

	var out []Classification
	for _, id := range touched {
		_, inCurrent := current[id]
		synTask, inSynced := synced[id]

		switch {
		case !inCurrent:
			if inSynced {
				out = append(out, Classification{Task: synTask, Status: StatusAdded})
				continue
			}
			t, err := fetch(ctx, id)
			if err != nil {
				log.Warn("diffengine: single-item fetch failed, skipping", "task_id", id, "err", err)
				continue
			}
			if t == nil {
				log.Warn("diffengine: task permanently gone, skipping", "task_id", id)
				continue
			}
			out = append(out, Classification{Task: *t, Status: StatusAdded})

		case inCurrent && !inSynced:
			curTask := current[id]
			reconstructed, status := reconstructFromEvents(curTask, eventsFor(id))
			out = append(out, Classification{Task: reconstructed, Status: status})

		default:
			curTask := current[id]
			diff := models.TaskDiff(curTask, synTask)
			if len(diff) == 0 {
				continue // due.string-only (or no) change: suppressed
			}
			status := statusFromEventType(mostRecent[id])
			out = append(out, Classification{Task: synTask, Status: status})
		}
	}

	return out, nil
}

func touchedIDs(grouped map[models.EventType][]models.Event) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, events := range grouped {
		for _, e := range events {
			if !seen[e.ObjectID] {
				seen[e.ObjectID] = true
				ids = append(ids, e.ObjectID)
			}
		}
	}
	return ids
}

func mostRecentTypeByID(grouped map[models.EventType][]models.Event) map[string]models.EventType {
	out := make(map[string]models.EventType)
	for evType, events := range grouped {
		for _, e := range events {
			out[e.ObjectID] = evType
		}
	}
	return out
}

func statusFromEventType(evType models.EventType) Status {
	switch evType {
	case models.EventCompleted:
		return StatusCompleted
	case models.EventUncompleted:
		return StatusUncompleted
	case models.EventDeleted:
		return StatusDeleted
	default:
		return StatusUpdated
	}
}

// reconstructFromEvents folds events (ascending by event_date) into base,
// per the orchestrator's update_current_task_from_events rule:
//   - deleted: is_deleted=true, stop folding.
//   - completed: is_completed=true.
//   - uncompleted: is_completed=false.
//   - updated: for {content, due_date, description}, replace from
//     extra_data.last_<attr> with extra_data.<attr> when present; a due
//     replacement rebuilds the due record with is_recurring=false.
func reconstructFromEvents(base models.Task, events []models.Event) (models.Task, Status) {
	status := StatusUpdated
	t := base

	for _, e := range events {
		switch e.EventType {
		case models.EventDeleted:
			t.IsDeleted = true
			status = StatusDeleted
			return t, status
		case models.EventCompleted:
			t.IsCompleted = true
			status = StatusCompleted
		case models.EventUncompleted:
			t.IsCompleted = false
			status = StatusUncompleted
		case models.EventUpdated:
			applyUpdateExtraData(&t, e.ExtraData)
			status = StatusUpdated
		}
	}

	return t, status
}

func applyUpdateExtraData(t *models.Task, extra map[string]any) {
	if extra == nil {
		return
	}
	if _, hadPrior := extra["last_content"]; hadPrior {
		if v, ok := extra["content"].(string); ok {
			t.Content = v
		}
	}
	if _, hadPrior := extra["last_description"]; hadPrior {
		if v, ok := extra["description"].(string); ok {
			t.Description = v
		}
	}
	if _, hadPrior := extra["last_due_date"]; hadPrior {
		if v, ok := extra["due_date"].(string); ok {
			t.Due = &models.Due{Date: v, IsRecurring: false}
		}
	}
}
