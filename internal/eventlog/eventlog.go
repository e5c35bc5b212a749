// Package eventlog tracks the high-water mark of ingested activity events
// and derives the per-task "most recent event" views the diff engine and
// planner consume.
package eventlog

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nvoss/horizonsync/internal/models"
)

const pageSize = 100

// defaultBacklog is how far back the HWM defaults on an empty database.
const defaultBacklog = 52 * 7 * 24 * time.Hour

// ActivityPage is one page of the remote's paginated activity feed.
type ActivityPage struct {
	Events []models.Event
	Count  int // page size actually returned; used to stop offset stepping
}

// ActivityFetcher fetches one page of activity events.
type ActivityFetcher func(ctx context.Context, limit, offset int) (ActivityPage, error)

// Log holds the high-water mark and the most recently synced event window.
type Log struct {
	maxPages int

	hwm    time.Time
	synced []models.Event
}

// New constructs a Log with the configured max page budget (in weeks).
func New(maxPages int) *Log {
	return &Log{maxPages: maxPages}
}

// HWM returns the current high-water mark.
func (l *Log) HWM() time.Time { return l.hwm }

// SetHWM installs the high-water mark read from the database, or the
// default (now - 52 weeks) when the database is empty.
func (l *Log) SetHWM(hwm time.Time, now time.Time) {
	if hwm.IsZero() {
		l.hwm = now.Add(-defaultBacklog)
		return
	}
	l.hwm = hwm
}

// PageBudget computes ⌈(now − hwm)/7 days⌉, clamped to [1, maxPages].
func PageBudget(now, hwm time.Time, maxPages int) int {
	if !now.After(hwm) {
		return 1
	}
	weeks := now.Sub(hwm).Hours() / (7 * 24)
	budget := int(weeks)
	if float64(budget) < weeks {
		budget++
	}
	if budget < 1 {
		budget = 1
	}
	if budget > maxPages {
		budget = maxPages
	}
	return budget
}

// Sync walks activity pages from newest to oldest, stopping once the page
// budget is exhausted or the oldest event on the current page is at or
// before the high-water mark. It replaces the in-memory synced window;
// on failure the previous synced window is left untouched.
func (l *Log) Sync(ctx context.Context, now time.Time, fetch ActivityFetcher) error {
	budget := PageBudget(now, l.hwm, l.maxPages)

	var collected []models.Event
	offset := 0

	for page := 0; page < budget; page++ {
		result, err := fetch(ctx, pageSize, offset)
		if err != nil {
			return fmt.Errorf("eventlog: sync page %d: %w", page, err)
		}
		collected = append(collected, result.Events...)

		if result.Count < pageSize {
			break
		}

		oldest := oldestEventDate(result.Events)
		offset += pageSize
		if !oldest.After(l.hwm) {
			break
		}
	}

	l.synced = collected
	return nil
}

func oldestEventDate(events []models.Event) time.Time {
	if len(events) == 0 {
		return time.Time{}
	}
	oldest := events[0].EventDate
	for _, e := range events[1:] {
		if e.EventDate.Before(oldest) {
			oldest = e.EventDate
		}
	}
	return oldest
}

// New returns events strictly newer than the high-water mark.
func (l *Log) New() []models.Event {
	var out []models.Event
	for _, e := range l.synced {
		if e.EventDate.After(l.hwm) {
			out = append(out, e)
		}
	}
	return out
}

// NewLastEventForTaskByDate keeps, for each task id touched by New, the
// most recent event (ties broken by first-seen in a descending scan — the
// "most recent configuration wins" resolution of the source's ambiguous
// added-vs-completed tie-break), then groups the results by event type.
func (l *Log) NewLastEventForTaskByDate() map[models.EventType][]models.Event {
	newEvents := l.New()

	sorted := make([]models.Event, len(newEvents))
	copy(sorted, newEvents)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EventDate.After(sorted[j].EventDate)
	})

	seen := make(map[string]bool)
	var lastPerTask []models.Event
	for _, e := range sorted {
		if e.ObjectType != models.ObjectItem {
			continue
		}
		if seen[e.ObjectID] {
			continue
		}
		seen[e.ObjectID] = true
		lastPerTask = append(lastPerTask, e)
	}

	grouped := make(map[models.EventType][]models.Event)
	for _, e := range lastPerTask {
		grouped[e.EventType] = append(grouped[e.EventType], e)
	}
	return grouped
}

// ByObjectID returns every event for id, across all object types touched
// by the current synced window, sorted ascending by event_date.
func (l *Log) ByObjectID(id string) []models.Event {
	var out []models.Event
	for _, e := range l.synced {
		if e.ObjectID == id {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventDate.Before(out[j].EventDate) })
	return out
}
