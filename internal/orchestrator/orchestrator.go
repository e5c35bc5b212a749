// Package orchestrator drives one sync tick: it pulls the remote workspace
// into the entity stores, classifies what changed against the local mirror,
// advances each horizon's plan, and persists the result. It also runs the
// two daily jobs (plan rollover and the status digest) on their own
// schedules, serialized against tick execution by a single mutex.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nvoss/horizonsync/internal/analyzer"
	"github.com/nvoss/horizonsync/internal/config"
	"github.com/nvoss/horizonsync/internal/diffengine"
	"github.com/nvoss/horizonsync/internal/entitystore"
	"github.com/nvoss/horizonsync/internal/eventlog"
	"github.com/nvoss/horizonsync/internal/models"
	"github.com/nvoss/horizonsync/internal/notifier"
	"github.com/nvoss/horizonsync/internal/planner"
	"github.com/nvoss/horizonsync/internal/remote"
	"github.com/nvoss/horizonsync/internal/storage"
)

const (
	analysisChatID = "analysis"
	reportChatID   = "reports"
)

// Daemon owns the entity stores, the event log, the planner, and the
// remote/notifier/storage clients that back them.
type Daemon struct {
	cfg      *config.Config
	db       *storage.DB
	remote   *remote.Client
	notifier *notifier.Notifier
	log      *slog.Logger

	tasks    *entitystore.Store[models.Task]
	projects *entitystore.Store[models.Project]
	sections *entitystore.Store[models.Section]
	labels   *entitystore.Store[models.Label]
	events   *eventlog.Log

	planner *planner.Planner

	// tickMu serializes a regular tick against a daily rollover: both
	// mutate the planner's active-plan map and the task mirror, and
	// must never interleave.
	tickMu sync.Mutex
}

// New wires the entity stores, event log, and planner against db and
// remoteClient, and returns a Daemon ready for Init then Tick/RunDailyRollover.
func New(cfg *config.Config, db *storage.DB, remoteClient *remote.Client, notif *notifier.Notifier, log *slog.Logger) *Daemon {
	if log == nil {
		log = slog.Default()
	}

	d := &Daemon{cfg: cfg, db: db, remote: remoteClient, notifier: notif, log: log}

	d.tasks = entitystore.New[models.Task](db.LoadTasks, remoteClient.ListTasks, models.TaskDiff)
	d.projects = entitystore.New[models.Project](db.LoadProjects, remoteClient.ListProjects, nil)
	d.sections = entitystore.New[models.Section](db.LoadSections, remoteClient.ListSections, nil)
	d.labels = entitystore.New[models.Label](db.LoadLabels, remoteClient.ListLabels, nil)
	d.events = eventlog.New(cfg.EventsSyncFullSyncPages)

	table := planner.DefaultTransitionTable()
	d.planner = planner.New(db, table, cfg.SpecialLabels.Goal, log)

	return d
}

// Init loads persisted state: the entity mirrors, the event log's
// high-water mark, and (via a no-op-safe RefreshPlans call) each horizon's
// active plan. It must run once before the first Tick.
func (d *Daemon) Init(ctx context.Context) error {
	if err := d.tasks.Load(ctx); err != nil {
		return fmt.Errorf("orchestrator: init: %w", err)
	}
	if err := d.projects.Load(ctx); err != nil {
		return fmt.Errorf("orchestrator: init: %w", err)
	}
	if err := d.sections.Load(ctx); err != nil {
		return fmt.Errorf("orchestrator: init: %w", err)
	}
	if err := d.labels.Load(ctx); err != nil {
		return fmt.Errorf("orchestrator: init: %w", err)
	}

	maxDate, ok, err := d.db.MaxEventDate(ctx)
	if err != nil {
		return fmt.Errorf("orchestrator: init: max event date: %w", err)
	}
	now := time.Now()
	if ok {
		d.events.SetHWM(maxDate, now)
	} else {
		d.events.SetHWM(time.Time{}, now)
	}

	if _, err := d.planner.RefreshPlans(ctx, now, taskSlice(d.tasks.Current())); err != nil {
		return fmt.Errorf("orchestrator: init: refresh plans: %w", err)
	}
	return nil
}

// Tick runs one synchronization pass:
//
//  1. reload the entity mirrors from the database (picks up any out-of-band
//     writes, and establishes the "current" side of the diff);
//  2. fetch tasks, projects, sections, labels, and the new activity-event
//     window from the remote concurrently;
//  3. run the project/goal analyzer over the freshly synced state and
//     dispatch any warnings;
//  4. group the new events by type, keyed by the most recent event per task;
//  5. classify each touched task into an (added/updated/completed/
//     uncompleted/deleted) transition;
//  6. feed every classified task into the planner, once per horizon;
//  7. persist the classified tasks back to the database;
//  8. persist the newly observed events.
func (d *Daemon) Tick(ctx context.Context) error {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()

	now := time.Now()

	if err := d.tasks.Load(ctx); err != nil {
		return fmt.Errorf("orchestrator: tick: reload tasks: %w", err)
	}
	if err := d.projects.Load(ctx); err != nil {
		return fmt.Errorf("orchestrator: tick: reload projects: %w", err)
	}
	if err := d.sections.Load(ctx); err != nil {
		return fmt.Errorf("orchestrator: tick: reload sections: %w", err)
	}
	if err := d.labels.Load(ctx); err != nil {
		return fmt.Errorf("orchestrator: tick: reload labels: %w", err)
	}

	if err := d.syncRemote(ctx, now); err != nil {
		return fmt.Errorf("orchestrator: tick: sync: %w", err)
	}

	d.runAnalysis(ctx)

	grouped := d.events.NewLastEventForTaskByDate()
	classified, err := diffengine.Classify(
		ctx,
		d.tasks.Current(), d.tasks.Synced(),
		grouped,
		d.remote.GetTask,
		d.events.ByObjectID,
		d.log,
	)
	if err != nil {
		return fmt.Errorf("orchestrator: tick: classify: %w", err)
	}

	d.applyToPlans(ctx, classified, now)

	if err := d.persist(ctx, classified); err != nil {
		return fmt.Errorf("orchestrator: tick: persist: %w", err)
	}

	return nil
}

// syncRemote fans the bulk-listing and activity-feed fetches out
// concurrently and fails the tick if any of them errors; each store's
// previous Synced snapshot is left untouched on its own failure, so a
// partial fan-out failure does not corrupt state, only skips the tick.
func (d *Daemon) syncRemote(ctx context.Context, now time.Time) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return d.tasks.Sync(gctx) })
	g.Go(func() error { return d.projects.Sync(gctx) })
	g.Go(func() error { return d.sections.Sync(gctx) })
	g.Go(func() error { return d.labels.Sync(gctx) })
	g.Go(func() error { return d.events.Sync(gctx, now, d.remote.Activity) })

	return g.Wait()
}

func (d *Daemon) runAnalysis(ctx context.Context) {
	reports := analyzer.Analyze(d.projects.Synced(), d.tasks.Synced(), d.cfg.SpecialLabels.Goal, d.cfg.SpecialLabels.Success)

	var warnings []string
	for _, r := range reports {
		warnings = append(warnings, r.Warnings...)
	}
	if len(warnings) == 0 {
		return
	}

	text := "Consistency warnings:\n"
	for _, w := range warnings {
		text += "- " + w + "\n"
	}
	d.notifier.Send(ctx, analysisChatID, text, false, false)
}

func (d *Daemon) applyToPlans(ctx context.Context, classified []diffengine.Classification, now time.Time) {
	for _, c := range classified {
		for _, horizon := range models.AllHorizons() {
			if _, ok := d.planner.ActivePlan(horizon); !ok {
				continue
			}
			if err := d.planner.ProcessTask(ctx, horizon, c.Task, c.Status, now); err != nil {
				d.log.Warn("orchestrator: process task failed", "task_id", c.Task.ID, "horizon", horizon, "err", err)
			}
		}
	}
}

func (d *Daemon) persist(ctx context.Context, classified []diffengine.Classification) error {
	tasks := make([]models.Task, 0, len(classified))
	for _, c := range classified {
		tasks = append(tasks, c.Task)
	}
	if err := d.db.UpsertTasks(ctx, tasks); err != nil {
		return fmt.Errorf("upsert classified tasks: %w", err)
	}

	if err := d.db.InsertEvents(ctx, d.events.New()); err != nil {
		return fmt.Errorf("insert new events: %w", err)
	}

	d.tasks.SetCurrent(mergeClassified(d.tasks.Current(), classified))
	return nil
}

func mergeClassified(current map[string]models.Task, classified []diffengine.Classification) map[string]models.Task {
	out := make(map[string]models.Task, len(current))
	for id, t := range current {
		out[id] = t
	}
	for _, c := range classified {
		if c.Status == diffengine.StatusDeleted {
			delete(out, c.Task.ID)
			continue
		}
		out[c.Task.ID] = c.Task
	}
	return out
}

func taskSlice(m map[string]models.Task) []models.Task {
	out := make([]models.Task, 0, len(m))
	for _, t := range m {
		out = append(out, t)
	}
	return out
}
