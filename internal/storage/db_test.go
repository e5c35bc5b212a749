package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nvoss/horizonsync/internal/models"
)

// openTestDB opens a fresh named in-memory database, isolated per test by
// giving each one a unique shared-cache name.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenCreatesSchema(t *testing.T) {
	db := openTestDB(t)

	for _, table := range []string{"tasks", "projects", "sections", "labels", "events", "plans", "plan_task_records", "schema_info", "system_params"} {
		exists, err := db.tableExists(table)
		if err != nil {
			t.Fatalf("tableExists(%s) failed: %v", table, err)
		}
		if !exists {
			t.Errorf("table %s not created", table)
		}
	}
}

func TestProjectUpsertRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	projects := []models.Project{
		{ID: "p1", Name: "Alpha", Color: "red", IsFavorite: true},
		{ID: "p2", Name: "Beta", ParentID: "p1"},
	}
	if err := db.UpsertProjects(ctx, projects); err != nil {
		t.Fatalf("UpsertProjects failed: %v", err)
	}

	loaded, err := db.LoadProjects(ctx)
	if err != nil {
		t.Fatalf("LoadProjects failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("len(loaded) = %d, want 2", len(loaded))
	}
	if got := loaded["p1"]; got.Color != "red" || !got.IsFavorite {
		t.Errorf("p1 = %+v, want Color=red IsFavorite=true", got)
	}

	// Upsert again with changed attributes; should update in place, not duplicate.
	projects[0].Color = "blue"
	projects[0].IsFavorite = false
	if err := db.UpsertProjects(ctx, projects); err != nil {
		t.Fatalf("UpsertProjects (update) failed: %v", err)
	}
	loaded, err = db.LoadProjects(ctx)
	if err != nil {
		t.Fatalf("LoadProjects failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("len(loaded) after update = %d, want 2", len(loaded))
	}
	if got := loaded["p1"]; got.Color != "blue" || got.IsFavorite {
		t.Errorf("p1 after update = %+v, want Color=blue IsFavorite=false", got)
	}
}

func TestLabelUpsertRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	labels := []models.Label{{ID: "l1", Name: "urgent", Color: "orange", IsFavorite: true}}
	if err := db.UpsertLabels(ctx, labels); err != nil {
		t.Fatalf("UpsertLabels failed: %v", err)
	}

	loaded, err := db.LoadLabels(ctx)
	if err != nil {
		t.Fatalf("LoadLabels failed: %v", err)
	}
	got, ok := loaded["l1"]
	if !ok {
		t.Fatal("label l1 not found after upsert")
	}
	if got.Color != "orange" || !got.IsFavorite {
		t.Errorf("l1 = %+v, want Color=orange IsFavorite=true", got)
	}
}

func TestTaskUpsertRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	task := models.Task{ID: "t1", Content: "Write tests", ProjectID: "p1", Labels: []string{"goal"}}
	if err := db.UpsertTask(ctx, task); err != nil {
		t.Fatalf("UpsertTask failed: %v", err)
	}

	loaded, err := db.LoadTasks(ctx)
	if err != nil {
		t.Fatalf("LoadTasks failed: %v", err)
	}
	got, ok := loaded["t1"]
	if !ok {
		t.Fatal("task t1 not found after upsert")
	}
	if got.Content != "Write tests" || len(got.Labels) != 1 || got.Labels[0] != "goal" {
		t.Errorf("t1 = %+v, want Content=%q Labels=[goal]", got, "Write tests")
	}
}

func TestSystemParams(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, ok, err := db.GetParam(ctx, "tables_created"); err != nil {
		t.Fatalf("GetParam failed: %v", err)
	} else if ok {
		t.Error("expected no value for an unset param")
	}

	if err := db.SetParamBool(ctx, "tables_created", true); err != nil {
		t.Fatalf("SetParamBool failed: %v", err)
	}
	got, err := db.GetParamBool(ctx, "tables_created")
	if err != nil {
		t.Fatalf("GetParamBool failed: %v", err)
	}
	if !got {
		t.Error("GetParamBool = false, want true")
	}

	// Overwrite rather than duplicate.
	if err := db.SetParamBool(ctx, "tables_created", false); err != nil {
		t.Fatalf("SetParamBool (overwrite) failed: %v", err)
	}
	got, err = db.GetParamBool(ctx, "tables_created")
	if err != nil {
		t.Fatalf("GetParamBool failed: %v", err)
	}
	if got {
		t.Error("GetParamBool = true, want false after overwrite")
	}
}

func TestActivePlanOnePerHorizon(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.Add(7 * 24 * time.Hour)

	plan, err := db.CreatePlan(ctx, models.Plan{Horizon: models.HorizonWeek, Active: true, Start: start, End: end})
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	// A second active plan for the same horizon must violate the partial
	// unique index, since the first is still active.
	_, err = db.CreatePlan(ctx, models.Plan{Horizon: models.HorizonWeek, Active: true, Start: start, End: end})
	if err == nil {
		t.Fatal("expected an error creating a second active plan for the same horizon")
	}

	if err := db.SetPlanInactive(ctx, plan.ID); err != nil {
		t.Fatalf("SetPlanInactive failed: %v", err)
	}

	// Now that the first is inactive, a new active plan for the same horizon succeeds.
	second, err := db.CreatePlan(ctx, models.Plan{Horizon: models.HorizonWeek, Active: true, Start: start, End: end})
	if err != nil {
		t.Fatalf("CreatePlan after deactivation failed: %v", err)
	}

	got, ok, err := db.ActivePlan(ctx, models.HorizonWeek)
	if err != nil {
		t.Fatalf("ActivePlan failed: %v", err)
	}
	if !ok {
		t.Fatal("expected an active plan for week horizon")
	}
	if got.ID != second.ID {
		t.Errorf("ActivePlan returned id %d, want %d", got.ID, second.ID)
	}
}

func TestCountsByStatusUsesLatestRecordPerTask(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	plan, err := db.CreatePlan(ctx, models.Plan{
		Horizon: models.HorizonDay,
		Active:  true,
		Start:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	records := []models.PlanTaskRecord{
		{PlanID: plan.ID, TaskID: "t1", Status: models.StatusPlanned, Timestamp: base},
		{PlanID: plan.ID, TaskID: "t1", Status: models.StatusCompleted, Timestamp: base.Add(time.Hour)},
		{PlanID: plan.ID, TaskID: "t2", Status: models.StatusPlanned, Timestamp: base},
		{PlanID: plan.ID, TaskID: "t3", Status: models.StatusPlanned, Timestamp: base},
		{PlanID: plan.ID, TaskID: "t3", Status: models.StatusPostponed, Timestamp: base.Add(2 * time.Hour)},
	}
	for _, rec := range records {
		if err := db.AddRecord(ctx, rec); err != nil {
			t.Fatalf("AddRecord failed: %v", err)
		}
	}

	counts, err := db.CountsByStatus(ctx, plan.ID)
	if err != nil {
		t.Fatalf("CountsByStatus failed: %v", err)
	}

	want := map[models.PlanStatus]int{
		models.StatusCompleted: 1, // t1, latest record wins over its earlier "planned"
		models.StatusPlanned:   1, // t2, never superseded
		models.StatusPostponed: 1, // t3, latest record wins over its earlier "planned"
	}
	for status, n := range want {
		if counts[status] != n {
			t.Errorf("counts[%s] = %d, want %d", status, counts[status], n)
		}
	}
	if len(counts) != len(want) {
		t.Errorf("counts = %+v, want exactly %+v", counts, want)
	}
}

func TestCurrentStatusReturnsLatestRecord(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	plan, err := db.CreatePlan(ctx, models.Plan{Horizon: models.HorizonMonth, Active: true})
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	if err := db.AddRecord(ctx, models.PlanTaskRecord{PlanID: plan.ID, TaskID: "t1", Status: models.StatusPlanned, Timestamp: base}); err != nil {
		t.Fatalf("AddRecord failed: %v", err)
	}
	if err := db.AddRecord(ctx, models.PlanTaskRecord{PlanID: plan.ID, TaskID: "t1", Status: models.StatusPostponed, Timestamp: base.Add(time.Hour)}); err != nil {
		t.Fatalf("AddRecord failed: %v", err)
	}

	status, ok, err := db.CurrentStatus(ctx, plan.ID, "t1")
	if err != nil {
		t.Fatalf("CurrentStatus failed: %v", err)
	}
	if !ok {
		t.Fatal("expected a status for t1")
	}
	if status != models.StatusPostponed {
		t.Errorf("CurrentStatus = %s, want %s", status, models.StatusPostponed)
	}

	if _, ok, err := db.CurrentStatus(ctx, plan.ID, "missing"); err != nil {
		t.Fatalf("CurrentStatus failed: %v", err)
	} else if ok {
		t.Error("expected no status for a task with no records")
	}
}
