package planner

import (
	"context"
	"testing"
	"time"

	"github.com/nvoss/horizonsync/internal/diffengine"
	"github.com/nvoss/horizonsync/internal/models"
)

type fakeStore struct {
	plans      map[models.Horizon]models.Plan
	nextPlanID int64
	records    map[int64][]models.PlanTaskRecord // planID -> ordered records
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		plans:      make(map[models.Horizon]models.Plan),
		records:    make(map[int64][]models.PlanTaskRecord),
		nextPlanID: 1,
	}
}

func (s *fakeStore) ActivePlan(ctx context.Context, horizon models.Horizon) (models.Plan, bool, error) {
	p, ok := s.plans[horizon]
	return p, ok, nil
}

func (s *fakeStore) CreatePlan(ctx context.Context, plan models.Plan) (models.Plan, error) {
	plan.ID = s.nextPlanID
	s.nextPlanID++
	s.plans[plan.Horizon] = plan
	return plan, nil
}

func (s *fakeStore) SetPlanInactive(ctx context.Context, planID int64) error {
	for h, p := range s.plans {
		if p.ID == planID {
			p.Active = false
			s.plans[h] = p
		}
	}
	return nil
}

func (s *fakeStore) CurrentStatus(ctx context.Context, planID int64, taskID string) (models.PlanStatus, bool, error) {
	var last *models.PlanTaskRecord
	for i := range s.records[planID] {
		r := s.records[planID][i]
		if r.TaskID == taskID {
			if last == nil || r.Timestamp.After(last.Timestamp) {
				rCopy := r
				last = &rCopy
			}
		}
	}
	if last == nil {
		return "", false, nil
	}
	return last.Status, true, nil
}

func (s *fakeStore) AddRecord(ctx context.Context, rec models.PlanTaskRecord) error {
	s.records[rec.PlanID] = append(s.records[rec.PlanID], rec)
	return nil
}

func (s *fakeStore) CountsByStatus(ctx context.Context, planID int64) (map[models.PlanStatus]int, error) {
	latest := make(map[string]models.PlanStatus)
	latestTime := make(map[string]time.Time)
	for _, r := range s.records[planID] {
		if t, ok := latestTime[r.TaskID]; !ok || r.Timestamp.After(t) {
			latest[r.TaskID] = r.Status
			latestTime[r.TaskID] = r.Timestamp
		}
	}
	counts := make(map[models.PlanStatus]int)
	for _, status := range latest {
		counts[status]++
	}
	return counts, nil
}

func TestScenarioAddHighPriorityDatedTask(t *testing.T) {
	store := newFakeStore()
	p := New(store, DefaultTransitionTable(), "GOAL", nil)

	weekEnd, _ := time.Parse("2006-01-02", "2025-03-16")
	plan, _ := store.CreatePlan(context.Background(), models.Plan{Horizon: models.HorizonWeek, Active: true, Start: time.Now(), End: weekEnd})
	p.active[models.HorizonWeek] = plan

	monthEnd, _ := time.Parse("2006-01-02", "2025-03-31")
	monthPlan, _ := store.CreatePlan(context.Background(), models.Plan{Horizon: models.HorizonMonth, Active: true, Start: time.Now(), End: monthEnd})
	p.active[models.HorizonMonth] = monthPlan

	task := models.Task{ID: "t1", Priority: 4, Due: &models.Due{Date: "2025-03-15"}}
	now := time.Now()

	if err := p.ProcessTask(context.Background(), models.HorizonWeek, task, diffengine.StatusAdded, now); err != nil {
		t.Fatalf("ProcessTask week: %v", err)
	}
	if err := p.ProcessTask(context.Background(), models.HorizonMonth, task, diffengine.StatusAdded, now); err != nil {
		t.Fatalf("ProcessTask month: %v", err)
	}

	status, present, _ := store.CurrentStatus(context.Background(), plan.ID, "t1")
	if !present || status != models.StatusPlanned {
		t.Errorf("week plan: want planned, got present=%v status=%v", present, status)
	}
	_, presentMonth, _ := store.CurrentStatus(context.Background(), monthPlan.ID, "t1")
	if presentMonth {
		t.Errorf("month plan should not contain t1 (no GOAL label)")
	}
}

func TestScenarioRecurringCompletion(t *testing.T) {
	store := newFakeStore()
	p := New(store, DefaultTransitionTable(), "GOAL", nil)

	dayEnd, _ := time.Parse("2006-01-02", "2025-03-15")
	plan, _ := store.CreatePlan(context.Background(), models.Plan{Horizon: models.HorizonDay, Active: true, Start: dayEnd, End: dayEnd})
	p.active[models.HorizonDay] = plan

	base := time.Now()
	task := models.Task{ID: "t2", Due: &models.Due{Date: "2025-03-15", IsRecurring: true}}
	if err := p.ProcessTask(context.Background(), models.HorizonDay, task, diffengine.StatusAdded, base); err != nil {
		t.Fatalf("seed: %v", err)
	}

	completedTask := models.Task{ID: "t2", IsCompleted: true, Due: &models.Due{Date: "2025-03-16", IsRecurring: true}}
	if err := p.ProcessTask(context.Background(), models.HorizonDay, completedTask, diffengine.StatusCompleted, base.Add(time.Minute)); err != nil {
		t.Fatalf("complete: %v", err)
	}

	recs := store.records[plan.ID]
	if len(recs) != 3 {
		t.Fatalf("expected 3 records (planned, completed_recurring, planned), got %d: %+v", len(recs), recs)
	}
	if recs[1].Status != models.StatusCompletedRecurring || recs[2].Status != models.StatusPlanned {
		t.Errorf("unexpected transition order: %+v", recs)
	}
}

func TestRolloverComputesReport(t *testing.T) {
	store := newFakeStore()
	p := New(store, DefaultTransitionTable(), "GOAL", nil)

	oldEnd, _ := time.Parse("2006-01-02", "2025-03-14")
	oldPlan, _ := store.CreatePlan(context.Background(), models.Plan{Horizon: models.HorizonDay, Active: true, Start: oldEnd, End: oldEnd})
	p.active[models.HorizonDay] = oldPlan

	base := time.Now()
	statuses := []models.PlanStatus{
		models.StatusCompleted, models.StatusCompleted, models.StatusCompleted,
		models.StatusPlanned, models.StatusPlanned,
		models.StatusPostponed,
	}
	for i, s := range statuses {
		store.AddRecord(context.Background(), models.PlanTaskRecord{
			TaskID: "task" + string(rune('a'+i)), PlanID: oldPlan.ID, Status: s, Timestamp: base,
		})
	}

	today, _ := time.Parse("2006-01-02", "2025-03-15")
	reports, err := p.RefreshPlans(context.Background(), today, nil)
	if err != nil {
		t.Fatalf("RefreshPlans: %v", err)
	}

	var dayReport *models.Report
	for i := range reports {
		if reports[i].Horizon == models.HorizonDay {
			dayReport = &reports[i]
		}
	}
	if dayReport == nil {
		t.Fatal("expected a day report")
	}
	if dayReport.Completed != 3 || dayReport.Planned != 2 || dayReport.Postponed != 1 || dayReport.Deleted != 0 {
		t.Errorf("unexpected report: %+v", dayReport)
	}
	if dayReport.OverallPlanned != 6 {
		t.Errorf("OverallPlanned = %d, want 6", dayReport.OverallPlanned)
	}
	wantRatio := 60.0
	if dayReport.ComplRatio < wantRatio-0.001 || dayReport.ComplRatio > wantRatio+0.001 {
		t.Errorf("ComplRatio = %v, want %v", dayReport.ComplRatio, wantRatio)
	}

	newPlan, ok := p.ActivePlan(models.HorizonDay)
	if !ok || !newPlan.Start.Equal(today) {
		t.Errorf("expected new plan with start == today, got %+v", newPlan)
	}
}

func TestComplRatioZeroOnDivideByZero(t *testing.T) {
	report := BuildReport(models.HorizonDay, map[models.PlanStatus]int{})
	if report.ComplRatio != 0 {
		t.Errorf("ComplRatio = %v, want 0", report.ComplRatio)
	}
}
