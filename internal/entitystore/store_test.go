package entitystore_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/nvoss/horizonsync/internal/entitystore"
	"github.com/nvoss/horizonsync/internal/models"
)

func loadFixed(items map[string]models.Label) entitystore.Loader[models.Label] {
	return func(ctx context.Context) (map[string]models.Label, error) { return items, nil }
}

func syncFixed(items map[string]models.Label) entitystore.Syncer[models.Label] {
	return func(ctx context.Context) (map[string]models.Label, error) { return items, nil }
}

func newLoadedStore(t *testing.T, current, synced map[string]models.Label, diff entitystore.DiffFunc[models.Label]) *entitystore.Store[models.Label] {
	t.Helper()
	s := entitystore.New(loadFixed(current), syncFixed(synced), diff)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	return s
}

func TestNewReturnsSyncedMinusCurrent(t *testing.T) {
	current := map[string]models.Label{"a": {ID: "a", Name: "keep"}}
	synced := map[string]models.Label{
		"a": {ID: "a", Name: "keep"},
		"b": {ID: "b", Name: "fresh"},
	}
	s := newLoadedStore(t, current, synced, nil)

	got := s.New()
	want := map[string]models.Label{"b": {ID: "b", Name: "fresh"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("New() = %+v, want %+v", got, want)
	}
}

func TestRemovedReturnsCurrentMinusSynced(t *testing.T) {
	current := map[string]models.Label{
		"a": {ID: "a", Name: "keep"},
		"b": {ID: "b", Name: "gone"},
	}
	synced := map[string]models.Label{"a": {ID: "a", Name: "keep"}}
	s := newLoadedStore(t, current, synced, nil)

	got := s.Removed()
	want := map[string]models.Label{"b": {ID: "b", Name: "gone"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Removed() = %+v, want %+v", got, want)
	}
}

func TestUpdatedDiffOnIdenticalSnapshotsIsEmpty(t *testing.T) {
	items := map[string]models.Label{
		"a": {ID: "a", Name: "same", Color: "red"},
		"b": {ID: "b", Name: "also-same"},
	}
	s := newLoadedStore(t, items, items, nil)

	got := s.UpdatedDiff()
	if len(got) != 0 {
		t.Errorf("UpdatedDiff() on identical snapshots = %+v, want empty", got)
	}
}

func TestUpdatedDiffWithoutDiffFuncReportsChangedPairs(t *testing.T) {
	current := map[string]models.Label{"a": {ID: "a", Name: "old"}}
	synced := map[string]models.Label{"a": {ID: "a", Name: "new"}}
	s := newLoadedStore(t, current, synced, nil)

	got := s.UpdatedDiff()
	if _, ok := got["a"]; !ok {
		t.Fatalf("UpdatedDiff() = %+v, want an entry for id a", got)
	}
}

func TestUpdatedDiffOmitsIdsOnlyOnOneSide(t *testing.T) {
	current := map[string]models.Label{"a": {ID: "a"}, "only-current": {ID: "only-current"}}
	synced := map[string]models.Label{"a": {ID: "a"}, "only-synced": {ID: "only-synced"}}
	s := newLoadedStore(t, current, synced, nil)

	got := s.UpdatedDiff()
	if _, ok := got["only-current"]; ok {
		t.Error("UpdatedDiff() should not include an id absent from synced")
	}
	if _, ok := got["only-synced"]; ok {
		t.Error("UpdatedDiff() should not include an id absent from current")
	}
}

func TestUpdatedDiffHonorsDiffFuncSuppression(t *testing.T) {
	current := map[string]models.Label{"a": {ID: "a", Name: "x", Color: "red"}}
	synced := map[string]models.Label{"a": {ID: "a", Name: "x", Color: "blue"}}

	// A diff func that only cares about Name ignores the Color change.
	nameOnlyDiff := func(cur, syn models.Label) map[string]entitystore.Change {
		if cur.Name == syn.Name {
			return nil
		}
		return map[string]entitystore.Change{"name": {Before: cur.Name, After: syn.Name}}
	}
	s := newLoadedStore(t, current, synced, nameOnlyDiff)

	got := s.UpdatedDiff()
	if len(got) != 0 {
		t.Errorf("UpdatedDiff() = %+v, want empty (diff func suppressed the only change)", got)
	}
}

func TestUpdatedDiffReportsAttributeLevelChangeFromDiffFunc(t *testing.T) {
	current := map[string]models.Label{"a": {ID: "a", Name: "old"}}
	synced := map[string]models.Label{"a": {ID: "a", Name: "new"}}
	nameDiff := func(cur, syn models.Label) map[string]entitystore.Change {
		if cur.Name == syn.Name {
			return nil
		}
		return map[string]entitystore.Change{"name": {Before: cur.Name, After: syn.Name}}
	}
	s := newLoadedStore(t, current, synced, nameDiff)

	got := s.UpdatedDiff()
	change, ok := got["a"]["name"]
	if !ok {
		t.Fatalf("UpdatedDiff() = %+v, want a name change for id a", got)
	}
	if change.Before != "old" || change.After != "new" {
		t.Errorf("change = %+v, want Before=old After=new", change)
	}
}

func TestCurrentAndSyncedAccessors(t *testing.T) {
	current := map[string]models.Label{"a": {ID: "a"}}
	synced := map[string]models.Label{"b": {ID: "b"}}
	s := newLoadedStore(t, current, synced, nil)

	if !reflect.DeepEqual(s.Current(), current) {
		t.Errorf("Current() = %+v, want %+v", s.Current(), current)
	}
	if !reflect.DeepEqual(s.Synced(), synced) {
		t.Errorf("Synced() = %+v, want %+v", s.Synced(), synced)
	}
}

func TestSetCurrentOverridesSnapshot(t *testing.T) {
	s := newLoadedStore(t, map[string]models.Label{"a": {ID: "a"}}, nil, nil)
	replacement := map[string]models.Label{"c": {ID: "c"}}
	s.SetCurrent(replacement)
	if !reflect.DeepEqual(s.Current(), replacement) {
		t.Errorf("Current() after SetCurrent = %+v, want %+v", s.Current(), replacement)
	}
}
