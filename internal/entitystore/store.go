// Package entitystore holds the typed local mirror of a single entity kind,
// keeping a "current" snapshot (loaded from the database) and a "synced"
// snapshot (fetched from the remote) side by side, and deriving set-algebra
// views between them.
package entitystore

import (
	"context"
	"fmt"
)

// Entity is anything keyed by a stable string id.
type Entity interface {
	EntityID() string
}

// Loader reads every row of a kind from the database.
type Loader[T Entity] func(ctx context.Context) (map[string]T, error)

// Syncer fetches every item of a kind from the remote.
type Syncer[T Entity] func(ctx context.Context) (map[string]T, error)

// DiffFunc computes the attribute-level change set between two versions of
// the same entity. It returns nil when there is no meaningful change.
type DiffFunc[T Entity] func(current, synced T) map[string]Change

// Change records a single attribute's before/after values.
type Change struct {
	Before any
	After  any
}

// Store holds the current/synced snapshots for one entity kind.
type Store[T Entity] struct {
	load Loader[T]
	sync Syncer[T]
	diff DiffFunc[T]

	current map[string]T
	synced  map[string]T
}

// New constructs a Store with the given load/sync functions. diff may be
// nil, in which case updated_diff reports any non-identical pair as a
// change without attribute-level detail.
func New[T Entity](load Loader[T], sync Syncer[T], diff DiffFunc[T]) *Store[T] {
	return &Store[T]{load: load, sync: sync, diff: diff}
}

// Load reads all rows for this kind from the DB and replaces Current.
// On failure Current is left unchanged.
func (s *Store[T]) Load(ctx context.Context) error {
	items, err := s.load(ctx)
	if err != nil {
		return fmt.Errorf("entitystore: load: %w", err)
	}
	s.current = items
	return nil
}

// Sync fetches all items from the remote and replaces Synced.
// On failure Synced is left unchanged.
func (s *Store[T]) Sync(ctx context.Context) error {
	items, err := s.sync(ctx)
	if err != nil {
		return fmt.Errorf("entitystore: sync: %w", err)
	}
	s.synced = items
	return nil
}

// Current returns the DB-loaded snapshot.
func (s *Store[T]) Current() map[string]T { return s.current }

// Synced returns the remote-loaded snapshot.
func (s *Store[T]) Synced() map[string]T { return s.synced }

// SetCurrent overrides the current snapshot — used by callers that persist
// reconstructed state and want the in-memory view to stay consistent
// without a round-trip through the database.
func (s *Store[T]) SetCurrent(items map[string]T) { s.current = items }

// New returns synced \ current, keyed by id.
func (s *Store[T]) New() map[string]T {
	out := make(map[string]T)
	for id, v := range s.synced {
		if _, ok := s.current[id]; !ok {
			out[id] = v
		}
	}
	return out
}

// Removed returns current \ synced, keyed by id.
func (s *Store[T]) Removed() map[string]T {
	out := make(map[string]T)
	for id, v := range s.current {
		if _, ok := s.synced[id]; !ok {
			out[id] = v
		}
	}
	return out
}

// UpdatedDiff returns, for each id present in both snapshots, the
// attribute-level changes (possibly empty after diff-function suppression).
// Ids with no change (nil/empty diff) are omitted entirely.
func (s *Store[T]) UpdatedDiff() map[string]map[string]Change {
	out := make(map[string]map[string]Change)
	for id, cur := range s.current {
		syn, ok := s.synced[id]
		if !ok {
			continue
		}
		var d map[string]Change
		if s.diff != nil {
			d = s.diff(cur, syn)
		} else if !genericEqual(cur, syn) {
			d = map[string]Change{"_": {Before: cur, After: syn}}
		}
		if len(d) > 0 {
			out[id] = d
		}
	}
	return out
}

func genericEqual[T any](a, b T) bool {
	return fmt.Sprintf("%+v", a) == fmt.Sprintf("%+v", b)
}
