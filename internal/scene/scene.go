package scene

import (
	"sort"

	"github.com/google/uuid"
)

// Store is the single source of truth for the scene: an ordered list of
// entities whose position defines z-order. The engine runs on a cooperative
// event loop so the store is not safe for concurrent use; asynchronous
// completions must be posted back onto the loop before touching it.
type Store struct {
	entities []Entity
	onRemove func(Entity)
}

// NewStore creates an empty scene.
func NewStore() *Store { return &Store{} }

// SetOnRemove registers a hook fired once for every entity that leaves the
// scene, including wholesale replacement via Restore. The animator uses it to
// cancel ticking tasks owned by removed entities.
func (s *Store) SetOnRemove(fn func(Entity)) { s.onRemove = fn }

// Append adds e on top of the z-order.
func (s *Store) Append(e Entity) { s.entities = append(s.entities, e) }

// Len reports the number of entities.
func (s *Store) Len() int { return len(s.entities) }

// All returns the entities in z-order, bottom first. The slice is shared;
// callers must not mutate its length.
func (s *Store) All() []Entity { return s.entities }

// At returns the entity at index i, or nil when out of range.
func (s *Store) At(i int) Entity {
	if i < 0 || i >= len(s.entities) {
		return nil
	}
	return s.entities[i]
}

// IndexOf resolves an entity to its current list position by ID, -1 when the
// entity is no longer in the scene.
func (s *Store) IndexOf(e Entity) int {
	if e == nil {
		return -1
	}
	for i, cur := range s.entities {
		if cur.ID() == e.ID() {
			return i
		}
	}
	return -1
}

// ByID returns the live entity with the given ID, or nil. Asynchronous
// completions re-derive their target through this instead of trusting a
// captured reference.
func (s *Store) ByID(id uuid.UUID) Entity {
	for _, e := range s.entities {
		if e.ID() == id {
			return e
		}
	}
	return nil
}

// RemoveAt deletes the entity at index i. Out-of-range indices are ignored.
func (s *Store) RemoveAt(i int) {
	if i < 0 || i >= len(s.entities) {
		return
	}
	removed := s.entities[i]
	s.entities = append(s.entities[:i], s.entities[i+1:]...)
	s.notifyRemoved(removed)
}

// RemoveIndices deletes the entities at the given positions. Indices are
// consumed in descending order so earlier removals cannot invalidate later
// ones; duplicates and out-of-range values are ignored. Callers may pass the
// set in any order.
func (s *Store) RemoveIndices(indices []int) {
	if len(indices) == 0 {
		return
	}
	sorted := append([]int(nil), indices...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	prev := -1
	for _, i := range sorted {
		if i == prev {
			continue
		}
		prev = i
		s.RemoveAt(i)
	}
}

// Remove deletes the entity with the given ID if it is still present.
func (s *Store) Remove(id uuid.UUID) {
	for i, e := range s.entities {
		if e.ID() == id {
			s.RemoveAt(i)
			return
		}
	}
}

// Clear empties the scene.
func (s *Store) Clear() {
	old := s.entities
	s.entities = nil
	for _, e := range old {
		s.notifyRemoved(e)
	}
}

// Snapshot deep-copies the scene in order. The copies share nothing mutable
// with the live entities. A restored scene has no completion coming, so
// generating entities cannot be copied as-is: byte-less placeholders are
// skipped outright, and a busy image with real bytes is copied with the
// flag cleared since its content stands on its own.
func (s *Store) Snapshot() []Entity {
	out := make([]Entity, 0, len(s.entities))
	for _, e := range s.entities {
		if img, ok := e.(*ImageObject); ok && img.Generating {
			if img.Bytes == nil {
				continue
			}
			c := img.Clone().(*ImageObject)
			c.Generating = false
			out = append(out, c)
			continue
		}
		out = append(out, e.Clone())
	}
	return out
}

// Restore replaces the live scene with a deep copy of the snapshot. Entities
// present before but absent from the snapshot are reported through the
// OnRemove hook so their animations stop deterministically.
func (s *Store) Restore(snapshot []Entity) {
	kept := make(map[uuid.UUID]bool, len(snapshot))
	for _, e := range snapshot {
		kept[e.ID()] = true
	}
	old := s.entities
	s.entities = make([]Entity, len(snapshot))
	for i, e := range snapshot {
		s.entities[i] = e.Clone()
	}
	for _, e := range old {
		if !kept[e.ID()] {
			s.notifyRemoved(e)
		}
	}
}

// Selected returns the currently selected entities in z-order.
func (s *Store) Selected() []Entity {
	var out []Entity
	for _, e := range s.entities {
		if e.Selected() {
			out = append(out, e)
		}
	}
	return out
}

// ClearSelection drops every selection flag.
func (s *Store) ClearSelection() {
	for _, e := range s.entities {
		e.SetSelected(false)
	}
}

func (s *Store) notifyRemoved(e Entity) {
	if s.onRemove != nil {
		s.onRemove(e)
	}
}
