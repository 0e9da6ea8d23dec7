package game

// Registry owns every live entity and hands out identifiers. Ids are
// assigned in increasing order starting at 1 and are never reused.
type Registry struct {
	byID    map[ID]*Entity
	order   []ID
	next    ID
	removed int
}

func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[ID]*Entity),
		next: 1,
	}
}

// Add assigns the next identifier to e and takes ownership of it.
func (r *Registry) Add(e *Entity) ID {
	e.ID = r.next
	r.next++
	r.byID[e.ID] = e
	r.order = append(r.order, e.ID)
	return e.ID
}

func (r *Registry) Get(id ID) (*Entity, bool) {
	e, ok := r.byID[id]
	return e, ok
}

// Remove drops an entity. Its slot in the iteration order is reclaimed by
// Compact, so removing during Each is safe.
func (r *Registry) Remove(id ID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	r.removed++
	return true
}

func (r *Registry) Len() int {
	return len(r.byID)
}

// Each visits live entities in id order. Entities added during the walk are
// not visited; entities removed during the walk are skipped.
func (r *Registry) Each(fn func(e *Entity)) {
	n := len(r.order)
	for i := 0; i < n; i++ {
		e, ok := r.byID[r.order[i]]
		if !ok {
			continue
		}
		fn(e)
	}
}

// Compact reclaims iteration slots of removed entities.
func (r *Registry) Compact() {
	if r.removed == 0 {
		return
	}
	kept := r.order[:0]
	for _, id := range r.order {
		if _, ok := r.byID[id]; ok {
			kept = append(kept, id)
		}
	}
	clear(r.order[len(kept):])
	r.order = kept
	r.removed = 0
}
