package core

import "pkt.systems/tabula/schema"

// registry is the ordered tab list and the active index.
// It performs no I/O; the service drives surfaces around it.
type registry struct {
	tabs   []*tab
	active int
}

func newRegistry() *registry {
	return &registry{active: -1}
}

func (r *registry) len() int { return len(r.tabs) }

func (r *registry) valid(index int) bool {
	return index >= 0 && index < len(r.tabs)
}

func (r *registry) at(index int) *tab {
	if !r.valid(index) {
		return nil
	}
	return r.tabs[index]
}

func (r *registry) current() *tab {
	return r.at(r.active)
}

func (r *registry) append(t *tab) int {
	r.tabs = append(r.tabs, t)
	return len(r.tabs) - 1
}

func (r *registry) find(id schema.SurfaceID) (int, *tab) {
	for i, t := range r.tabs {
		if t.surface != nil && t.surface.ID() == id {
			return i, t
		}
	}
	return -1, nil
}

// remove deletes the record at index and returns it. The active index is
// adjusted so it keeps pointing at the same logical tab. When the removed tab
// was active, reactivate reports the index that must be switched to, or -1
// when the list is now empty.
func (r *registry) remove(index int) (removed *tab, wasActive bool, reactivate int) {
	if !r.valid(index) {
		return nil, false, -1
	}
	removed = r.tabs[index]
	r.tabs = append(r.tabs[:index], r.tabs[index+1:]...)
	wasActive = index == r.active
	switch {
	case len(r.tabs) == 0:
		r.active = -1
		return removed, wasActive, -1
	case wasActive:
		r.active = -1
		return removed, true, min(index, len(r.tabs)-1)
	case index < r.active:
		r.active--
	}
	return removed, false, r.active
}

// move relocates the record at from to position to. It reports false when
// the move is a no-op.
func (r *registry) move(from, to int) bool {
	if from == to || !r.valid(from) || !r.valid(to) {
		return false
	}
	moved := r.tabs[from]
	r.tabs = append(r.tabs[:from], r.tabs[from+1:]...)
	r.tabs = append(r.tabs[:to], append([]*tab{moved}, r.tabs[to:]...)...)

	switch {
	case r.active == from:
		r.active = to
	case from < r.active && r.active <= to:
		r.active--
	case to <= r.active && r.active < from:
		r.active++
	}
	return true
}
