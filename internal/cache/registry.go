package cache

import (
	"sync"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/framemark/framemark/internal/geo"
)

// DrawableKind discriminates drawable geometry.
type DrawableKind int

const (
	KindCircle DrawableKind = iota
	KindArrow
)

// lineHitHalo is the hit-test tolerance around an arrow segment, in pixels.
const lineHitHalo = 4.0

// Drawable is one live marker with its current geometry. Circles use
// Center/Radius, arrows use Start/Head.
type Drawable struct {
	ID     uint
	Kind   DrawableKind
	Center geom.XY
	Radius float64
	Start  geom.XY
	Head   geom.XY
}

// Registry is the insertion-ordered set of live drawables. Hit testing
// walks the set newest-first so overlapping markers resolve to the most
// recently created one.
type Registry struct {
	mu    sync.RWMutex
	order []uint
	items map[uint]*Drawable
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		order: make([]uint, 0),
		items: make(map[uint]*Drawable),
	}
}

// AddCircle registers a fading circle drawable.
func (r *Registry) AddCircle(id uint, center geom.XY, radius float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, id)
	r.items[id] = &Drawable{ID: id, Kind: KindCircle, Center: center, Radius: radius}
}

// AddArrow registers an arrow drawable.
func (r *Registry) AddArrow(id uint, start, head geom.XY) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, id)
	r.items[id] = &Drawable{ID: id, Kind: KindArrow, Start: start, Head: head}
}

// Get returns a copy of the drawable for id.
func (r *Registry) Get(id uint) (Drawable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.items[id]
	if !ok {
		return Drawable{}, false
	}
	return *d, true
}

// SetRadius updates the current radius of a circle drawable as it fades.
func (r *Registry) SetRadius(id uint, radius float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.items[id]; ok && d.Kind == KindCircle {
		d.Radius = radius
	}
}

// SetArrow updates the endpoints of an arrow drawable after rotation.
func (r *Registry) SetArrow(id uint, start, head geom.XY) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.items[id]; ok && d.Kind == KindArrow {
		d.Start = start
		d.Head = head
	}
}

// Remove discards a drawable. Unknown ids are ignored.
func (r *Registry) Remove(id uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return
	}
	delete(r.items, id)
	for i, other := range r.order {
		if other == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of live drawables.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// IDs returns the live drawable ids in insertion order.
func (r *Registry) IDs() []uint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uint, len(r.order))
	copy(ids, r.order)
	return ids
}

// Reset clears the registry when a new session opens.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = make([]uint, 0)
	r.items = make(map[uint]*Drawable)
}

// HitTest returns the topmost drawable under the pixel. Circles hit when
// the point is within the current radius, arrows within lineHitHalo of the
// segment. Among overlapping drawables the most recently added wins.
func (r *Registry) HitTest(p geom.XY) (uint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		d, ok := r.items[r.order[i]]
		if !ok {
			continue
		}
		switch d.Kind {
		case KindCircle:
			if p.Sub(d.Center).Length() <= d.Radius {
				return d.ID, true
			}
		case KindArrow:
			if geo.SegmentDistance(p, d.Start, d.Head) <= lineHitHalo {
				return d.ID, true
			}
		}
	}
	return 0, false
}
