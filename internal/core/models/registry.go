package models

import (
	"sort"
	"sync"

	"github.com/zeusync/skilltree/internal/core/systems/physics"
)

// Registry owns the live units of a simulation.
type Registry struct {
	mu     sync.RWMutex
	nextID EntityID
	units  map[EntityID]*Unit
	world  physics.World
}

// NewRegistry creates an empty registry. When world is non-nil, removing a
// unit destroys its body there.
func NewRegistry(world physics.World) *Registry {
	return &Registry{units: make(map[EntityID]*Unit), world: world}
}

func (r *Registry) Create(name string, t physics.Transform) *Unit {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	u := NewUnit(r.nextID, name, t)
	r.units[u.id] = u
	return u
}

func (r *Registry) Get(id EntityID) (*Unit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.units[id]
	return u, ok
}

// Remove deletes the unit, stops its tree and destroys its body.
func (r *Registry) Remove(id EntityID) bool {
	r.mu.Lock()
	u, ok := r.units[id]
	delete(r.units, id)
	r.mu.Unlock()
	if !ok {
		return false
	}
	tree, body := u.detach()
	if tree != nil {
		tree.Stop()
	}
	if body != nil && r.world != nil {
		r.world.DestroyBody(body)
	}
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.units)
}

// IDs returns live unit ids in ascending order.
func (r *Registry) IDs() []EntityID {
	r.mu.RLock()
	ids := make([]EntityID, 0, len(r.units))
	for id := range r.units {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
