package models

import (
	"sync"

	"github.com/zeusync/skilltree/internal/core/systems/physics"
)

type EntityID uint64

// TreeHandle is the part of a running behavior tree an entity needs to own it.
type TreeHandle interface {
	Stop()
}

// Unit is a simulated entity: a transform, a blackboard, an optional physics
// body and at most one attached behavior tree.
type Unit struct {
	id   EntityID
	name string
	bb   *Blackboard

	mu        sync.RWMutex
	transform physics.Transform
	body      *physics.Body
	tree      TreeHandle
}

func NewUnit(id EntityID, name string, t physics.Transform) *Unit {
	return &Unit{id: id, name: name, transform: t, bb: NewBlackboard()}
}

func (u *Unit) ID() EntityID            { return u.id }
func (u *Unit) Name() string            { return u.name }
func (u *Unit) Blackboard() *Blackboard { return u.bb }

// Transform returns the body's transform when one is attached.
func (u *Unit) Transform() physics.Transform {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.body != nil {
		return u.body.Transform()
	}
	return u.transform
}

func (u *Unit) SetTransform(t physics.Transform) {
	u.mu.Lock()
	u.transform = t
	body := u.body
	u.mu.Unlock()
	if body != nil {
		body.SetTransform(t)
	}
}

func (u *Unit) Body() *physics.Body {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.body
}

func (u *Unit) SetBody(b *physics.Body) {
	u.mu.Lock()
	u.body = b
	u.mu.Unlock()
}

// AttachTree binds tree to the unit, stopping any tree attached before.
func (u *Unit) AttachTree(tree TreeHandle) {
	u.mu.Lock()
	prev := u.tree
	u.tree = tree
	u.mu.Unlock()
	if prev != nil && prev != tree {
		prev.Stop()
	}
}

func (u *Unit) Tree() TreeHandle {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.tree
}

func (u *Unit) detach() (TreeHandle, *physics.Body) {
	u.mu.Lock()
	defer u.mu.Unlock()
	t, b := u.tree, u.body
	u.tree, u.body = nil, nil
	return t, b
}
