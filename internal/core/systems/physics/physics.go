package physics

import (
	"errors"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrUnknownBody = errors.New("physics: body not in world")

// Transform places a body: translation plus rotation in radians.
type Transform struct {
	Position mgl64.Vec2
	Angle    float64
}

// Apply maps a body-local point into world space.
func (t Transform) Apply(local mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Rotate2D(t.Angle).Mul2x1(local).Add(t.Position)
}

type BodyID uint64

type BodyDef struct {
	Transform Transform
	Fixtures  []Fixture
	// UserData is the id of the entity owning the body.
	UserData uint64
}

type Body struct {
	id        BodyID
	mu        sync.RWMutex
	transform Transform
	fixtures  []*Fixture
	userData  uint64
	synced    bool
}

func (b *Body) ID() BodyID       { return b.id }
func (b *Body) UserData() uint64 { return b.userData }

func (b *Body) Transform() Transform {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.transform
}

// SetTransform moves the body. The world sees the change after the next sync.
func (b *Body) SetTransform(t Transform) {
	b.mu.Lock()
	b.transform = t
	b.synced = false
	b.mu.Unlock()
}

// Synced reports whether the body's current state has been pushed to the world.
func (b *Body) Synced() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.synced
}

func (b *Body) Fixtures() []*Fixture {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Fixture, len(b.fixtures))
	copy(out, b.fixtures)
	return out
}

// WorldPoint maps a body-local point into world space.
func (b *Body) WorldPoint(local mgl64.Vec2) mgl64.Vec2 {
	return b.Transform().Apply(local)
}

// MemoryWorld is an in-process World that tracks bodies and sync state. It
// does no collision detection.
type MemoryWorld struct {
	mu     sync.Mutex
	nextID BodyID
	bodies map[BodyID]*Body
	syncs  uint64
}

func NewMemoryWorld() *MemoryWorld {
	return &MemoryWorld{bodies: make(map[BodyID]*Body)}
}

func (w *MemoryWorld) CreateBody(def BodyDef) *Body {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	b := &Body{id: w.nextID, transform: def.Transform, userData: def.UserData}
	for i := range def.Fixtures {
		f := def.Fixtures[i]
		b.fixtures = append(b.fixtures, &f)
	}
	w.bodies[b.id] = b
	return b
}

func (w *MemoryWorld) SyncBody(b *Body) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.bodies[b.id]; !ok {
		return ErrUnknownBody
	}
	b.mu.Lock()
	b.synced = true
	b.mu.Unlock()
	w.syncs++
	return nil
}

func (w *MemoryWorld) DestroyBody(b *Body) {
	w.mu.Lock()
	delete(w.bodies, b.id)
	w.mu.Unlock()
}

// BodyCount returns the number of live bodies.
func (w *MemoryWorld) BodyCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.bodies)
}

// SyncCount returns how many syncs the world has performed.
func (w *MemoryWorld) SyncCount() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.syncs
}
