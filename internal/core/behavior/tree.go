package behavior

import (
	"sync"

	"github.com/google/uuid"
	bt "github.com/joeycumines/go-behaviortree"

	"github.com/zeusync/skilltree/internal/core/ir"
	"github.com/zeusync/skilltree/internal/core/models"
	"github.com/zeusync/skilltree/internal/core/observability/log"
)

// Tree is one executable instance of a tree definition bound to an entity.
// Ticks are ignored until Start. A root that completed (Success or Failure)
// starts over on the next tick.
type Tree struct {
	id     uuid.UUID
	treeID ir.TreeID
	owner  models.EntityID
	log    log.Log

	mu      sync.Mutex
	root    bt.Node
	started bool
	last    bt.Status
	ticks   uint64
}

func newTree(treeID ir.TreeID, owner models.EntityID, root bt.Node, logger log.Log) *Tree {
	return &Tree{
		id:     uuid.New(),
		treeID: treeID,
		owner:  owner,
		root:   root,
		log:    logger,
	}
}

func (t *Tree) ID() uuid.UUID          { return t.id }
func (t *Tree) TreeID() ir.TreeID      { return t.treeID }
func (t *Tree) Owner() models.EntityID { return t.owner }

// Start enables ticking. Starting a stopped tree has no effect.
func (t *Tree) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.root != nil {
		t.started = true
	}
}

// Stop halts the tree and releases its node graph. Call it between ticks.
func (t *Tree) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = false
	t.root = nil
}

func (t *Tree) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started
}

// LastStatus returns the status of the most recent tick.
func (t *Tree) LastStatus() bt.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// Ticks returns how many ticks the tree has executed.
func (t *Tree) Ticks() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticks
}

// Tick advances the tree one step on the caller's goroutine.
func (t *Tree) Tick() (bt.Status, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started || t.root == nil {
		return t.last, ErrNotRunning
	}
	st, err := t.root.Tick()
	t.last = st
	t.ticks++
	return st, err
}
