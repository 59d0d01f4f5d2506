package behavior

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/zeusync/skilltree/internal/core/observability/log"
)

// Scheduler drives a set of started trees. TickAll runs on the caller's
// goroutine, usually once per simulation step.
type Scheduler struct {
	mu    sync.Mutex
	trees map[uuid.UUID]*Tree
	order []uuid.UUID
	log   log.Log
}

func NewScheduler(logger log.Log) *Scheduler {
	if logger == nil {
		logger = log.Nop()
	}
	return &Scheduler{trees: make(map[uuid.UUID]*Tree), log: logger.Named("scheduler")}
}

// Start starts t and registers it for ticking.
func (s *Scheduler) Start(t *Tree) {
	t.Start()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trees[t.ID()]; ok {
		return
	}
	s.trees[t.ID()] = t
	s.order = append(s.order, t.ID())
}

// Stop stops t and removes it from the schedule.
func (s *Scheduler) Stop(t *Tree) {
	t.Stop()
	s.mu.Lock()
	s.removeLocked(t.ID())
	s.mu.Unlock()
}

func (s *Scheduler) removeLocked(id uuid.UUID) {
	if _, ok := s.trees[id]; !ok {
		return
	}
	delete(s.trees, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// TickAll ticks every running tree once in registration order and returns
// how many were ticked. Trees stopped elsewhere are dropped. A tick error is
// logged and the tree stays scheduled.
func (s *Scheduler) TickAll() int {
	s.mu.Lock()
	trees := make([]*Tree, 0, len(s.order))
	for _, id := range s.order {
		trees = append(trees, s.trees[id])
	}
	s.mu.Unlock()

	ticked := 0
	for _, t := range trees {
		if !t.Running() {
			s.mu.Lock()
			s.removeLocked(t.ID())
			s.mu.Unlock()
			continue
		}
		_, err := t.Tick()
		if errors.Is(err, ErrNotRunning) {
			s.mu.Lock()
			s.removeLocked(t.ID())
			s.mu.Unlock()
			continue
		}
		if err != nil {
			s.log.Warn("tree tick failed",
				log.String("instance_id", t.ID().String()),
				log.Int64("tree_id", int64(t.TreeID())),
				log.Uint64("entity_id", uint64(t.Owner())),
				log.Error(err),
			)
		}
		ticked++
	}
	return ticked
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trees)
}
