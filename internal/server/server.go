package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeusync/skilltree/internal/config"
	"github.com/zeusync/skilltree/internal/core/behavior"
	"github.com/zeusync/skilltree/internal/core/events/bus"
	"github.com/zeusync/skilltree/internal/core/ir/store"
	"github.com/zeusync/skilltree/internal/core/models"
	"github.com/zeusync/skilltree/internal/core/observability/log"
	"github.com/zeusync/skilltree/internal/core/skill"
	"github.com/zeusync/skilltree/internal/core/systems/physics"
	"github.com/zeusync/skilltree/internal/server/debugws"
)

const spawnQueueSize = 256

// Server hosts the simulation: it loads compiled trees and colliders, turns
// spawn requests into collider entities and ticks their trees on a single
// simulation goroutine.
type Server struct {
	cfg       *config.Config
	logger    log.Log
	store     *store.Store
	units     *models.Registry
	events    bus.EventBus
	scheduler *behavior.Scheduler
	catalog   *skill.Catalog
	spawner   *skill.Handler
	debug     *debugws.Server

	spawns chan skill.SpawnRequest
	sub    bus.Subscription

	running atomic.Bool
	closed  atomic.Bool
	ticks   atomic.Uint64
	removed atomic.Uint64

	workerGroup sync.WaitGroup
	stopChan    chan struct{}
}

// Components groups the collaborators a Server is built from.
type Components struct {
	Store     *store.Store
	Units     *models.Registry
	Events    bus.EventBus
	Scheduler *behavior.Scheduler
	Catalog   *skill.Catalog
	Spawner   *skill.Handler
	Hub       *debugws.Hub
}

func New(cfg *config.Config, logger log.Log, c Components) *Server {
	s := &Server{
		cfg:       cfg,
		logger:    logger.Named("server"),
		store:     c.Store,
		units:     c.Units,
		events:    c.Events,
		scheduler: c.Scheduler,
		catalog:   c.Catalog,
		spawner:   c.Spawner,
		spawns:    make(chan skill.SpawnRequest, spawnQueueSize),
	}
	if cfg.Debug.Enabled {
		s.debug = debugws.NewServer(cfg.Debug.Listen, c.Hub, logger)
	}
	return s
}

// Start loads assets, subscribes the spawn handler and starts the
// simulation loop.
func (s *Server) Start(ctx context.Context) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}
	if err := s.start(ctx); err != nil {
		s.running.Store(false)
		return err
	}
	return nil
}

func (s *Server) start(ctx context.Context) error {
	if path := s.cfg.Assets.Colliders; path != "" {
		if err := s.catalog.LoadFile(path); err != nil {
			return fmt.Errorf("load colliders: %w", err)
		}
	}
	n, err := s.store.LoadDir(ctx, s.cfg.Assets.Dir, s.cfg.Assets.Workers)
	if err != nil {
		return fmt.Errorf("load trees: %w", err)
	}
	s.logger.Info("assets loaded",
		log.Int("files", n),
		log.Int("trees", len(s.store.TreeIDs())),
		log.Int("colliders", s.catalog.Len()),
	)

	sub, err := s.spawner.Subscribe(s.events)
	if err != nil {
		return fmt.Errorf("subscribe spawner: %w", err)
	}
	s.sub = sub

	if s.debug != nil {
		if _, err := s.debug.Start(); err != nil {
			_ = sub.Cancel()
			return fmt.Errorf("start debug server: %w", err)
		}
	}

	s.stopChan = make(chan struct{})
	s.workerGroup.Add(1)
	go func() {
		defer s.workerGroup.Done()
		s.simulate()
	}()
	s.logger.Info("server started", log.Duration("tick_interval", s.cfg.Simulation.TickInterval))
	return nil
}

// Stop halts the simulation loop, unsubscribes the spawner and shuts the
// debug server down. Units and their trees are kept.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return ErrServerNotRunning
	}
	close(s.stopChan)
	s.workerGroup.Wait()

	var errs error
	if s.sub != nil {
		errs = errors.Join(errs, s.sub.Cancel())
	}
	if s.debug != nil {
		errs = errors.Join(errs, s.debug.Stop(ctx))
	}
	s.logger.Info("server stopped", log.Uint64("ticks", s.ticks.Load()))
	return errs
}

// Close stops the server if needed and prevents restarts.
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.running.Load() {
		return s.Stop(context.Background())
	}
	return nil
}

// SpawnUnit adds an entity able to own skill colliders.
func (s *Server) SpawnUnit(name string, t physics.Transform) *models.Unit {
	return s.units.Create(name, t)
}

// Spawn queues req for the next simulation step.
func (s *Server) Spawn(req skill.SpawnRequest) error {
	select {
	case s.spawns <- req:
		return nil
	default:
		return ErrSpawnQueueFull
	}
}

func (s *Server) simulate() {
	ticker := time.NewTicker(s.cfg.Simulation.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Step()
		case <-s.stopChan:
			return
		}
	}
}

// Step runs one simulation step: queued spawns are published to the bus,
// every started tree is ticked once and units flagged for despawn are
// removed. It must not run concurrently with itself.
func (s *Server) Step() int {
	for drained := false; !drained; {
		select {
		case req := <-s.spawns:
			if err := s.events.Publish(skill.NewSpawnEvent("server", req)); err != nil {
				s.logger.Warn("spawn event failed", log.Error(err))
			}
		default:
			drained = true
		}
	}

	ticked := s.scheduler.TickAll()

	for _, id := range s.units.IDs() {
		u, ok := s.units.Get(id)
		if !ok {
			continue
		}
		if v, ok := u.Blackboard().Get(behavior.DespawnKey); ok && v == true {
			s.units.Remove(id)
			s.removed.Add(1)
		}
	}
	s.ticks.Add(1)
	return ticked
}

type Stats struct {
	Ticks     uint64
	Units     int
	Trees     int
	Despawned uint64
	Running   bool
}

func (s *Server) GetStats() Stats {
	return Stats{
		Ticks:     s.ticks.Load(),
		Units:     s.units.Len(),
		Trees:     s.scheduler.Len(),
		Despawned: s.removed.Load(),
		Running:   s.running.Load(),
	}
}
