package skill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/skilltree/internal/core/behavior"
	"github.com/zeusync/skilltree/internal/core/events/bus"
	"github.com/zeusync/skilltree/internal/core/ir"
	"github.com/zeusync/skilltree/internal/core/models"
	"github.com/zeusync/skilltree/internal/core/observability/log"
	"github.com/zeusync/skilltree/internal/core/systems/physics"
)

// EventCreateCollider is the bus event type carrying a SpawnRequest.
const EventCreateCollider = "skill.create_collider"

var ErrOwnerNotFound = errors.New("owner entity not found")

// SpawnRequest asks for the collider of skill node NodeID on carrier
// CarrierID to be spawned for OwnerID and driven by tree TreeID.
type SpawnRequest struct {
	OwnerID   models.EntityID
	CarrierID int64
	NodeID    int64
	TreeID    ir.TreeID
}

type InstanceFactory interface {
	CreateInstance(treeID ir.TreeID, host behavior.Host) (*behavior.Tree, error)
}

// TreeStarter starts a freshly created tree. *behavior.Scheduler implements it.
type TreeStarter interface {
	Start(tree *behavior.Tree)
}

type Deps struct {
	Units     *models.Registry
	Colliders ColliderProvider
	World     physics.World
	Factory   InstanceFactory
	// Starter is optional; without it the tree is started directly and
	// must be ticked by the caller.
	Starter TreeStarter
}

type Option func(*Handler)

// WithDebug enables debug visuals for spawned colliders. A ttl <= 0 means
// DefaultDebugTTL.
func WithDebug(b Broadcaster, ttl time.Duration) Option {
	return func(h *Handler) {
		if ttl <= 0 {
			ttl = DefaultDebugTTL
		}
		h.debug = b
		h.debugTTL = ttl
	}
}

func WithLogger(l log.Log) Option {
	return func(h *Handler) { h.log = l.Named("skill") }
}

// Handler spawns skill colliders and binds their behavior trees.
type Handler struct {
	deps     Deps
	debug    Broadcaster
	debugTTL time.Duration
	log      log.Log
}

func NewHandler(deps Deps, opts ...Option) *Handler {
	h := &Handler{deps: deps, debugTTL: DefaultDebugTTL, log: log.Nop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OnSpawnRequest creates the collider entity at the owner's transform, syncs
// its body into the physics world, emits debug visuals when enabled, then
// creates and starts the tree bound to the collider.
//
// If the body cannot be synced the collider is removed again. If the tree
// cannot be created the collider stays in the world without a tree and the
// error is returned.
func (h *Handler) OnSpawnRequest(ctx context.Context, req SpawnRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	owner, ok := h.deps.Units.Get(req.OwnerID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrOwnerNotFound, req.OwnerID)
	}

	collider, err := h.deps.Colliders.CreateCollider(owner, req.CarrierID, req.NodeID)
	if err != nil {
		return fmt.Errorf("create collider: %w", err)
	}
	if body := collider.Body(); body != nil {
		if err := h.deps.World.SyncBody(body); err != nil {
			h.deps.Units.Remove(collider.ID())
			return fmt.Errorf("sync collider body: %w", err)
		}
		if h.debug != nil {
			h.broadcastFixtures(owner.ID(), body)
		}
	}

	tree, err := h.deps.Factory.CreateInstance(req.TreeID, collider)
	if err != nil {
		h.log.Warn("collider spawned without tree",
			log.Uint64("owner_id", uint64(req.OwnerID)),
			log.Uint64("collider_id", uint64(collider.ID())),
			log.Int64("tree_id", int64(req.TreeID)),
			log.Error(err),
		)
		return fmt.Errorf("create tree: %w", err)
	}
	if h.deps.Starter != nil {
		h.deps.Starter.Start(tree)
	} else {
		tree.Start()
	}

	h.log.Debug("collider spawned",
		log.Uint64("owner_id", uint64(req.OwnerID)),
		log.Uint64("collider_id", uint64(collider.ID())),
		log.Int64("carrier_id", req.CarrierID),
		log.Int64("node_id", req.NodeID),
		log.Int64("tree_id", int64(req.TreeID)),
		log.String("instance_id", tree.ID().String()),
	)
	return nil
}

// broadcastFixtures sends one message per supported fixture. Unsupported
// shapes and send failures skip that fixture only.
func (h *Handler) broadcastFixtures(owner models.EntityID, body *physics.Body) {
	ttl := h.debugTTL.Milliseconds()
	for _, f := range body.Fixtures() {
		var msg DebugMessage
		switch s := f.Shape.(type) {
		case physics.PolygonShape:
			verts := make([]mgl64.Vec2, 0, len(s.Vertices))
			for _, v := range s.Vertices {
				verts = append(verts, body.WorldPoint(v))
			}
			msg = DebugPolygon{EntityID: owner, TTLMillis: ttl, Vertices: verts}
		case physics.CircleShape:
			msg = DebugCircle{EntityID: owner, TTLMillis: ttl, Radius: s.Radius, Center: body.WorldPoint(s.Center)}
		default:
			h.log.Debug("debug shape unsupported", log.String("shape", shapeName(f.Shape)))
			continue
		}
		if err := h.debug.Broadcast(msg); err != nil {
			h.log.Warn("debug broadcast failed", log.String("kind", msg.Kind()), log.Error(err))
		}
	}
}

func shapeName(s physics.Shape) string {
	if s == nil {
		return "nil"
	}
	return s.Type().String()
}

// Subscribe consumes EventCreateCollider events from b. Failed spawns are
// logged and never reported back to the publisher.
func (h *Handler) Subscribe(b bus.EventBus) (bus.Subscription, error) {
	return b.Subscribe(EventCreateCollider, bus.Handle(func(req SpawnRequest) error {
		if err := h.OnSpawnRequest(context.Background(), req); err != nil {
			h.log.Warn("spawn request failed",
				log.Uint64("owner_id", uint64(req.OwnerID)),
				log.Int64("tree_id", int64(req.TreeID)),
				log.Error(err),
			)
		}
		return nil
	}))
}

// NewSpawnEvent wraps req for publication on the bus.
func NewSpawnEvent(source string, req SpawnRequest) bus.Event {
	return bus.NewEvent(EventCreateCollider, source, req, nil)
}
