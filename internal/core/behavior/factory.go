package behavior

import (
	"errors"
	"fmt"

	bt "github.com/joeycumines/go-behaviortree"

	"github.com/zeusync/skilltree/internal/core/ir"
	"github.com/zeusync/skilltree/internal/core/models"
	"github.com/zeusync/skilltree/internal/core/observability/log"
)

// DefinitionSource resolves published tree definitions. *store.Store
// implements it.
type DefinitionSource interface {
	GetTreeDefinition(id ir.TreeID) *ir.TreeDefinition
}

// Host is the entity a tree instance is bound to.
type Host interface {
	ID() models.EntityID
	Blackboard() *models.Blackboard
	AttachTree(tree models.TreeHandle)
}

// MaxInstanceNodes caps the runtime nodes one instance may expand to. Shared
// children are copied per reference, so a small definition can exceed it.
const MaxInstanceNodes = 1 << 14

type Factory struct {
	defs    DefinitionSource
	actions *ActionRegistry
	log     log.Log
}

// NewFactory returns a factory reading definitions from defs. A nil actions
// registry means DefaultActions.
func NewFactory(defs DefinitionSource, actions *ActionRegistry, logger log.Log) *Factory {
	if actions == nil {
		actions = DefaultActions()
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Factory{defs: defs, actions: actions, log: logger.Named("behavior")}
}

func (f *Factory) Actions() *ActionRegistry { return f.actions }

// CreateInstance builds a new, independent tree for treeID, seeds the
// definition's initial blackboard values into host (keys the host already has
// are kept) and attaches the tree to host. On error nothing is attached and
// the host's blackboard is untouched.
//
// A node referenced by several parents is built once per reference. A link
// cycle, or an expansion past MaxInstanceNodes, is a broken definition.
func (f *Factory) CreateInstance(treeID ir.TreeID, host Host) (*Tree, error) {
	if host == nil {
		return nil, ErrNilHost
	}
	def := f.defs.GetTreeDefinition(treeID)
	if def == nil {
		return nil, fmt.Errorf("%w: tree %d", ErrDefinitionNotFound, treeID)
	}

	b := &builder{
		def:     def,
		host:    host,
		actions: f.actions,
		log:     f.log.With(log.Int64("tree_id", int64(treeID)), log.Uint64("entity_id", uint64(host.ID()))),
		onPath:  make(map[ir.NodeID]bool),
	}
	root, err := b.build(def.RootID)
	if err != nil {
		return nil, fmt.Errorf("%w: tree %d: %w", ErrBrokenDefinition, treeID, err)
	}

	bb := host.Blackboard()
	for key, v := range def.Blackboard {
		bb.SetIfAbsent(key, v.Any())
	}

	tree := newTree(treeID, host.ID(), root, f.log)
	host.AttachTree(tree)
	f.log.Debug("tree instance created",
		log.String("instance_id", tree.ID().String()),
		log.Int64("tree_id", int64(treeID)),
		log.Uint64("entity_id", uint64(host.ID())),
		log.Int("nodes", b.built),
	)
	return tree, nil
}

type builder struct {
	def     *ir.TreeDefinition
	host    Host
	actions *ActionRegistry
	log     log.Log
	onPath  map[ir.NodeID]bool
	built   int
}

func (b *builder) build(id ir.NodeID) (bt.Node, error) {
	nd, ok := b.def.Nodes[id]
	if !ok || nd == nil {
		return nil, fmt.Errorf("node %d: %w", id, ir.ErrDanglingLink)
	}
	if b.onPath[id] {
		return nil, fmt.Errorf("node %d: link cycle", id)
	}
	if b.built >= MaxInstanceNodes {
		return nil, fmt.Errorf("node %d: %w: more than %d", id, ErrTreeTooLarge, MaxInstanceNodes)
	}
	b.built++
	b.onPath[id] = true
	defer delete(b.onPath, id)

	children := make([]bt.Node, 0, len(nd.LinkedIDs))
	for _, cid := range nd.LinkedIDs {
		child, err := b.build(cid)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	tick, err := b.tick(nd)
	if err != nil {
		return nil, fmt.Errorf("node %d: %w", id, err)
	}
	return bt.New(tick, children...), nil
}

func (b *builder) tick(nd *ir.NodeData) (bt.Tick, error) {
	arity := len(nd.LinkedIDs)
	switch p := nd.Payload.(type) {
	case nil:
		return nil, ir.ErrPayloadAbsent
	case ir.SequencePayload:
		return compositeTick(bt.Sequence, p.Memory), nil
	case ir.SelectorPayload:
		return compositeTick(bt.Selector, p.Memory), nil
	case ir.ParallelPayload:
		return parallelTick(p.Policy)
	case ir.InverterPayload:
		if arity != 1 {
			return nil, childCountError(nd, 1)
		}
		return inverterTick(), nil
	case ir.RepeaterPayload:
		if arity != 1 {
			return nil, childCountError(nd, 1)
		}
		return repeatTick(p), nil
	case ir.WaitPayload:
		if arity != 0 {
			return nil, childCountError(nd, 0)
		}
		return waitTick(p.Ticks), nil
	case ir.ConditionPayload:
		if arity != 0 {
			return nil, childCountError(nd, 0)
		}
		return conditionTick(b.host.Blackboard(), p)
	case ir.ActionPayload:
		if arity != 0 {
			return nil, childCountError(nd, 0)
		}
		fn, err := b.actions.New(p.Name, p.Params)
		if err != nil {
			return nil, err
		}
		ac := &ActionContext{
			Host:       b.host,
			Blackboard: b.host.Blackboard(),
			Log:        b.log,
			TreeID:     b.def.ID,
			NodeID:     nd.ID,
		}
		return actionTick(fn, ac), nil
	case ir.UnknownPayload:
		return nil, fmt.Errorf("%w: tag %d", ErrUnknownNodeType, p.Tag)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownNodeType, p)
	}
}

var errChildCount = errors.New("wrong child count")

func childCountError(nd *ir.NodeData, want int) error {
	return fmt.Errorf("%w: %s has %d children, want %d", errChildCount, nd.Type(), len(nd.LinkedIDs), want)
}
