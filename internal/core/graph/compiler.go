package graph

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/zeusync/skilltree/internal/core/ir"
	"github.com/zeusync/skilltree/internal/core/ir/store"
	"github.com/zeusync/skilltree/internal/core/observability/log"
	"github.com/zeusync/skilltree/pkg/concurrent"
)

var (
	ErrNoRootFound   = errors.New("graph has no root node")
	ErrDuplicateNode = errors.New("duplicate node key")
	ErrUnknownNode   = errors.New("link references unknown node")
	ErrNoPayload     = errors.New("node has no payload")
	ErrDuplicateTree = errors.New("duplicate tree id")
)

// IDAllocator hands out node ids for a single compilation.
type IDAllocator interface {
	Next() ir.NodeID
}

// SequentialAllocator counts up from 1.
type SequentialAllocator struct {
	last ir.NodeID
}

func (a *SequentialAllocator) Next() ir.NodeID {
	a.last++
	return a.last
}

type Option func(*Compiler)

// WithAllocator sets the allocator constructor. It is called once per
// compilation so compilations never share id state.
func WithAllocator(newAllocator func() IDAllocator) Option {
	return func(c *Compiler) { c.newAllocator = newAllocator }
}

func WithLogger(l log.Log) Option {
	return func(c *Compiler) { c.log = l.Named("graph") }
}

// Compiler turns graphs into tree definitions. It holds no per-compilation
// state and is safe for concurrent use.
type Compiler struct {
	newAllocator func() IDAllocator
	log          log.Log
}

func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		newAllocator: func() IDAllocator { return &SequentialAllocator{} },
		log:          log.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile builds a fresh definition from g. Ids follow descending Y, the
// root is the lowest node and children are ordered by ascending X; see the
// package documentation. Duplicate links to the same child are recorded once.
func (c *Compiler) Compile(g *Graph) (*ir.TreeDefinition, error) {
	if g == nil || len(g.Nodes) == 0 {
		return nil, ErrNoRootFound
	}

	byKey := make(map[string]*Node, len(g.Nodes))
	for _, n := range g.Nodes {
		if n == nil {
			return nil, fmt.Errorf("%w: nil node", ErrNoPayload)
		}
		if _, dup := byKey[n.Key]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNode, n.Key)
		}
		if n.Payload == nil {
			return nil, fmt.Errorf("%w: %q", ErrNoPayload, n.Key)
		}
		byKey[n.Key] = n
	}

	targets := make(map[string][]*Node, len(g.Nodes))
	for _, l := range g.Links {
		from, ok := byKey[l.From]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownNode, l.From)
		}
		to, ok := byKey[l.To]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownNode, l.To)
		}
		if slices.Contains(targets[from.Key], to) {
			continue
		}
		targets[from.Key] = append(targets[from.Key], to)
	}

	sorted := slices.Clone(g.Nodes)
	slices.SortStableFunc(sorted, func(a, b *Node) int {
		return cmp.Compare(b.Position.Y(), a.Position.Y())
	})

	alloc := c.newAllocator()
	ids := make(map[*Node]ir.NodeID, len(sorted))
	for _, n := range sorted {
		id := alloc.Next()
		ids[n] = id
	}

	def := ir.NewTreeDefinition(g.TreeID, g.Name)
	def.RootID = ids[sorted[len(sorted)-1]]
	for _, n := range sorted {
		children := slices.Clone(targets[n.Key])
		slices.SortStableFunc(children, func(a, b *Node) int {
			return cmp.Compare(a.Position.X(), b.Position.X())
		})
		linked := make([]ir.NodeID, 0, len(children))
		for _, ch := range children {
			linked = append(linked, ids[ch])
		}
		id := ids[n]
		if _, taken := def.Nodes[id]; taken {
			return nil, fmt.Errorf("allocator returned id %d twice", id)
		}
		def.Nodes[id] = &ir.NodeData{ID: id, Payload: ir.ClonePayload(n.Payload), LinkedIDs: linked}
	}
	maps.Copy(def.Blackboard, g.Blackboard)

	c.log.Debug("graph compiled",
		log.String("graph", g.Name),
		log.Int64("tree_id", int64(g.TreeID)),
		log.Int("nodes", len(def.Nodes)),
		log.Int64("root_id", int64(def.RootID)),
	)
	return def, nil
}

// CompileInto compiles g and publishes the result to st, replacing the
// previous definition of g.TreeID wholesale. Compilations targeting the same
// store are serialized. On error the store keeps its previous definition.
func (c *Compiler) CompileInto(g *Graph, st *store.Store) (*ir.TreeDefinition, error) {
	if g == nil {
		return nil, ErrNoRootFound
	}
	return st.Rebuild(g.TreeID, func() (*ir.TreeDefinition, error) {
		return c.Compile(g)
	})
}

// CompileAll compiles independent graphs in parallel, at most workers at a
// time, and gathers them into one document.
func (c *Compiler) CompileAll(ctx context.Context, graphs []*Graph, workers int) (*ir.Document, error) {
	seen := make(map[ir.TreeID]string, len(graphs))
	for _, g := range graphs {
		if g == nil {
			return nil, ErrNoRootFound
		}
		if prev, ok := seen[g.TreeID]; ok {
			return nil, fmt.Errorf("%w: %d (%q and %q)", ErrDuplicateTree, g.TreeID, prev, g.Name)
		}
		seen[g.TreeID] = g.Name
	}

	defs, err := concurrent.Map(ctx, graphs, workers, func(_ context.Context, g *Graph) (*ir.TreeDefinition, error) {
		def, err := c.Compile(g)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", g.Name, err)
		}
		return def, nil
	})
	if err != nil {
		return nil, err
	}

	doc := ir.NewDocument()
	for _, def := range defs {
		doc.Add(def)
	}
	return doc, nil
}
