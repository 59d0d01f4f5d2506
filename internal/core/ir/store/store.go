// Package store indexes compiled tree definitions for lookup at run time.
//
// Reads are lock-free: the store publishes immutable snapshots through an
// atomic pointer, and writers (compilation, loading) are serialized and swap
// in a new snapshot when done. A definition is never patched in place.
package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zeusync/skilltree/internal/core/ir"
	"github.com/zeusync/skilltree/internal/core/ir/codec"
	"github.com/zeusync/skilltree/internal/core/observability/log"
	"github.com/zeusync/skilltree/pkg/concurrent"
)

var ErrNodeNotFound = errors.New("node not found")

type snapshot map[ir.TreeID]*ir.TreeDefinition

// Store is the NodeDataStore. The zero value is not usable; call New.
type Store struct {
	writeMu sync.Mutex
	current atomic.Pointer[snapshot]
	log     log.Log
}

func New(logger log.Log) *Store {
	if logger == nil {
		logger = log.Nop()
	}
	s := &Store{log: logger.Named("store")}
	empty := make(snapshot)
	s.current.Store(&empty)
	return s
}

func (s *Store) load() snapshot { return *s.current.Load() }

// GetTreeDefinition returns the definition for treeID, or nil when absent.
func (s *Store) GetTreeDefinition(treeID ir.TreeID) *ir.TreeDefinition {
	return s.load()[treeID]
}

// GetNodeByExactID looks targetID up as a key in the node map of treeID.
//
// The two levels fail differently, and callers depend on it: an unknown
// treeID yields (nil, nil), while an unknown targetID inside a known tree
// yields ErrNodeNotFound.
func (s *Store) GetNodeByExactID(treeID ir.TreeID, targetID ir.NodeID) (*ir.NodeData, error) {
	def := s.GetTreeDefinition(treeID)
	if def == nil {
		return nil, nil
	}
	n, ok := def.Nodes[targetID]
	if !ok {
		return nil, fmt.Errorf("tree %d: %w: %d", treeID, ErrNodeNotFound, targetID)
	}
	return n, nil
}

// GetNodeDataByPreID is GetNodeByExactID under its historical name. Despite
// the name it does not walk to a predecessor: preID is the key looked up.
func (s *Store) GetNodeDataByPreID(treeID ir.TreeID, preID ir.NodeID) (*ir.NodeData, error) {
	return s.GetNodeByExactID(treeID, preID)
}

// GetNodeDataByNextID is GetNodeByExactID under its historical name. Despite
// the name it does not walk to a successor: nextID is the key looked up.
func (s *Store) GetNodeDataByNextID(treeID ir.TreeID, nextID ir.NodeID) (*ir.NodeData, error) {
	return s.GetNodeByExactID(treeID, nextID)
}

// TreeIDs lists the published trees in ascending order.
func (s *Store) TreeIDs() []ir.TreeID {
	return slices.Sorted(maps.Keys(s.load()))
}

// Document returns every published tree as one document, ready to encode.
// Definitions are shared, not copied; they are immutable.
func (s *Store) Document() *ir.Document {
	doc := ir.NewDocument()
	for _, def := range s.load() {
		doc.Add(def)
	}
	return doc
}

// Publish replaces the definition stored under def.ID.
func (s *Store) Publish(def *ir.TreeDefinition) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.swapLocked(def)
}

// Rebuild holds the writer lock while build produces a fresh definition for
// treeID, then publishes it. Concurrent rebuilds are serialized. On error the
// previous definition stays published.
func (s *Store) Rebuild(treeID ir.TreeID, build func() (*ir.TreeDefinition, error)) (*ir.TreeDefinition, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	def, err := build()
	if err != nil {
		return nil, err
	}
	if def.ID != treeID {
		return nil, fmt.Errorf("rebuild of tree %d produced tree %d", treeID, def.ID)
	}
	s.swapLocked(def)
	return def, nil
}

// LoadDocument publishes every tree of doc in a single swap.
func (s *Store) LoadDocument(doc *ir.Document) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.swapLocked(slices.Collect(maps.Values(doc.Trees))...)
}

// LoadDir decodes every *.bytes file under dir in parallel and publishes them
// together. Nothing is published if any file fails to load.
func (s *Store) LoadDir(ctx context.Context, dir string, workers int) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("store: read dir %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), codec.FileExt) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}

	docs, err := concurrent.Map(ctx, paths, workers, func(_ context.Context, path string) (*ir.Document, error) {
		return codec.ReadFile(path)
	})
	if err != nil {
		return 0, fmt.Errorf("store: %w", err)
	}

	var defs []*ir.TreeDefinition
	for _, doc := range docs {
		for _, def := range doc.Trees {
			defs = append(defs, def)
		}
	}

	s.writeMu.Lock()
	s.swapLocked(defs...)
	s.writeMu.Unlock()

	s.log.Info("loaded tree definitions", log.String("dir", dir), log.Int("files", len(paths)), log.Int("trees", len(defs)))
	return len(defs), nil
}

func (s *Store) swapLocked(defs ...*ir.TreeDefinition) {
	next := maps.Clone(s.load())
	for _, def := range defs {
		next[def.ID] = def
	}
	s.current.Store(&next)
}
