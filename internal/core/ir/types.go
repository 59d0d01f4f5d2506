package ir

import (
	"errors"
	"fmt"
)

// FormatVersion is written into every encoded document. Readers accept newer
// versions and skip the fields they do not know.
const FormatVersion uint32 = 1

type (
	TreeID int64
	NodeID int64
)

var (
	ErrRootMissing   = errors.New("root node missing")
	ErrDanglingLink  = errors.New("linked node missing")
	ErrIDMismatch    = errors.New("node id does not match its key")
	ErrPayloadAbsent = errors.New("node has no payload")
)

// NodeData is a single node definition. LinkedIDs is ordered: it is the
// execution order of the node's children.
type NodeData struct {
	ID        NodeID
	Payload   Payload
	LinkedIDs []NodeID
}

// Type returns the payload's tag, or NodeTypeInvalid when there is no payload.
func (n *NodeData) Type() NodeType {
	if n == nil || n.Payload == nil {
		return NodeTypeInvalid
	}
	return n.Payload.Type()
}

// TreeDefinition is one compiled tree: its nodes keyed by id, the root and the
// initial blackboard values every instance starts with.
type TreeDefinition struct {
	ID         TreeID
	Name       string
	RootID     NodeID
	Nodes      map[NodeID]*NodeData
	Blackboard map[string]Value
}

// NewTreeDefinition returns an empty definition ready to be filled.
func NewTreeDefinition(id TreeID, name string) *TreeDefinition {
	return &TreeDefinition{
		ID:         id,
		Name:       name,
		Nodes:      make(map[NodeID]*NodeData),
		Blackboard: make(map[string]Value),
	}
}

// Node returns the node stored under id.
func (d *TreeDefinition) Node(id NodeID) (*NodeData, bool) {
	n, ok := d.Nodes[id]
	return n, ok
}

// Validate checks the structural invariants: the root exists, every node is
// stored under its own id, carries a payload, and links only to nodes of this
// definition.
func (d *TreeDefinition) Validate() error {
	if _, ok := d.Nodes[d.RootID]; !ok {
		return fmt.Errorf("tree %d: %w: %d", d.ID, ErrRootMissing, d.RootID)
	}
	for key, n := range d.Nodes {
		if n == nil || n.ID != key {
			return fmt.Errorf("tree %d: %w: key %d", d.ID, ErrIDMismatch, key)
		}
		if n.Payload == nil {
			return fmt.Errorf("tree %d: node %d: %w", d.ID, key, ErrPayloadAbsent)
		}
		for _, linked := range n.LinkedIDs {
			if _, ok := d.Nodes[linked]; !ok {
				return fmt.Errorf("tree %d: node %d: %w: %d", d.ID, key, ErrDanglingLink, linked)
			}
		}
	}
	return nil
}

// Document is the unit of persistence: every tree stored in one file.
type Document struct {
	Version uint32
	Trees   map[TreeID]*TreeDefinition
}

func NewDocument() *Document {
	return &Document{Version: FormatVersion, Trees: make(map[TreeID]*TreeDefinition)}
}

// Add stores def under its id, replacing any previous definition.
func (doc *Document) Add(def *TreeDefinition) {
	if doc.Trees == nil {
		doc.Trees = make(map[TreeID]*TreeDefinition)
	}
	doc.Trees[def.ID] = def
}
