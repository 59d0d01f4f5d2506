package graph

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/skilltree/internal/core/ir"
)

// Graph is an author-time tree: placed nodes plus links between them.
type Graph struct {
	Name       string
	TreeID     ir.TreeID
	Nodes      []*Node
	Links      []Link
	Blackboard map[string]ir.Value
}

// Node is a placed node. Key identifies it within its graph only.
type Node struct {
	Key      string
	Position mgl64.Vec2
	Payload  ir.Payload
}

// Link connects From's output port to To.
type Link struct {
	From string
	To   string
}

// AddNode appends a node placed at (x, y) and returns it.
func (g *Graph) AddNode(key string, x, y float64, p ir.Payload) *Node {
	n := &Node{Key: key, Position: mgl64.Vec2{x, y}, Payload: p}
	g.Nodes = append(g.Nodes, n)
	return n
}

// Connect links from to each of to.
func (g *Graph) Connect(from string, to ...string) {
	for _, t := range to {
		g.Links = append(g.Links, Link{From: from, To: t})
	}
}
