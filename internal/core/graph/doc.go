// Package graph compiles author-time node graphs into tree definitions.
//
// Compilation follows a positional convention that is easy to break by
// accident when editing a graph:
//
//   - Nodes are ordered by descending Y (top of the canvas first) and get
//     their ids in that order.
//   - The root is the node placed lowest on the canvas, whatever its links
//     say. A node with incoming links still becomes the root if it is lowest.
//   - A node's children are ordered left to right by ascending X. That order
//     is the execution order of the children.
//
// Ties keep the order in which nodes (or links) appear in the graph.
package graph
