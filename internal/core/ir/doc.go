// Package ir holds the canonical intermediate representation of compiled
// behavior trees: id-linked node records grouped into tree definitions and
// documents. The graph compiler produces it, the codec persists it and the
// runtime factory rebuilds executable trees from it.
//
// A TreeDefinition is immutable once published. Consumers read it and never
// patch it; a change means recompiling and replacing it wholesale.
package ir
