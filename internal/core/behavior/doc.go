// Package behavior turns compiled tree definitions into executable per-entity
// behavior trees.
//
// A Factory reads definitions from a DefinitionSource (usually the ir store),
// builds a fresh go-behaviortree node graph for each instance and binds it to
// a Host entity. Mutable node state such as wait and repeat counters lives in
// the closures of that graph, so two instances of the same definition never
// share anything. Trees are ticked cooperatively on the caller's goroutine,
// typically by a Scheduler driven from the simulation loop.
package behavior
