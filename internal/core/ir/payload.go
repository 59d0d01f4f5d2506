package ir

import (
	"fmt"
	"maps"
	"slices"
)

// NodeType is the discriminator that selects a node's runtime variant. The
// numeric values are part of the persisted format and must never be reused.
type NodeType uint32

const (
	NodeTypeInvalid NodeType = iota
	NodeTypeSequence
	NodeTypeSelector
	NodeTypeParallel
	NodeTypeInverter
	NodeTypeRepeater
	NodeTypeAction
	NodeTypeCondition
	NodeTypeWait
)

var nodeTypeNames = map[NodeType]string{
	NodeTypeSequence:  "sequence",
	NodeTypeSelector:  "selector",
	NodeTypeParallel:  "parallel",
	NodeTypeInverter:  "inverter",
	NodeTypeRepeater:  "repeater",
	NodeTypeAction:    "action",
	NodeTypeCondition: "condition",
	NodeTypeWait:      "wait",
}

func (t NodeType) String() string {
	if s, ok := nodeTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("node_type(%d)", uint32(t))
}

// Known reports whether this build understands the tag.
func (t NodeType) Known() bool {
	_, ok := nodeTypeNames[t]
	return ok
}

// ParseNodeType is the inverse of String for known tags.
func ParseNodeType(s string) (NodeType, bool) {
	for t, name := range nodeTypeNames {
		if name == s {
			return t, true
		}
	}
	return NodeTypeInvalid, false
}

// Payload is the closed set of node variants. Each variant reports its tag.
type Payload interface {
	Type() NodeType
	payload()
}

type ParallelPolicy uint8

const (
	// RequireAll succeeds once every child succeeded.
	RequireAll ParallelPolicy = iota
	// RequireOne succeeds as soon as one child succeeded.
	RequireOne
)

type CompareOp uint8

const (
	OpEq CompareOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpExists
)

var compareOpNames = []string{"eq", "ne", "lt", "le", "gt", "ge", "exists"}

func (o CompareOp) String() string {
	if int(o) < len(compareOpNames) {
		return compareOpNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

func ParseCompareOp(s string) (CompareOp, bool) {
	for i, name := range compareOpNames {
		if name == s {
			return CompareOp(i), true
		}
	}
	return OpEq, false
}

// SequencePayload ticks children in order until one fails. With Memory set a
// running child is resumed on the next tick instead of restarting from the
// first child.
type SequencePayload struct {
	Memory bool
}

// SelectorPayload ticks children in order until one succeeds.
type SelectorPayload struct {
	Memory bool
}

// ParallelPayload ticks every child each tick and folds the results by Policy.
type ParallelPayload struct {
	Policy ParallelPolicy
}

// InverterPayload swaps success and failure of its single child.
type InverterPayload struct{}

// RepeaterPayload runs its single child Times times. Times <= 0 repeats forever.
type RepeaterPayload struct {
	Times         int32
	StopOnFailure bool
}

// ActionPayload names an action registered with the runtime.
type ActionPayload struct {
	Name   string
	Params map[string]string
}

// ConditionPayload compares a blackboard entry against Operand.
type ConditionPayload struct {
	Key     string
	Op      CompareOp
	Operand Value
}

// WaitPayload stays running for Ticks ticks, then succeeds.
type WaitPayload struct {
	Ticks uint32
}

// UnknownPayload carries a tag this build does not understand. The raw payload
// bytes are kept so the node survives a decode/encode cycle untouched.
type UnknownPayload struct {
	Tag NodeType
	Raw []byte
}

func (SequencePayload) Type() NodeType  { return NodeTypeSequence }
func (SelectorPayload) Type() NodeType  { return NodeTypeSelector }
func (ParallelPayload) Type() NodeType  { return NodeTypeParallel }
func (InverterPayload) Type() NodeType  { return NodeTypeInverter }
func (RepeaterPayload) Type() NodeType  { return NodeTypeRepeater }
func (ActionPayload) Type() NodeType    { return NodeTypeAction }
func (ConditionPayload) Type() NodeType { return NodeTypeCondition }
func (WaitPayload) Type() NodeType      { return NodeTypeWait }
func (p UnknownPayload) Type() NodeType { return p.Tag }

func (SequencePayload) payload()  {}
func (SelectorPayload) payload()  {}
func (ParallelPayload) payload()  {}
func (InverterPayload) payload()  {}
func (RepeaterPayload) payload()  {}
func (ActionPayload) payload()    {}
func (ConditionPayload) payload() {}
func (WaitPayload) payload()      {}
func (UnknownPayload) payload()   {}

// ClonePayload returns a copy of p that shares no maps or slices with it.
func ClonePayload(p Payload) Payload {
	switch v := p.(type) {
	case ActionPayload:
		v.Params = maps.Clone(v.Params)
		return v
	case UnknownPayload:
		v.Raw = slices.Clone(v.Raw)
		return v
	}
	return p
}
