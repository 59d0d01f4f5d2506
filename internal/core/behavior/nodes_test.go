package behavior

import (
	"testing"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/skilltree/internal/core/ir"
	"github.com/zeusync/skilltree/internal/core/models"
)

func startTree(t *testing.T, def *ir.TreeDefinition) (*Tree, *models.Unit) {
	t.Helper()
	u := newUnit()
	tree, err := newTestFactory(def).CreateInstance(def.ID, u)
	require.NoError(t, err)
	tree.Start()
	return tree, u
}

func tickN(t *testing.T, tree *Tree, n int) []bt.Status {
	t.Helper()
	out := make([]bt.Status, 0, n)
	for i := 0; i < n; i++ {
		st, err := tree.Tick()
		require.NoError(t, err)
		out = append(out, st)
	}
	return out
}

func TestWaitRunsThenSucceedsAndRestarts(t *testing.T) {
	tree, _ := startTree(t, definition(1, 1, node(1, ir.WaitPayload{Ticks: 2})))
	assert.Equal(t,
		[]bt.Status{bt.Running, bt.Running, bt.Success, bt.Running},
		tickN(t, tree, 4),
	)
}

func TestRepeaterCountsCompletions(t *testing.T) {
	tree, u := startTree(t, definition(1, 1,
		node(1, ir.RepeaterPayload{Times: 3}, 2),
		node(2, action("increment", "key", "n")),
	))
	assert.Equal(t, []bt.Status{bt.Success}, tickN(t, tree, 1))
	n, _ := u.Blackboard().Get("n")
	assert.Equal(t, int64(3), n)
}

func TestRepeaterForeverOneIterationPerTick(t *testing.T) {
	tree, u := startTree(t, definition(1, 1,
		node(1, ir.RepeaterPayload{}, 2),
		node(2, action("increment", "key", "n")),
	))
	assert.Equal(t, []bt.Status{bt.Running, bt.Running}, tickN(t, tree, 2))
	n, _ := u.Blackboard().Get("n")
	assert.Equal(t, int64(2), n)
}

func TestRepeaterStopOnFailure(t *testing.T) {
	tree, _ := startTree(t, definition(1, 1,
		node(1, ir.RepeaterPayload{Times: 3, StopOnFailure: true}, 2),
		node(2, ir.ConditionPayload{Key: "missing", Op: ir.OpExists}),
	))
	assert.Equal(t, []bt.Status{bt.Failure}, tickN(t, tree, 1))
}

func TestConditionOperators(t *testing.T) {
	cases := []struct {
		op      ir.CompareOp
		operand ir.Value
		want    bt.Status
	}{
		{ir.OpEq, ir.IntValue(5), bt.Success},
		{ir.OpEq, ir.FloatValue(5), bt.Success},
		{ir.OpNe, ir.IntValue(5), bt.Failure},
		{ir.OpLt, ir.IntValue(6), bt.Success},
		{ir.OpLe, ir.IntValue(5), bt.Success},
		{ir.OpGt, ir.IntValue(5), bt.Failure},
		{ir.OpGe, ir.FloatValue(4.5), bt.Success},
		{ir.OpExists, ir.Value{}, bt.Success},
		{ir.OpEq, ir.StringValue("5"), bt.Failure},
	}
	for _, tc := range cases {
		t.Run(tc.op.String(), func(t *testing.T) {
			def := definition(1, 1, node(1, ir.ConditionPayload{Key: "hp", Op: tc.op, Operand: tc.operand}))
			def.Blackboard["hp"] = ir.IntValue(5)
			tree, _ := startTree(t, def)
			assert.Equal(t, []bt.Status{tc.want}, tickN(t, tree, 1))
		})
	}
}

func TestConditionAbsentKeyFails(t *testing.T) {
	tree, _ := startTree(t, definition(1, 1, node(1, ir.ConditionPayload{Key: "hp", Op: ir.OpNe, Operand: ir.IntValue(1)})))
	assert.Equal(t, []bt.Status{bt.Failure}, tickN(t, tree, 1))
}

func TestInverter(t *testing.T) {
	tree, _ := startTree(t, definition(1, 1,
		node(1, ir.InverterPayload{}, 2),
		node(2, ir.ConditionPayload{Key: "target", Op: ir.OpExists}),
	))
	assert.Equal(t, []bt.Status{bt.Success}, tickN(t, tree, 1))
}

func TestSelectorFallsThrough(t *testing.T) {
	tree, u := startTree(t, definition(1, 1,
		node(1, ir.SelectorPayload{}, 2, 3),
		node(2, ir.ConditionPayload{Key: "enemy", Op: ir.OpExists}),
		node(3, action("set", "key", "state", "value", "idle")),
	))
	assert.Equal(t, []bt.Status{bt.Success}, tickN(t, tree, 1))
	state, _ := u.Blackboard().Get("state")
	assert.Equal(t, "idle", state)
}

func TestSequenceStopsAtFailure(t *testing.T) {
	tree, u := startTree(t, definition(1, 1,
		node(1, ir.SequencePayload{}, 2, 3),
		node(2, ir.ConditionPayload{Key: "enemy", Op: ir.OpExists}),
		node(3, action("set", "key", "attacked", "value", "true")),
	))
	assert.Equal(t, []bt.Status{bt.Failure}, tickN(t, tree, 1))
	_, ok := u.Blackboard().Get("attacked")
	assert.False(t, ok)
}

func TestParallelPolicies(t *testing.T) {
	one, _ := startTree(t, definition(1, 1,
		node(1, ir.ParallelPayload{Policy: ir.RequireOne}, 2, 3),
		node(2, ir.WaitPayload{Ticks: 2}),
		node(3, action("set", "key", "x", "value", "1")),
	))
	assert.Equal(t, []bt.Status{bt.Success}, tickN(t, one, 1))

	all, _ := startTree(t, definition(1, 1,
		node(1, ir.ParallelPayload{Policy: ir.RequireAll}, 2, 3),
		node(2, ir.WaitPayload{Ticks: 1}),
		node(3, action("set", "key", "x", "value", "1")),
	))
	assert.Equal(t, []bt.Status{bt.Running, bt.Success}, tickN(t, all, 2))

	failing, _ := startTree(t, definition(1, 1,
		node(1, ir.ParallelPayload{Policy: ir.RequireAll}, 2),
		node(2, ir.ConditionPayload{Key: "x", Op: ir.OpExists}),
	))
	assert.Equal(t, []bt.Status{bt.Failure}, tickN(t, failing, 1))
}

func TestParallelUnknownPolicyIsBroken(t *testing.T) {
	f := newTestFactory(definition(1, 1, node(1, ir.ParallelPayload{Policy: 7})))
	_, err := f.CreateInstance(1, newUnit())
	assert.ErrorIs(t, err, ErrBrokenDefinition)
}
