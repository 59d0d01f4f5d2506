package behavior

import (
	"testing"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/skilltree/internal/core/ir"
)

func TestCreateInstanceMissingDefinition(t *testing.T) {
	f := newTestFactory()
	u := newUnit()
	tree, err := f.CreateInstance(42, u)
	require.ErrorIs(t, err, ErrDefinitionNotFound)
	assert.Nil(t, tree)
	assert.Nil(t, u.Tree())
}

func TestCreateInstanceNilHost(t *testing.T) {
	f := newTestFactory(definition(1, 1, node(1, ir.WaitPayload{})))
	_, err := f.CreateInstance(1, nil)
	assert.ErrorIs(t, err, ErrNilHost)
}

func TestCreateInstanceBrokenDefinitions(t *testing.T) {
	cases := []struct {
		name  string
		def   *ir.TreeDefinition
		cause error
	}{
		{
			name: "missing root",
			def:  definition(1, 9, node(1, ir.WaitPayload{})),
		},
		{
			name: "dangling link",
			def:  definition(1, 1, node(1, ir.SequencePayload{}, 2)),
		},
		{
			name: "cycle",
			def: definition(1, 1,
				node(1, ir.SequencePayload{}, 2),
				node(2, ir.SelectorPayload{}, 1),
			),
		},
		{
			name:  "unknown tag",
			def:   definition(1, 1, node(1, ir.UnknownPayload{Tag: 99})),
			cause: ErrUnknownNodeType,
		},
		{
			name:  "unknown action",
			def:   definition(1, 1, node(1, action("teleport"))),
			cause: ErrUnknownAction,
		},
		{
			name:  "bad action params",
			def:   definition(1, 1, node(1, action("set", "value", "1"))),
			cause: ErrInvalidParams,
		},
		{
			name: "inverter with two children",
			def: definition(1, 1,
				node(1, ir.InverterPayload{}, 2, 3),
				node(2, ir.WaitPayload{}),
				node(3, ir.WaitPayload{}),
			),
		},
		{
			name: "leaf with children",
			def: definition(1, 1,
				node(1, ir.WaitPayload{Ticks: 1}, 2),
				node(2, ir.WaitPayload{}),
			),
		},
		{
			name: "unknown compare op",
			def:  definition(1, 1, node(1, ir.ConditionPayload{Key: "hp", Op: ir.OpExists + 1})),
		},
		{
			name:  "no payload",
			def:   definition(1, 1, node(1, nil)),
			cause: ir.ErrPayloadAbsent,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.def.Blackboard["seeded"] = ir.BoolValue(true)
			f := newTestFactory(tc.def)
			u := newUnit()

			tree, err := f.CreateInstance(1, u)
			require.ErrorIs(t, err, ErrBrokenDefinition)
			if tc.cause != nil {
				assert.ErrorIs(t, err, tc.cause)
			}
			assert.Nil(t, tree)
			assert.Nil(t, u.Tree())
			assert.Empty(t, u.Blackboard().Keys())
		})
	}
}

func TestCreateInstanceSeedsBlackboardAndAttaches(t *testing.T) {
	def := definition(1, 1, node(1, ir.WaitPayload{}))
	def.Blackboard["hp"] = ir.IntValue(5)
	def.Blackboard["name"] = ir.StringValue("slime")
	f := newTestFactory(def)

	u := newUnit()
	u.Blackboard().Set("hp", int64(9))
	tree, err := f.CreateInstance(1, u)
	require.NoError(t, err)

	assert.Same(t, tree, u.Tree())
	hp, _ := u.Blackboard().Get("hp")
	assert.Equal(t, int64(9), hp)
	name, _ := u.Blackboard().Get("name")
	assert.Equal(t, "slime", name)
	assert.Equal(t, u.ID(), tree.Owner())
}

func TestInstancesAreIndependent(t *testing.T) {
	def := definition(1, 1,
		node(1, ir.SequencePayload{Memory: true}, 2, 3),
		node(2, action("increment", "key", "count")),
		node(3, ir.WaitPayload{Ticks: 1}),
	)
	f := newTestFactory(def)
	a, b := newUnit(), newUnit()
	ta, err := f.CreateInstance(1, a)
	require.NoError(t, err)
	tb, err := f.CreateInstance(1, b)
	require.NoError(t, err)
	assert.NotEqual(t, ta.ID(), tb.ID())
	ta.Start()
	tb.Start()

	st, err := ta.Tick()
	require.NoError(t, err)
	assert.Equal(t, bt.Running, st)

	count, _ := a.Blackboard().Get("count")
	assert.Equal(t, int64(1), count)
	_, ok := b.Blackboard().Get("count")
	assert.False(t, ok)

	st, err = tb.Tick()
	require.NoError(t, err)
	assert.Equal(t, bt.Running, st)
	assert.Equal(t, uint64(1), ta.Ticks())
	assert.Equal(t, uint64(1), tb.Ticks())
}

func TestSharedChildIsBuiltPerReference(t *testing.T) {
	def := definition(1, 1,
		node(1, ir.SequencePayload{}, 2, 2),
		node(2, action("increment", "key", "n")),
	)
	f := newTestFactory(def)
	u := newUnit()
	tree, err := f.CreateInstance(1, u)
	require.NoError(t, err)
	tree.Start()

	st, err := tree.Tick()
	require.NoError(t, err)
	assert.Equal(t, bt.Success, st)
	n, _ := u.Blackboard().Get("n")
	assert.Equal(t, int64(2), n)
}

// ladder links node k to k-1 and k-2, so every node below the top is shared
// and a per-reference expansion grows like the Fibonacci numbers.
func ladder(n int) *ir.TreeDefinition {
	nodes := []*ir.NodeData{
		node(1, ir.ConditionPayload{Key: "a", Op: ir.OpExists}),
		node(2, ir.ConditionPayload{Key: "b", Op: ir.OpExists}),
	}
	for k := 3; k <= n; k++ {
		id := ir.NodeID(k)
		nodes = append(nodes, node(id, ir.SelectorPayload{}, id-1, id-2))
	}
	return definition(1, ir.NodeID(n), nodes...)
}

func TestLadderExpansionIsBounded(t *testing.T) {
	u := newUnit()
	tree, err := newTestFactory(ladder(10)).CreateInstance(1, u)
	require.NoError(t, err)
	tree.Start()
	st, err := tree.Tick()
	require.NoError(t, err)
	assert.Equal(t, bt.Failure, st)

	u = newUnit()
	tree, err = newTestFactory(ladder(60)).CreateInstance(1, u)
	require.ErrorIs(t, err, ErrBrokenDefinition)
	assert.ErrorIs(t, err, ErrTreeTooLarge)
	assert.Nil(t, tree)
	assert.Nil(t, u.Tree())
}

func TestTreeLifecycle(t *testing.T) {
	f := newTestFactory(definition(1, 1, node(1, action("set", "key", "done", "value", "true"))))
	u := newUnit()
	tree, err := f.CreateInstance(1, u)
	require.NoError(t, err)

	_, err = tree.Tick()
	assert.ErrorIs(t, err, ErrNotRunning)
	_, ok := u.Blackboard().Get("done")
	assert.False(t, ok)

	tree.Start()
	assert.True(t, tree.Running())
	st, err := tree.Tick()
	require.NoError(t, err)
	assert.Equal(t, bt.Success, st)
	assert.Equal(t, bt.Success, tree.LastStatus())

	tree.Stop()
	assert.False(t, tree.Running())
	_, err = tree.Tick()
	assert.ErrorIs(t, err, ErrNotRunning)

	tree.Start()
	assert.False(t, tree.Running())
}

func TestAttachingNewTreeStopsPrevious(t *testing.T) {
	f := newTestFactory(definition(1, 1, node(1, ir.WaitPayload{Ticks: 5})))
	u := newUnit()
	first, err := f.CreateInstance(1, u)
	require.NoError(t, err)
	first.Start()
	second, err := f.CreateInstance(1, u)
	require.NoError(t, err)

	assert.False(t, first.Running())
	assert.Same(t, second, u.Tree())
}
