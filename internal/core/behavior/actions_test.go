package behavior

import (
	"testing"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/skilltree/internal/core/ir"
)

func TestDefaultActionNames(t *testing.T) {
	assert.Equal(t, []string{"despawn", "increment", "log", "set"}, DefaultActions().Names())
}

func TestSetActionKinds(t *testing.T) {
	tree, u := startTree(t, definition(1, 1,
		node(1, ir.SequencePayload{}, 2, 3, 4),
		node(2, action("set", "key", "a", "value", "7", "kind", "int")),
		node(3, action("set", "key", "b", "value", "7", "kind", "string")),
		node(4, action("set", "key", "c", "value", "2.5")),
	))
	assert.Equal(t, []bt.Status{bt.Success}, tickN(t, tree, 1))
	a, _ := u.Blackboard().Get("a")
	b, _ := u.Blackboard().Get("b")
	c, _ := u.Blackboard().Get("c")
	assert.Equal(t, int64(7), a)
	assert.Equal(t, "7", b)
	assert.Equal(t, 2.5, c)
}

func TestIncrementAction(t *testing.T) {
	def := definition(1, 1,
		node(1, ir.SequencePayload{}, 2, 3),
		node(2, action("increment", "key", "hp", "by", "-2")),
		node(3, action("increment", "key", "speed", "by", "0.5")),
	)
	def.Blackboard["hp"] = ir.IntValue(10)
	def.Blackboard["speed"] = ir.IntValue(1)
	tree, u := startTree(t, def)
	tickN(t, tree, 2)

	hp, _ := u.Blackboard().Get("hp")
	speed, _ := u.Blackboard().Get("speed")
	assert.Equal(t, int64(6), hp)
	assert.Equal(t, 2.0, speed)
}

func TestIncrementNonNumericFails(t *testing.T) {
	def := definition(1, 1, node(1, action("increment", "key", "name")))
	def.Blackboard["name"] = ir.StringValue("slime")
	tree, u := startTree(t, def)
	assert.Equal(t, []bt.Status{bt.Failure}, tickN(t, tree, 1))
	name, _ := u.Blackboard().Get("name")
	assert.Equal(t, "slime", name)
}

func TestIncrementRejectsNonNumericStep(t *testing.T) {
	f := newTestFactory(definition(1, 1, node(1, action("increment", "key", "n", "by", "lots"))))
	_, err := f.CreateInstance(1, newUnit())
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestDespawnAndLogActions(t *testing.T) {
	tree, u := startTree(t, definition(1, 1,
		node(1, ir.SequencePayload{}, 2, 3),
		node(2, action("log", "message", "bye")),
		node(3, action("despawn")),
	))
	assert.Equal(t, []bt.Status{bt.Success}, tickN(t, tree, 1))
	v, _ := u.Blackboard().Get(DespawnKey)
	assert.Equal(t, true, v)
}

func TestCustomAction(t *testing.T) {
	reg := NewActionRegistry()
	calls := 0
	reg.Register("ping", func(map[string]string) (ActionFunc, error) {
		return func(*ActionContext) (bt.Status, error) {
			calls++
			return bt.Success, nil
		}, nil
	})
	f := NewFactory(defs{1: definition(1, 1, node(1, action("ping")))}, reg, nil)
	tree, err := f.CreateInstance(1, newUnit())
	require.NoError(t, err)
	tree.Start()
	_, err = tree.Tick()
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Same(t, reg, f.Actions())
}
