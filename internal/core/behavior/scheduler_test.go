package behavior

import (
	"testing"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/skilltree/internal/core/ir"
	"github.com/zeusync/skilltree/internal/core/models"
	"github.com/zeusync/skilltree/internal/core/observability/log"
	"github.com/zeusync/skilltree/internal/core/systems/physics"
)

func TestSchedulerTicksOnlyStartedTrees(t *testing.T) {
	f := newTestFactory(definition(1, 1, node(1, action("increment", "key", "n"))))
	s := NewScheduler(nil)

	a, b := newUnit(), newUnit()
	ta, err := f.CreateInstance(1, a)
	require.NoError(t, err)
	_, err = f.CreateInstance(1, b)
	require.NoError(t, err)

	s.Start(ta)
	s.Start(ta)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.TickAll())
	assert.Equal(t, 1, s.TickAll())

	n, _ := a.Blackboard().Get("n")
	assert.Equal(t, int64(2), n)
	_, ok := b.Blackboard().Get("n")
	assert.False(t, ok)

	s.Stop(ta)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.TickAll())
}

func TestSchedulerDropsTreesStoppedByRegistry(t *testing.T) {
	f := newTestFactory(definition(1, 1, node(1, ir.WaitPayload{Ticks: 10})))
	reg := models.NewRegistry(nil)
	u := reg.Create("caster", physics.Transform{})
	tree, err := f.CreateInstance(1, u)
	require.NoError(t, err)

	s := NewScheduler(nil)
	s.Start(tree)
	assert.Equal(t, 1, s.TickAll())

	reg.Remove(u.ID())
	assert.Equal(t, 0, s.TickAll())
	assert.Equal(t, 0, s.Len())
}

func TestSchedulerLogsTickErrors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	reg := NewActionRegistry()
	reg.Register("boom", func(map[string]string) (ActionFunc, error) {
		return func(*ActionContext) (bt.Status, error) {
			return bt.Failure, assert.AnError
		}, nil
	})
	f := NewFactory(defs{1: definition(1, 1, node(1, action("boom")))}, reg, nil)
	tree, err := f.CreateInstance(1, newUnit())
	require.NoError(t, err)

	s := NewScheduler(log.FromZap(zap.New(core)))
	s.Start(tree)
	assert.Equal(t, 1, s.TickAll())
	assert.True(t, tree.Running())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "tree tick failed", logs.All()[0].Message)
}
