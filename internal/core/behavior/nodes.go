package behavior

import (
	"errors"
	"fmt"

	bt "github.com/joeycumines/go-behaviortree"

	"github.com/zeusync/skilltree/internal/core/ir"
	"github.com/zeusync/skilltree/internal/core/models"
)

func compositeTick(tick bt.Tick, memory bool) bt.Tick {
	if memory {
		return bt.Memorize(tick)
	}
	return tick
}

// parallelTick ticks every child each tick and resolves the result by policy.
func parallelTick(policy ir.ParallelPolicy) (bt.Tick, error) {
	if policy != ir.RequireAll && policy != ir.RequireOne {
		return nil, fmt.Errorf("parallel policy %d", policy)
	}
	return func(children []bt.Node) (bt.Status, error) {
		if len(children) == 0 {
			return bt.Success, nil
		}
		var (
			successes int
			running   bool
			errs      error
		)
		for _, child := range children {
			st, err := child.Tick()
			if err != nil {
				errs = errors.Join(errs, err)
				continue
			}
			switch st {
			case bt.Success:
				successes++
			case bt.Running:
				running = true
			}
		}
		if errs != nil {
			return bt.Failure, errs
		}
		switch {
		case policy == ir.RequireAll && successes == len(children):
			return bt.Success, nil
		case policy == ir.RequireOne && successes > 0:
			return bt.Success, nil
		case running:
			return bt.Running, nil
		default:
			return bt.Failure, nil
		}
	}, nil
}

// inverterTick flips the single child's Success and Failure.
func inverterTick() bt.Tick {
	return bt.Not(bt.Sequence)
}

// repeatTick reruns its child until it completed p.Times times. A running
// child suspends the loop until the next tick. Times <= 0 repeats forever,
// one iteration per tick.
func repeatTick(p ir.RepeaterPayload) bt.Tick {
	var done int32
	return func(children []bt.Node) (bt.Status, error) {
		for {
			st, err := children[0].Tick()
			if err != nil {
				done = 0
				return bt.Failure, err
			}
			if st == bt.Running {
				return bt.Running, nil
			}
			if st == bt.Failure && p.StopOnFailure {
				done = 0
				return bt.Failure, nil
			}
			if p.Times <= 0 {
				return bt.Running, nil
			}
			done++
			if done >= p.Times {
				done = 0
				return bt.Success, nil
			}
		}
	}
}

// waitTick stays Running for ticks ticks, then succeeds once and rearms.
func waitTick(ticks uint32) bt.Tick {
	var elapsed uint32
	return func([]bt.Node) (bt.Status, error) {
		if elapsed >= ticks {
			elapsed = 0
			return bt.Success, nil
		}
		elapsed++
		return bt.Running, nil
	}
}

func conditionTick(bb *models.Blackboard, p ir.ConditionPayload) (bt.Tick, error) {
	if p.Op > ir.OpExists {
		return nil, fmt.Errorf("compare op %d", p.Op)
	}
	return func([]bt.Node) (bt.Status, error) {
		if evaluate(bb, p) {
			return bt.Success, nil
		}
		return bt.Failure, nil
	}, nil
}

// evaluate compares the blackboard value at p.Key with p.Operand. Absent keys
// and values of incomparable kinds evaluate to false.
func evaluate(bb *models.Blackboard, p ir.ConditionPayload) bool {
	raw, ok := bb.Get(p.Key)
	if p.Op == ir.OpExists {
		return ok
	}
	if !ok {
		return false
	}
	v, ok := ir.ValueOf(raw)
	if !ok {
		return false
	}
	c, ok := v.Compare(p.Operand)
	if !ok {
		return false
	}
	switch p.Op {
	case ir.OpEq:
		return c == 0
	case ir.OpNe:
		return c != 0
	case ir.OpLt:
		return c < 0
	case ir.OpLe:
		return c <= 0
	case ir.OpGt:
		return c > 0
	case ir.OpGe:
		return c >= 0
	default:
		return false
	}
}

func actionTick(fn ActionFunc, ac *ActionContext) bt.Tick {
	return func([]bt.Node) (bt.Status, error) {
		return fn(ac)
	}
}
