package behavior

import (
	"fmt"
	"sort"
	"sync"

	bt "github.com/joeycumines/go-behaviortree"

	"github.com/zeusync/skilltree/internal/core/ir"
	"github.com/zeusync/skilltree/internal/core/models"
	"github.com/zeusync/skilltree/internal/core/observability/log"
)

// DespawnKey is the blackboard flag set by the despawn action.
const DespawnKey = "despawn"

// ActionContext is what an action sees when it is ticked.
type ActionContext struct {
	Host       Host
	Blackboard *models.Blackboard
	Log        log.Log
	TreeID     ir.TreeID
	NodeID     ir.NodeID
}

// ActionFunc performs one tick of an action leaf.
type ActionFunc func(ac *ActionContext) (bt.Status, error)

// ActionFactory validates params and returns the action for one node of one
// instance. State captured by the returned func is private to that node.
type ActionFactory func(params map[string]string) (ActionFunc, error)

// ActionRegistry maps action names to factories.
type ActionRegistry struct {
	mu      sync.RWMutex
	actions map[string]ActionFactory
}

func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{actions: make(map[string]ActionFactory)}
}

// DefaultActions returns a registry with the built-in actions registered.
func DefaultActions() *ActionRegistry {
	r := NewActionRegistry()
	r.Register("set", newSetAction)
	r.Register("increment", newIncrementAction)
	r.Register("log", newLogAction)
	r.Register("despawn", newDespawnAction)
	return r
}

// Register adds or replaces the factory for name.
func (r *ActionRegistry) Register(name string, factory ActionFactory) {
	r.mu.Lock()
	r.actions[name] = factory
	r.mu.Unlock()
}

func (r *ActionRegistry) New(name string, params map[string]string) (ActionFunc, error) {
	r.mu.RLock()
	f := r.actions[name]
	r.mu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	fn, err := f(params)
	if err != nil {
		return nil, fmt.Errorf("action %q: %w", name, err)
	}
	return fn, nil
}

func (r *ActionRegistry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.actions))
	for n := range r.actions {
		names = append(names, n)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

func requireParam(params map[string]string, key string) (string, error) {
	v, ok := params[key]
	if !ok || v == "" {
		return "", fmt.Errorf("%w: missing %q", ErrInvalidParams, key)
	}
	return v, nil
}

// set: key, value, optional kind (bool|int|float|string, inferred when empty).
func newSetAction(params map[string]string) (ActionFunc, error) {
	key, err := requireParam(params, "key")
	if err != nil {
		return nil, err
	}
	v, err := ir.ParseValue(params["kind"], params["value"])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	value := v.Any()
	return func(ac *ActionContext) (bt.Status, error) {
		ac.Blackboard.Set(key, value)
		return bt.Success, nil
	}, nil
}

// increment: key, optional by (default 1). A missing key starts from zero.
func newIncrementAction(params map[string]string) (ActionFunc, error) {
	key, err := requireParam(params, "key")
	if err != nil {
		return nil, err
	}
	by := ir.IntValue(1)
	if s, ok := params["by"]; ok {
		if by, err = ir.ParseValue("", s); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}
		if by.Kind != ir.KindInt && by.Kind != ir.KindFloat {
			return nil, fmt.Errorf("%w: by %q is not a number", ErrInvalidParams, s)
		}
	}
	return func(ac *ActionContext) (bt.Status, error) {
		applied := true
		ac.Blackboard.Update(key, func(old any, ok bool) any {
			if !ok {
				return by.Any()
			}
			cur, valid := ir.ValueOf(old)
			switch {
			case valid && cur.Kind == ir.KindInt && by.Kind == ir.KindInt:
				return cur.Int + by.Int
			case valid && cur.Kind == ir.KindInt:
				return float64(cur.Int) + by.Float
			case valid && cur.Kind == ir.KindFloat && by.Kind == ir.KindInt:
				return cur.Float + float64(by.Int)
			case valid && cur.Kind == ir.KindFloat:
				return cur.Float + by.Float
			default:
				applied = false
				return old
			}
		})
		if !applied {
			return bt.Failure, nil
		}
		return bt.Success, nil
	}, nil
}

func newLogAction(params map[string]string) (ActionFunc, error) {
	msg := params["message"]
	if msg == "" {
		msg = "tree log"
	}
	return func(ac *ActionContext) (bt.Status, error) {
		ac.Log.Info(msg,
			log.Uint64("entity_id", uint64(ac.Host.ID())),
			log.Int64("tree_id", int64(ac.TreeID)),
			log.Int64("node_id", int64(ac.NodeID)),
		)
		return bt.Success, nil
	}, nil
}

func newDespawnAction(map[string]string) (ActionFunc, error) {
	return func(ac *ActionContext) (bt.Status, error) {
		ac.Blackboard.Set(DespawnKey, true)
		return bt.Success, nil
	}, nil
}
