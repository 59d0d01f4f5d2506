package graph

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/skilltree/internal/core/ir"
)

var ErrInvalidGraph = errors.New("invalid graph document")

// File is the YAML form of a graph.
type File struct {
	Name       string         `yaml:"name"`
	TreeID     int64          `yaml:"tree_id"`
	Blackboard map[string]any `yaml:"blackboard,omitempty"`
	Nodes      []FileNode     `yaml:"nodes"`
	Links      []FileLink     `yaml:"links,omitempty"`
}

type FileNode struct {
	Key  string  `yaml:"key"`
	Type string  `yaml:"type"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`

	Memory        bool           `yaml:"memory,omitempty"`
	Policy        string         `yaml:"policy,omitempty"`
	Times         int32          `yaml:"times,omitempty"`
	StopOnFailure bool           `yaml:"stop_on_failure,omitempty"`
	Action        string         `yaml:"action,omitempty"`
	Params        map[string]any `yaml:"params,omitempty"`
	Condition     *FileCondition `yaml:"condition,omitempty"`
	Ticks         uint32         `yaml:"ticks,omitempty"`
}

type FileCondition struct {
	Key   string `yaml:"key"`
	Op    string `yaml:"op"`
	Value any    `yaml:"value,omitempty"`
}

type FileLink struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// LoadYAML reads one graph document.
func LoadYAML(r io.Reader) (*Graph, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGraph, err)
	}
	return f.Graph()
}

func LoadFile(path string) (*Graph, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	g, err := LoadYAML(fd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Graph converts the document into a graph ready to compile.
func (f *File) Graph() (*Graph, error) {
	g := &Graph{Name: f.Name, TreeID: ir.TreeID(f.TreeID), Blackboard: make(map[string]ir.Value, len(f.Blackboard))}
	for k, raw := range f.Blackboard {
		v, ok := ir.ValueOf(raw)
		if !ok {
			return nil, fmt.Errorf("%w: blackboard %q: unsupported value %v", ErrInvalidGraph, k, raw)
		}
		g.Blackboard[k] = v
	}
	for i := range f.Nodes {
		fn := &f.Nodes[i]
		p, err := fn.payload()
		if err != nil {
			return nil, fmt.Errorf("%w: node %q: %w", ErrInvalidGraph, fn.Key, err)
		}
		g.AddNode(fn.Key, fn.X, fn.Y, p)
	}
	for _, l := range f.Links {
		g.Connect(l.From, l.To)
	}
	return g, nil
}

func (fn *FileNode) payload() (ir.Payload, error) {
	t, ok := ir.ParseNodeType(strings.ToLower(fn.Type))
	if !ok {
		return nil, fmt.Errorf("unknown type %q", fn.Type)
	}
	switch t {
	case ir.NodeTypeSequence:
		return ir.SequencePayload{Memory: fn.Memory}, nil
	case ir.NodeTypeSelector:
		return ir.SelectorPayload{Memory: fn.Memory}, nil
	case ir.NodeTypeParallel:
		switch strings.ToLower(fn.Policy) {
		case "", "all", "require_all":
			return ir.ParallelPayload{Policy: ir.RequireAll}, nil
		case "one", "require_one":
			return ir.ParallelPayload{Policy: ir.RequireOne}, nil
		default:
			return nil, fmt.Errorf("unknown parallel policy %q", fn.Policy)
		}
	case ir.NodeTypeInverter:
		return ir.InverterPayload{}, nil
	case ir.NodeTypeRepeater:
		return ir.RepeaterPayload{Times: fn.Times, StopOnFailure: fn.StopOnFailure}, nil
	case ir.NodeTypeAction:
		if fn.Action == "" {
			return nil, errors.New("action name missing")
		}
		var params map[string]string
		if len(fn.Params) > 0 {
			params = make(map[string]string, len(fn.Params))
			for k, v := range fn.Params {
				params[k] = fmt.Sprint(v)
			}
		}
		return ir.ActionPayload{Name: fn.Action, Params: params}, nil
	case ir.NodeTypeCondition:
		if fn.Condition == nil {
			return nil, errors.New("condition missing")
		}
		op, ok := ir.ParseCompareOp(strings.ToLower(fn.Condition.Op))
		if !ok {
			return nil, fmt.Errorf("unknown compare op %q", fn.Condition.Op)
		}
		var operand ir.Value
		if fn.Condition.Value != nil {
			if operand, ok = ir.ValueOf(fn.Condition.Value); !ok {
				return nil, fmt.Errorf("unsupported operand %v", fn.Condition.Value)
			}
		}
		return ir.ConditionPayload{Key: fn.Condition.Key, Op: op, Operand: operand}, nil
	case ir.NodeTypeWait:
		return ir.WaitPayload{Ticks: fn.Ticks}, nil
	default:
		return nil, fmt.Errorf("unsupported type %q", fn.Type)
	}
}
