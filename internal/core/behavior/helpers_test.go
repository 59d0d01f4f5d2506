package behavior

import (
	"github.com/zeusync/skilltree/internal/core/ir"
	"github.com/zeusync/skilltree/internal/core/models"
	"github.com/zeusync/skilltree/internal/core/observability/log"
	"github.com/zeusync/skilltree/internal/core/systems/physics"
)

type defs map[ir.TreeID]*ir.TreeDefinition

func (d defs) GetTreeDefinition(id ir.TreeID) *ir.TreeDefinition { return d[id] }

func node(id ir.NodeID, p ir.Payload, linked ...ir.NodeID) *ir.NodeData {
	return &ir.NodeData{ID: id, Payload: p, LinkedIDs: linked}
}

func definition(id ir.TreeID, root ir.NodeID, nodes ...*ir.NodeData) *ir.TreeDefinition {
	def := ir.NewTreeDefinition(id, "test")
	def.RootID = root
	for _, n := range nodes {
		def.Nodes[n.ID] = n
	}
	return def
}

func newTestFactory(all ...*ir.TreeDefinition) *Factory {
	d := defs{}
	for _, def := range all {
		d[def.ID] = def
	}
	return NewFactory(d, nil, log.Nop())
}

var unitSeq models.EntityID

func newUnit() *models.Unit {
	unitSeq++
	return models.NewUnit(unitSeq, "unit", physics.Transform{})
}

func action(name string, kv ...string) ir.ActionPayload {
	params := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		params[kv[i]] = kv[i+1]
	}
	return ir.ActionPayload{Name: name, Params: params}
}
