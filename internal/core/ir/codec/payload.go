package codec

import (
	"fmt"
	"maps"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/zeusync/skilltree/internal/core/ir"
)

// Field numbers inside each payload message. Numbers are scoped per variant.
const (
	memoryFlag protowire.Number = 1

	parallelPolicy protowire.Number = 1

	repeaterTimes         protowire.Number = 1
	repeaterStopOnFailure protowire.Number = 2

	actionName  protowire.Number = 1
	actionParam protowire.Number = 2
	paramKey    protowire.Number = 1
	paramValue  protowire.Number = 2

	conditionKey     protowire.Number = 1
	conditionOp      protowire.Number = 2
	conditionOperand protowire.Number = 3

	waitTicks protowire.Number = 1
)

func encodePayload(p ir.Payload) []byte {
	var b []byte
	switch v := p.(type) {
	case ir.SequencePayload:
		b = appendBool(b, memoryFlag, v.Memory)
	case ir.SelectorPayload:
		b = appendBool(b, memoryFlag, v.Memory)
	case ir.ParallelPayload:
		b = appendUvarint(b, parallelPolicy, uint64(v.Policy))
	case ir.InverterPayload:
	case ir.RepeaterPayload:
		b = appendSint(b, repeaterTimes, int64(v.Times))
		b = appendBool(b, repeaterStopOnFailure, v.StopOnFailure)
	case ir.ActionPayload:
		b = appendString(b, actionName, v.Name)
		for _, k := range slices.Sorted(maps.Keys(v.Params)) {
			var param []byte
			param = appendString(param, paramKey, k)
			param = appendString(param, paramValue, v.Params[k])
			b = appendMessage(b, actionParam, param)
		}
	case ir.ConditionPayload:
		b = appendString(b, conditionKey, v.Key)
		b = appendUvarint(b, conditionOp, uint64(v.Op))
		b = appendMessage(b, conditionOperand, encodeValue(v.Operand))
	case ir.WaitPayload:
		b = appendUvarint(b, waitTicks, uint64(v.Ticks))
	case ir.UnknownPayload:
		b = append(b, v.Raw...)
	}
	return b
}

func decodePayload(tag ir.NodeType, raw []byte) (ir.Payload, error) {
	msg := tag.String()
	switch tag {
	case ir.NodeTypeSequence:
		var p ir.SequencePayload
		err := walk(msg, raw, func(f field) (err error) {
			if f.num == memoryFlag {
				p.Memory, err = f.boolean()
			}
			return err
		})
		return p, err
	case ir.NodeTypeSelector:
		var p ir.SelectorPayload
		err := walk(msg, raw, func(f field) (err error) {
			if f.num == memoryFlag {
				p.Memory, err = f.boolean()
			}
			return err
		})
		return p, err
	case ir.NodeTypeParallel:
		var p ir.ParallelPayload
		err := walk(msg, raw, func(f field) error {
			if f.num != parallelPolicy {
				return nil
			}
			v, err := f.uvarint8()
			p.Policy = ir.ParallelPolicy(v)
			return err
		})
		return p, err
	case ir.NodeTypeInverter:
		return ir.InverterPayload{}, walk(msg, raw, func(field) error { return nil })
	case ir.NodeTypeRepeater:
		var p ir.RepeaterPayload
		err := walk(msg, raw, func(f field) error {
			switch f.num {
			case repeaterTimes:
				v, err := f.sint32()
				p.Times = v
				return err
			case repeaterStopOnFailure:
				v, err := f.boolean()
				p.StopOnFailure = v
				return err
			}
			return nil
		})
		return p, err
	case ir.NodeTypeAction:
		return decodeAction(raw)
	case ir.NodeTypeCondition:
		var p ir.ConditionPayload
		err := walk(msg, raw, func(f field) error {
			switch f.num {
			case conditionKey:
				s, err := f.str()
				p.Key = s
				return err
			case conditionOp:
				v, err := f.uvarint8()
				p.Op = ir.CompareOp(v)
				return err
			case conditionOperand:
				vb, err := f.bytes()
				if err != nil {
					return err
				}
				p.Operand, err = decodeValue(vb)
				return err
			}
			return nil
		})
		return p, err
	case ir.NodeTypeWait:
		var p ir.WaitPayload
		err := walk(msg, raw, func(f field) error {
			if f.num != waitTicks {
				return nil
			}
			v, err := f.uvarint32()
			p.Ticks = v
			return err
		})
		return p, err
	default:
		if !tag.Known() {
			return ir.UnknownPayload{Tag: tag, Raw: slices.Clone(raw)}, nil
		}
		return nil, decodeErr("node", nodePayload, fmt.Errorf("no decoder for %s", tag))
	}
}

func decodeAction(raw []byte) (ir.Payload, error) {
	var p ir.ActionPayload
	err := walk("action", raw, func(f field) error {
		switch f.num {
		case actionName:
			s, err := f.str()
			p.Name = s
			return err
		case actionParam:
			pb, err := f.bytes()
			if err != nil {
				return err
			}
			var k, v string
			err = walk("action param", pb, func(pf field) (err error) {
				switch pf.num {
				case paramKey:
					k, err = pf.str()
				case paramValue:
					v, err = pf.str()
				}
				return err
			})
			if err != nil {
				return err
			}
			if p.Params == nil {
				p.Params = make(map[string]string)
			}
			p.Params[k] = v
		}
		return nil
	})
	return p, err
}
