// Package codec persists IR documents in a compact, forward-compatible binary
// form.
//
// A file is the 4-byte magic "NPBT", the little-endian xxhash64 of the body,
// then the body. The body uses protobuf wire framing: every field is
// tag-prefixed, so a reader skips fields it does not know and documents
// written by a newer compiler still load. Node payloads carry an explicit type
// tag next to a nested message holding the variant's fields.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/zeusync/skilltree/internal/core/ir"
)

var magic = []byte("NPBT")

const headerSize = 4 + 8

// Document fields.
const (
	docVersion protowire.Number = 1
	docTree    protowire.Number = 2
)

// Tree fields.
const (
	treeID         protowire.Number = 1
	treeName       protowire.Number = 2
	treeRoot       protowire.Number = 3
	treeNode       protowire.Number = 4
	treeBlackboard protowire.Number = 5
)

// Node fields.
const (
	nodeID      protowire.Number = 1
	nodeType    protowire.Number = 2
	nodeLinked  protowire.Number = 3
	nodePayload protowire.Number = 4
)

// Blackboard entry and value fields.
const (
	entryKey   protowire.Number = 1
	entryValue protowire.Number = 2

	valueKind  protowire.Number = 1
	valueBool  protowire.Number = 2
	valueInt   protowire.Number = 3
	valueFloat protowire.Number = 4
	valueStr   protowire.Number = 5
)

// Encode serializes doc into a complete in-memory buffer. Output is
// deterministic: trees, nodes and map keys are written in sorted order.
func Encode(doc *ir.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("ir codec: encode: nil document")
	}
	version := doc.Version
	if version == 0 {
		version = ir.FormatVersion
	}

	var body []byte
	body = appendUvarint(body, docVersion, uint64(version))
	for _, id := range slices.Sorted(maps.Keys(doc.Trees)) {
		tree, err := encodeTree(doc.Trees[id])
		if err != nil {
			return nil, err
		}
		body = appendMessage(body, docTree, tree)
	}

	out := make([]byte, headerSize, headerSize+len(body))
	copy(out, magic)
	binary.LittleEndian.PutUint64(out[4:headerSize], xxhash.Sum64(body))
	return append(out, body...), nil
}

// Decode parses a buffer produced by Encode. An empty buffer yields
// ErrEmptyData; anything malformed yields a *DecodeError.
func Decode(b []byte) (*ir.Document, error) {
	if len(b) == 0 {
		return nil, ErrEmptyData
	}
	if len(b) < headerSize {
		return nil, decodeErr("envelope", 0, fmt.Errorf("truncated header: %d bytes", len(b)))
	}
	if !bytes.Equal(b[:4], magic) {
		return nil, decodeErr("envelope", 0, ErrMagic)
	}
	body := b[headerSize:]
	if binary.LittleEndian.Uint64(b[4:headerSize]) != xxhash.Sum64(body) {
		return nil, decodeErr("envelope", 0, ErrChecksum)
	}

	doc := ir.NewDocument()
	doc.Version = 0
	err := walk("document", body, func(f field) error {
		switch f.num {
		case docVersion:
			v, err := f.uvarint32()
			doc.Version = v
			return err
		case docTree:
			raw, err := f.bytes()
			if err != nil {
				return err
			}
			tree, err := decodeTree(raw)
			if err != nil {
				return err
			}
			if _, dup := doc.Trees[tree.ID]; dup {
				return decodeErr("document", docTree, fmt.Errorf("duplicate tree %d", tree.ID))
			}
			doc.Trees[tree.ID] = tree
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func encodeTree(def *ir.TreeDefinition) ([]byte, error) {
	var b []byte
	b = appendSint(b, treeID, int64(def.ID))
	b = appendString(b, treeName, def.Name)
	b = appendSint(b, treeRoot, int64(def.RootID))
	for _, id := range slices.Sorted(maps.Keys(def.Nodes)) {
		node, err := encodeNode(def.Nodes[id])
		if err != nil {
			return nil, fmt.Errorf("ir codec: encode tree %d: %w", def.ID, err)
		}
		b = appendMessage(b, treeNode, node)
	}
	for _, key := range slices.Sorted(maps.Keys(def.Blackboard)) {
		var entry []byte
		entry = appendString(entry, entryKey, key)
		entry = appendMessage(entry, entryValue, encodeValue(def.Blackboard[key]))
		b = appendMessage(b, treeBlackboard, entry)
	}
	return b, nil
}

func decodeTree(raw []byte) (*ir.TreeDefinition, error) {
	def := ir.NewTreeDefinition(0, "")
	err := walk("tree", raw, func(f field) error {
		switch f.num {
		case treeID:
			v, err := f.sint()
			def.ID = ir.TreeID(v)
			return err
		case treeName:
			s, err := f.str()
			def.Name = s
			return err
		case treeRoot:
			v, err := f.sint()
			def.RootID = ir.NodeID(v)
			return err
		case treeNode:
			nb, err := f.bytes()
			if err != nil {
				return err
			}
			node, err := decodeNode(nb)
			if err != nil {
				return err
			}
			if _, dup := def.Nodes[node.ID]; dup {
				return decodeErr("tree", treeNode, fmt.Errorf("duplicate node %d", node.ID))
			}
			def.Nodes[node.ID] = node
		case treeBlackboard:
			eb, err := f.bytes()
			if err != nil {
				return err
			}
			return decodeEntry(eb, def.Blackboard)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return def, nil
}

func encodeNode(n *ir.NodeData) ([]byte, error) {
	if n.Payload == nil {
		return nil, fmt.Errorf("node %d: %w", n.ID, ir.ErrPayloadAbsent)
	}
	var b []byte
	b = appendSint(b, nodeID, int64(n.ID))
	b = appendUvarint(b, nodeType, uint64(n.Payload.Type()))
	if len(n.LinkedIDs) > 0 {
		var packed []byte
		for _, id := range n.LinkedIDs {
			packed = protowire.AppendVarint(packed, protowire.EncodeZigZag(int64(id)))
		}
		b = appendMessage(b, nodeLinked, packed)
	}
	b = appendMessage(b, nodePayload, encodePayload(n.Payload))
	return b, nil
}

func decodeNode(raw []byte) (*ir.NodeData, error) {
	n := &ir.NodeData{}
	var (
		tag     ir.NodeType
		payload []byte
		linked  []int64
	)
	err := walk("node", raw, func(f field) error {
		var err error
		switch f.num {
		case nodeID:
			var v int64
			v, err = f.sint()
			n.ID = ir.NodeID(v)
		case nodeType:
			var v uint32
			v, err = f.uvarint32()
			tag = ir.NodeType(v)
		case nodeLinked:
			linked, err = f.sints(linked)
		case nodePayload:
			payload, err = f.bytes()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if tag == ir.NodeTypeInvalid {
		return nil, decodeErr("node", nodeType, fmt.Errorf("node %d has no type tag", n.ID))
	}
	if len(linked) > 0 {
		n.LinkedIDs = make([]ir.NodeID, len(linked))
		for i, id := range linked {
			n.LinkedIDs[i] = ir.NodeID(id)
		}
	}
	n.Payload, err = decodePayload(tag, payload)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func encodeValue(v ir.Value) []byte {
	var b []byte
	b = appendUvarint(b, valueKind, uint64(v.Kind))
	switch v.Kind {
	case ir.KindBool:
		b = appendBool(b, valueBool, v.Bool)
	case ir.KindInt:
		b = appendSint(b, valueInt, v.Int)
	case ir.KindFloat:
		b = appendFixed64(b, valueFloat, math.Float64bits(v.Float))
	case ir.KindString:
		b = appendString(b, valueStr, v.Str)
	}
	return b
}

func decodeValue(raw []byte) (ir.Value, error) {
	var v ir.Value
	err := walk("value", raw, func(f field) error {
		var err error
		switch f.num {
		case valueKind:
			var k uint8
			k, err = f.uvarint8()
			v.Kind = ir.ValueKind(k)
		case valueBool:
			v.Bool, err = f.boolean()
		case valueInt:
			v.Int, err = f.sint()
		case valueFloat:
			var bits uint64
			bits, err = f.fixed64()
			v.Float = math.Float64frombits(bits)
		case valueStr:
			v.Str, err = f.str()
		}
		return err
	})
	return v, err
}

func decodeEntry(raw []byte, into map[string]ir.Value) error {
	var (
		key string
		val ir.Value
	)
	err := walk("blackboard entry", raw, func(f field) error {
		var err error
		switch f.num {
		case entryKey:
			key, err = f.str()
		case entryValue:
			var vb []byte
			if vb, err = f.bytes(); err == nil {
				val, err = decodeValue(vb)
			}
		}
		return err
	})
	if err != nil {
		return err
	}
	into[key] = val
	return nil
}
