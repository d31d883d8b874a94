package queryir

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/filtersql/internal/ir"
)

// Member is one key/value pair of a filter object.
type Member struct {
	Key   string
	Value any // ir.IRValue scalar, []any, or Object
}

// Object is a filter object with its members in source order.
//
// Member order decides the order in which sibling conditions are compiled,
// so decoders preserve it: JSON and YAML keep document order, CUE keeps
// declaration order, and native Go maps are sorted by key (RFC 8785 order)
// because they have none.
type Object []Member

// set replaces the value of an existing key in place, or appends a new member.
// A repeated key keeps its first position and its last value.
func (o Object) set(key string, value any) Object {
	for i := range o {
		if o[i].Key == key {
			o[i].Value = value
			return o
		}
	}
	return append(o, Member{Key: key, Value: value})
}

// Get returns the value for key and whether it is present.
func (o Object) Get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// IR converts the object into an ir.IRObject. Member order is dropped.
func (o Object) IR() ir.IRObject {
	return valueOf(o).(ir.IRObject)
}

// NewObject builds an Object from members, applying the repeated-key rule.
func NewObject(members ...Member) Object {
	var o Object
	for _, m := range members {
		o = o.set(m.Key, m.Value)
	}
	return o
}

// DecodeJSON decodes a JSON filter object, preserving member order.
func DecodeJSON(data []byte) (Object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, fmt.Errorf("decode filter JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode filter JSON: trailing data after filter object")
	}

	obj, ok := v.(Object)
	if !ok {
		return nil, NewTypeMismatch("", "", "filter must be a JSON object, got %s", rawTypeName(v))
	}
	return obj, nil
}

// decodeJSONValue reads one complete JSON value from dec.
func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var obj Object
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("expected object key, got %v", keyTok)
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				obj = obj.set(key, val)
			}
			if _, err := dec.Token(); err != nil { // closing '}'
				return nil, err
			}
			if obj == nil {
				obj = Object{}
			}
			return obj, nil
		case '[':
			arr := []any{}
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil { // closing ']'
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	case json.Number:
		return ir.ParseNumber(string(t))
	case string:
		return ir.IRString(t), nil
	case bool:
		return ir.IRBool(t), nil
	case nil:
		return ir.IRNull{}, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

// DecodeYAML decodes a YAML filter mapping, preserving member order.
func DecodeYAML(data []byte) (Object, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode filter YAML: %w", err)
	}
	if doc.Kind == 0 {
		return Object{}, nil
	}
	return FromYAMLNode(&doc)
}

// FromYAMLNode converts a parsed YAML node (document or mapping) into an Object.
func FromYAMLNode(node *yaml.Node) (Object, error) {
	v, err := decodeYAMLNode(node)
	if err != nil {
		return nil, fmt.Errorf("decode filter YAML: %w", err)
	}
	obj, ok := v.(Object)
	if !ok {
		return nil, NewTypeMismatch("", "", "filter must be a mapping, got %s", rawTypeName(v))
	}
	return obj, nil
}

func decodeYAMLNode(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Object{}, nil
		}
		return decodeYAMLNode(node.Content[0])
	case yaml.AliasNode:
		return decodeYAMLNode(node.Alias)
	case yaml.MappingNode:
		obj := Object{}
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
			}
			val, err := decodeYAMLNode(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj = obj.set(keyNode.Value, val)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			val, err := decodeYAMLNode(child)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		return arr, nil
	case yaml.ScalarNode:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		if _, ok := v.(time.Time); ok {
			// Timestamps compare as text, exactly as written.
			v = node.Value
		}
		irv, err := ir.FromGo(v)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return irv, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", node.Line, node.Kind)
	}
}

// FromMap converts a native Go map into an Object. Keys are sorted in
// RFC 8785 order at every level so that the result is deterministic.
func FromMap(m map[string]any) (Object, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, ir.CompareKeys)

	obj := make(Object, 0, len(keys))
	for _, k := range keys {
		v, err := fromGoValue(m[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		obj = append(obj, Member{Key: k, Value: v})
	}
	return obj, nil
}

// fromGoValue converts an arbitrary Go value into the raw form used by Object.
func fromGoValue(v any) (any, error) {
	switch val := v.(type) {
	case Object:
		return val, nil
	case map[string]any:
		return FromMap(val)
	case ir.IRObject:
		m := make(map[string]any, len(val))
		for k, elem := range val {
			m[k] = elem
		}
		return FromMap(m)
	case []any:
		arr := make([]any, len(val))
		for i, elem := range val {
			e, err := fromGoValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = e
		}
		return arr, nil
	case ir.IRArray:
		arr := make([]any, len(val))
		for i, elem := range val {
			e, err := fromGoValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = e
		}
		return arr, nil
	default:
		return ir.FromGo(v)
	}
}

// valueOf converts a raw member value into an IRValue.
func valueOf(v any) ir.IRValue {
	switch val := v.(type) {
	case Object:
		obj := make(ir.IRObject, len(val))
		for _, m := range val {
			obj[m.Key] = valueOf(m.Value)
		}
		return obj
	case []any:
		arr := make(ir.IRArray, len(val))
		for i, elem := range val {
			arr[i] = valueOf(elem)
		}
		return arr
	case ir.IRValue:
		return val
	default:
		return ir.IRNull{}
	}
}

// rawTypeName returns the JSON type name of a raw member value.
func rawTypeName(v any) string {
	switch val := v.(type) {
	case Object:
		return "object"
	case []any:
		return "array"
	case ir.IRValue:
		return ir.TypeName(val)
	default:
		return fmt.Sprintf("%T", v)
	}
}
