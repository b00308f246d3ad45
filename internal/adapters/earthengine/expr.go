package earthengine

import (
	"encoding/json"
	"strconv"
)

// Expr is a node in an Earth Engine computation graph. Build nodes with
// Constant, Invoke, Array and Dict; nothing is evaluated locally.
type Expr struct {
	kind     exprKind
	constant any
	fn       string
	args     map[string]*Expr
	items    []*Expr
	entries  map[string]*Expr
}

type exprKind int

const (
	kindConstant exprKind = iota
	kindInvocation
	kindArray
	kindDict
)

// Constant wraps a JSON-encodable literal.
func Constant(v any) *Expr {
	return &Expr{kind: kindConstant, constant: v}
}

// Invoke calls a server-side algorithm. Nil arguments are dropped.
func Invoke(fn string, args map[string]*Expr) *Expr {
	clean := make(map[string]*Expr, len(args))
	for k, v := range args {
		if v != nil {
			clean[k] = v
		}
	}
	return &Expr{kind: kindInvocation, fn: fn, args: clean}
}

// Array builds a list whose elements are themselves expressions.
func Array(items ...*Expr) *Expr {
	return &Expr{kind: kindArray, items: items}
}

// Dict builds a dictionary whose values are expressions.
func Dict(entries map[string]*Expr) *Expr {
	return &Expr{kind: kindDict, entries: entries}
}

// Expression is the serialized graph sent in value:compute requests.
// Values holds every function invocation once; Result names the root.
type Expression struct {
	Result string                     `json:"result"`
	Values map[string]json.RawMessage `json:"values"`
}

// Serialize flattens e into an Expression. Structurally identical
// invocations are stored once and shared through valueReference nodes.
func Serialize(e *Expr) (*Expression, error) {
	s := &serializer{
		values: map[string]json.RawMessage{},
		seen:   map[string]string{},
	}
	root, err := s.node(e)
	if err != nil {
		return nil, err
	}

	// A bare constant root still needs a values entry to point at.
	if ref, ok := root["valueReference"].(string); ok {
		return &Expression{Result: ref, Values: s.values}, nil
	}
	ref, err := s.store(root)
	if err != nil {
		return nil, err
	}
	return &Expression{Result: ref, Values: s.values}, nil
}

type serializer struct {
	values map[string]json.RawMessage
	seen   map[string]string
}

func (s *serializer) node(e *Expr) (map[string]any, error) {
	switch e.kind {
	case kindConstant:
		return map[string]any{"constantValue": e.constant}, nil

	case kindArray:
		vals := make([]map[string]any, 0, len(e.items))
		for _, it := range e.items {
			n, err := s.node(it)
			if err != nil {
				return nil, err
			}
			vals = append(vals, n)
		}
		return map[string]any{"arrayValue": map[string]any{"values": vals}}, nil

	case kindDict:
		vals := make(map[string]map[string]any, len(e.entries))
		for k, it := range e.entries {
			n, err := s.node(it)
			if err != nil {
				return nil, err
			}
			vals[k] = n
		}
		return map[string]any{"dictionaryValue": map[string]any{"values": vals}}, nil

	default:
		args := make(map[string]map[string]any, len(e.args))
		for k, it := range e.args {
			n, err := s.node(it)
			if err != nil {
				return nil, err
			}
			args[k] = n
		}
		inv := map[string]any{
			"functionInvocationValue": map[string]any{
				"functionName": e.fn,
				"arguments":    args,
			},
		}
		ref, err := s.store(inv)
		if err != nil {
			return nil, err
		}
		return map[string]any{"valueReference": ref}, nil
	}
}

// store registers n under the next free key, reusing the key of an
// identical node. json.Marshal sorts map keys, so equal nodes encode equally.
func (s *serializer) store(n map[string]any) (string, error) {
	raw, err := json.Marshal(n)
	if err != nil {
		return "", err
	}
	if ref, ok := s.seen[string(raw)]; ok {
		return ref, nil
	}
	ref := strconv.Itoa(len(s.values))
	s.values[ref] = raw
	s.seen[string(raw)] = ref
	return ref, nil
}
