package ast

import (
	"encoding/json"
	"fmt"

	"github.com/hmny-dyro/anfvm/pkg/langtype"
)

// wireNode is the on-disk shape of a Node: a "kind" discriminator plus the
// union of every variant's fields, the same flattened-enum-as-JSON idiom the
// teacher uses for its own string-enum types (jack.DataType, jack.ExprType)
// and the vehicle for cmd/anfrun's //go:embed'ed sample programs.
type wireNode struct {
	Kind string `json:"kind"`

	Value  *int32  `json:"value,omitempty"`
	Bool   *bool   `json:"bool,omitempty"`
	String *string `json:"string,omitempty"`
	Name   *string `json:"name,omitempty"`

	Binding *string         `json:"binding,omitempty"`
	Args    []wireParam     `json:"args,omitempty"`
	Return  *wireType       `json:"return,omitempty"`
	Type    *wireType       `json:"type,omitempty"`
	Body    *wireNode       `json:"body,omitempty"`
	Inner   *wireNode       `json:"value_node,omitempty"`
	Cond    *wireNode       `json:"cond,omitempty"`
	Then    *wireNode       `json:"then,omitempty"`
	Else    *wireNode       `json:"else,omitempty"`

	Fn       *wireNode   `json:"fn,omitempty"`
	TypeArgs []wireType  `json:"type_args,omitempty"`
	CallArgs []wireNode  `json:"call_args,omitempty"`

	Elements []wireNode `json:"elements,omitempty"`
	Tuple    *wireNode  `json:"tuple,omitempty"`
	Index    *int       `json:"index,omitempty"`
	IndexExp *wireNode  `json:"index_expr,omitempty"`

	Array *wireNode `json:"array,omitempty"`
	Val   *wireNode `json:"set_value,omitempty"`

	First  *wireNode `json:"first,omitempty"`
	Second *wireNode `json:"second,omitempty"`

	Op      *string   `json:"op,omitempty"`
	Operand *wireNode `json:"operand,omitempty"`
	Left    *wireNode `json:"left,omitempty"`
	Right   *wireNode `json:"right,omitempty"`
}

type wireParam struct {
	Name string   `json:"name"`
	Type wireType `json:"type"`
}

// wireType mirrors langtype.Type's recursive shape for JSON round-tripping.
type wireType struct {
	Kind  string     `json:"kind"`
	Elem  *wireType  `json:"elem,omitempty"`
	Elems []wireType `json:"elems,omitempty"`
	Args  []wireType `json:"args,omitempty"`
	Ret   *wireType  `json:"ret,omitempty"`
}

func typeToWire(t langtype.Type) wireType {
	w := wireType{Kind: string(t.Kind)}
	if t.Elem != nil {
		e := typeToWire(*t.Elem)
		w.Elem = &e
	}
	for _, e := range t.Elems {
		w.Elems = append(w.Elems, typeToWire(e))
	}
	for _, a := range t.Args {
		w.Args = append(w.Args, typeToWire(a))
	}
	if t.Ret != nil {
		r := typeToWire(*t.Ret)
		w.Ret = &r
	}
	return w
}

func wireToType(w wireType) langtype.Type {
	t := langtype.Type{Kind: langtype.Kind(w.Kind)}
	if w.Elem != nil {
		e := wireToType(*w.Elem)
		t.Elem = &e
	}
	for _, e := range w.Elems {
		t.Elems = append(t.Elems, wireToType(e))
	}
	for _, a := range w.Args {
		t.Args = append(t.Args, wireToType(a))
	}
	if w.Ret != nil {
		r := wireToType(*w.Ret)
		t.Ret = &r
	}
	return t
}

// Node has no MarshalJSON/UnmarshalJSON methods, since it is just a marker
// interface; the free functions ToJSON and FromJSON below give it a concrete
// JSON encoding.

// ToJSON serializes a Node tree to its wire representation.
func ToJSON(n Node) ([]byte, error) {
	w, err := nodeToWire(n)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(w, "", "  ")
}

// FromJSON deserializes a Node tree from its wire representation.
func FromJSON(data []byte) (Node, error) {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("error decoding AST JSON: %w", err)
	}
	return wireToNode(&w)
}

func nodeToWire(n Node) (*wireNode, error) {
	switch t := n.(type) {
	case UnitLit:
		return &wireNode{Kind: "unit"}, nil
	case IntLit:
		v := t.Value
		return &wireNode{Kind: "int", Value: &v}, nil
	case BoolLit:
		v := t.Value
		return &wireNode{Kind: "bool", Bool: &v}, nil
	case StringLit:
		v := t.Value
		return &wireNode{Kind: "string", String: &v}, nil
	case Var:
		return &wireNode{Kind: "var", Name: &t.Name}, nil
	case PrimRef:
		return &wireNode{Kind: "prim_ref", Name: &t.Name}, nil
	case Let:
		value, err := nodeToWire(t.Value)
		if err != nil {
			return nil, err
		}
		body, err := nodeToWire(t.Body)
		if err != nil {
			return nil, err
		}
		return &wireNode{Kind: "let", Binding: &t.Binding, Inner: value, Body: body}, nil
	case LetFn:
		value, err := nodeToWire(t.Value)
		if err != nil {
			return nil, err
		}
		body, err := nodeToWire(t.Body)
		if err != nil {
			return nil, err
		}
		args := make([]wireParam, len(t.Args))
		for i, a := range t.Args {
			args[i] = wireParam{Name: a.Name, Type: typeToWire(a.Type)}
		}
		ret := typeToWire(t.Return)
		return &wireNode{Kind: "let_fn", Name: &t.Name, Args: args, Return: &ret, Inner: value, Body: body}, nil
	case If:
		cond, err := nodeToWire(t.Cond)
		if err != nil {
			return nil, err
		}
		then, err := nodeToWire(t.Then)
		if err != nil {
			return nil, err
		}
		els, err := nodeToWire(t.Else)
		if err != nil {
			return nil, err
		}
		ty := typeToWire(t.Type)
		return &wireNode{Kind: "if", Cond: cond, Then: then, Else: els, Type: &ty}, nil
	case Call:
		fn, err := nodeToWire(t.Fn)
		if err != nil {
			return nil, err
		}
		typeArgs := make([]wireType, len(t.TypeArgs))
		for i, ta := range t.TypeArgs {
			typeArgs[i] = typeToWire(ta)
		}
		callArgs := make([]wireNode, len(t.Args))
		for i, a := range t.Args {
			w, err := nodeToWire(a)
			if err != nil {
				return nil, err
			}
			callArgs[i] = *w
		}
		return &wireNode{Kind: "call", Fn: fn, TypeArgs: typeArgs, CallArgs: callArgs}, nil
	case TupleExpr:
		elems := make([]wireNode, len(t.Elements))
		for i, e := range t.Elements {
			w, err := nodeToWire(e)
			if err != nil {
				return nil, err
			}
			elems[i] = *w
		}
		return &wireNode{Kind: "tuple", Elements: elems}, nil
	case TupleAccess:
		tuple, err := nodeToWire(t.Tuple)
		if err != nil {
			return nil, err
		}
		idx := t.Index
		return &wireNode{Kind: "tuple_access", Tuple: tuple, Index: &idx}, nil
	case ArrayRead:
		array, err := nodeToWire(t.Array)
		if err != nil {
			return nil, err
		}
		index, err := nodeToWire(t.Index)
		if err != nil {
			return nil, err
		}
		return &wireNode{Kind: "array_read", Array: array, IndexExp: index}, nil
	case ArraySet:
		array, err := nodeToWire(t.Array)
		if err != nil {
			return nil, err
		}
		index, err := nodeToWire(t.Index)
		if err != nil {
			return nil, err
		}
		value, err := nodeToWire(t.Value)
		if err != nil {
			return nil, err
		}
		return &wireNode{Kind: "array_set", Array: array, IndexExp: index, Val: value}, nil
	case Sequence:
		first, err := nodeToWire(t.First)
		if err != nil {
			return nil, err
		}
		second, err := nodeToWire(t.Second)
		if err != nil {
			return nil, err
		}
		return &wireNode{Kind: "sequence", First: first, Second: second}, nil
	case UnaryOp:
		op := string(t.Op)
		operand, err := nodeToWire(t.Operand)
		if err != nil {
			return nil, err
		}
		return &wireNode{Kind: "unary_op", Op: &op, Operand: operand}, nil
	case BinaryOp:
		op := string(t.Op)
		left, err := nodeToWire(t.Left)
		if err != nil {
			return nil, err
		}
		right, err := nodeToWire(t.Right)
		if err != nil {
			return nil, err
		}
		return &wireNode{Kind: "binary_op", Op: &op, Left: left, Right: right}, nil
	default:
		return nil, fmt.Errorf("unrecognized AST node for JSON encoding: %T", n)
	}
}

func wireToNode(w *wireNode) (Node, error) {
	if w == nil {
		return nil, fmt.Errorf("unexpected nil AST node")
	}

	switch w.Kind {
	case "unit":
		return UnitLit{}, nil
	case "int":
		if w.Value == nil {
			return nil, fmt.Errorf("int node missing 'value'")
		}
		return IntLit{Value: *w.Value}, nil
	case "bool":
		if w.Bool == nil {
			return nil, fmt.Errorf("bool node missing 'bool'")
		}
		return BoolLit{Value: *w.Bool}, nil
	case "string":
		if w.String == nil {
			return nil, fmt.Errorf("string node missing 'string'")
		}
		return StringLit{Value: *w.String}, nil
	case "var":
		if w.Name == nil {
			return nil, fmt.Errorf("var node missing 'name'")
		}
		return Var{Name: *w.Name}, nil
	case "prim_ref":
		if w.Name == nil {
			return nil, fmt.Errorf("prim_ref node missing 'name'")
		}
		return PrimRef{Name: *w.Name}, nil
	case "let":
		value, err := wireToNode(w.Inner)
		if err != nil {
			return nil, fmt.Errorf("error decoding let value: %w", err)
		}
		body, err := wireToNode(w.Body)
		if err != nil {
			return nil, fmt.Errorf("error decoding let body: %w", err)
		}
		if w.Binding == nil {
			return nil, fmt.Errorf("let node missing 'binding'")
		}
		return Let{Binding: *w.Binding, Value: value, Body: body}, nil
	case "let_fn":
		value, err := wireToNode(w.Inner)
		if err != nil {
			return nil, fmt.Errorf("error decoding let_fn value: %w", err)
		}
		body, err := wireToNode(w.Body)
		if err != nil {
			return nil, fmt.Errorf("error decoding let_fn body: %w", err)
		}
		if w.Name == nil || w.Return == nil {
			return nil, fmt.Errorf("let_fn node missing 'name' or 'return'")
		}
		var args []Param
		for _, a := range w.Args {
			args = append(args, Param{Name: a.Name, Type: wireToType(a.Type)})
		}
		return LetFn{Name: *w.Name, Args: args, Return: wireToType(*w.Return), Value: value, Body: body}, nil
	case "if":
		cond, err := wireToNode(w.Cond)
		if err != nil {
			return nil, fmt.Errorf("error decoding if condition: %w", err)
		}
		then, err := wireToNode(w.Then)
		if err != nil {
			return nil, fmt.Errorf("error decoding if then-branch: %w", err)
		}
		els, err := wireToNode(w.Else)
		if err != nil {
			return nil, fmt.Errorf("error decoding if else-branch: %w", err)
		}
		if w.Type == nil {
			return nil, fmt.Errorf("if node missing 'type'")
		}
		return If{Cond: cond, Then: then, Else: els, Type: wireToType(*w.Type)}, nil
	case "call":
		fn, err := wireToNode(w.Fn)
		if err != nil {
			return nil, fmt.Errorf("error decoding call function: %w", err)
		}
		var typeArgs []langtype.Type
		for _, ta := range w.TypeArgs {
			typeArgs = append(typeArgs, wireToType(ta))
		}
		var args []Node
		for i := range w.CallArgs {
			n, err := wireToNode(&w.CallArgs[i])
			if err != nil {
				return nil, fmt.Errorf("error decoding call argument %d: %w", i, err)
			}
			args = append(args, n)
		}
		return Call{Fn: fn, TypeArgs: typeArgs, Args: args}, nil
	case "tuple":
		var elems []Node
		for i := range w.Elements {
			n, err := wireToNode(&w.Elements[i])
			if err != nil {
				return nil, fmt.Errorf("error decoding tuple element %d: %w", i, err)
			}
			elems = append(elems, n)
		}
		return TupleExpr{Elements: elems}, nil
	case "tuple_access":
		tuple, err := wireToNode(w.Tuple)
		if err != nil {
			return nil, fmt.Errorf("error decoding tuple_access tuple: %w", err)
		}
		if w.Index == nil {
			return nil, fmt.Errorf("tuple_access node missing 'index'")
		}
		return TupleAccess{Tuple: tuple, Index: *w.Index}, nil
	case "array_read":
		array, err := wireToNode(w.Array)
		if err != nil {
			return nil, fmt.Errorf("error decoding array_read array: %w", err)
		}
		index, err := wireToNode(w.IndexExp)
		if err != nil {
			return nil, fmt.Errorf("error decoding array_read index: %w", err)
		}
		return ArrayRead{Array: array, Index: index}, nil
	case "array_set":
		array, err := wireToNode(w.Array)
		if err != nil {
			return nil, fmt.Errorf("error decoding array_set array: %w", err)
		}
		index, err := wireToNode(w.IndexExp)
		if err != nil {
			return nil, fmt.Errorf("error decoding array_set index: %w", err)
		}
		value, err := wireToNode(w.Val)
		if err != nil {
			return nil, fmt.Errorf("error decoding array_set value: %w", err)
		}
		return ArraySet{Array: array, Index: index, Value: value}, nil
	case "sequence":
		first, err := wireToNode(w.First)
		if err != nil {
			return nil, fmt.Errorf("error decoding sequence first: %w", err)
		}
		second, err := wireToNode(w.Second)
		if err != nil {
			return nil, fmt.Errorf("error decoding sequence second: %w", err)
		}
		return Sequence{First: first, Second: second}, nil
	case "unary_op":
		if w.Op == nil {
			return nil, fmt.Errorf("unary_op node missing 'op'")
		}
		operand, err := wireToNode(w.Operand)
		if err != nil {
			return nil, fmt.Errorf("error decoding unary_op operand: %w", err)
		}
		return UnaryOp{Op: UnaryOpKind(*w.Op), Operand: operand}, nil
	case "binary_op":
		if w.Op == nil {
			return nil, fmt.Errorf("binary_op node missing 'op'")
		}
		left, err := wireToNode(w.Left)
		if err != nil {
			return nil, fmt.Errorf("error decoding binary_op left: %w", err)
		}
		right, err := wireToNode(w.Right)
		if err != nil {
			return nil, fmt.Errorf("error decoding binary_op right: %w", err)
		}
		return BinaryOp{Op: BinaryOpKind(*w.Op), Left: left, Right: right}, nil
	default:
		return nil, fmt.Errorf("unrecognized AST node kind %q", w.Kind)
	}
}
