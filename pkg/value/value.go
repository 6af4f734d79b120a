// Package value implements the runtime value domain: construction, byte
// encoding/decoding, reflected-type extraction, and human-readable
// rendering. It mirrors the role interpreter.rs's Value enum and its
// to_bytes/from_bytes/anf_type/to_readable_string methods play in the
// original evaluator, restructured as a marker interface in the style of
// pkg/jack/jack.go rather than a tagged enum.
package value

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/hmny-dyro/anfvm/pkg/anf"
	"github.com/hmny-dyro/anfvm/pkg/langerr"
	"github.com/hmny-dyro/anfvm/pkg/langtype"
)

// Value is the marker interface for every runtime value variant.
type Value interface {
	isValue()
	// Type reflects the value's own type, used by the evaluator's dynamic
	// argument/return/Print checks.
	Type() langtype.Type
	// String renders a human-readable form, used by Print and error messages.
	String() string
}

type Unit struct{}
type Int struct{ Value int32 }
type Bool struct{ Value bool }
type String struct{ Value string }
type Tuple struct{ Elements []Value }
type PrimRef struct{ Name string }

// Function captures its parameter list, return type, and body term by
// value. There is no environment: a call resolves free names dynamically
// through the caller's frame chain (see spec.md §9).
type Function struct {
	Args []anf.FnArg
	Ret  langtype.Type
	Body anf.Node
}

func (Unit) isValue()     {}
func (Int) isValue()      {}
func (Bool) isValue()     {}
func (String) isValue()   {}
func (Tuple) isValue()    {}
func (PrimRef) isValue()  {}
func (Function) isValue() {}

func (Unit) Type() langtype.Type   { return langtype.NewUnit() }
func (Int) Type() langtype.Type    { return langtype.NewInt() }
func (Bool) Type() langtype.Type   { return langtype.NewBool() }
func (String) Type() langtype.Type { return langtype.NewString() }

func (t Tuple) Type() langtype.Type {
	elems := make([]langtype.Type, len(t.Elements))
	for i, e := range t.Elements {
		elems[i] = e.Type()
	}
	return langtype.NewTuple(elems...)
}

// PrimRef has no declarable source-level type: its reflected kind
// "primitive" matches no langtype kind, so any type-equality check against
// it fails. Function reflects as a langtype Function built from its
// parameter and return types.
func (PrimRef) Type() langtype.Type { return langtype.Type{Kind: "primitive"} }
func (f Function) Type() langtype.Type {
	args := make([]langtype.Type, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.Type
	}
	return langtype.NewFunction(args, f.Ret)
}

func (Unit) String() string       { return "()" }
func (v Int) String() string      { return fmt.Sprintf("%d", v.Value) }
func (v Bool) String() string     { return fmt.Sprintf("%t", v.Value) }
func (v String) String() string   { return v.Value }
func (v PrimRef) String() string  { return fmt.Sprintf("<primitive %s>", v.Name) }
func (f Function) String() string { return fmt.Sprintf("<function %s>", f.Type()) }

func (t Tuple) String() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Location is where a MutPtr's bytes live. The Stack variant exists only to
// mirror the reference model's location tag; no runtime path produces one
// (spec.md's Non-goals), so any evaluator code that encounters it returns
// langerr.UnimplementedError.
type Location struct {
	IsHeap bool
	Offset uint32
}

func StackLoc(offset uint32) Location { return Location{IsHeap: false, Offset: offset} }
func HeapLoc(offset uint32) Location  { return Location{IsHeap: true, Offset: offset} }

// MutPtr is a typed, sized pointer into the heap.
type MutPtr struct {
	Location  Location
	Pointee   langtype.Type
	SizeBytes uint32
}

func (MutPtr) isValue() {}

func (p MutPtr) Type() langtype.Type { return langtype.NewMutPtr(p.Pointee) }

func (p MutPtr) String() string {
	kind := "Heap"
	if !p.Location.IsHeap {
		kind = "Stack"
	}
	return fmt.Sprintf("<MutPtr %s(%d) size=%d>", kind, p.Location.Offset, p.SizeBytes)
}

// Bytes encodes v per spec.md's "Value byte encoding" table. String,
// Function, and PrimRef have no representation and return a TypeError.
func Bytes(v Value) ([]byte, error) {
	switch t := v.(type) {
	case Unit:
		return []byte{0}, nil
	case Int:
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(t.Value))
		return buf, nil
	case Bool:
		if t.Value {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case Tuple:
		var out []byte
		for _, elem := range t.Elements {
			b, err := Bytes(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, b...)
		}
		return out, nil
	case MutPtr:
		buf := make([]byte, 9)
		if t.Location.IsHeap {
			buf[0] = 2
		} else {
			buf[0] = 1
		}
		binary.LittleEndian.PutUint32(buf[1:5], t.SizeBytes)
		binary.LittleEndian.PutUint32(buf[5:9], t.Location.Offset)
		return buf, nil
	default:
		return nil, &langerr.TypeError{Context: fmt.Sprintf("cannot encode value of type %s to bytes", v.Type())}
	}
}

// FromBytes decodes data as a value of type t. Any unknown tag or
// wrong-length input is a TypeError.
func FromBytes(data []byte, t langtype.Type) (Value, error) {
	switch t.Kind {
	case langtype.Unit:
		if len(data) != 1 {
			return nil, &langerr.TypeError{Context: "Invalid size decoding Unit"}
		}
		return Unit{}, nil
	case langtype.Int:
		if len(data) != 4 {
			return nil, &langerr.TypeError{Context: "Invalid size decoding Int"}
		}
		return Int{Value: int32(binary.LittleEndian.Uint32(data))}, nil
	case langtype.Bool:
		if len(data) != 1 {
			return nil, &langerr.TypeError{Context: "Invalid size decoding Bool"}
		}
		switch data[0] {
		case 0:
			return Bool{Value: false}, nil
		case 1:
			return Bool{Value: true}, nil
		default:
			return nil, &langerr.TypeError{Context: "invalid byte decoding Bool"}
		}
	case langtype.Tuple:
		elems := make([]Value, len(t.Elems))
		offset := 0
		for i, elemType := range t.Elems {
			size := elemType.Size()
			if offset+size > len(data) {
				return nil, &langerr.TypeError{Context: "Invalid size decoding Tuple"}
			}
			elem, err := FromBytes(data[offset:offset+size], elemType)
			if err != nil {
				return nil, err
			}
			elems[i] = elem
			offset += size
		}
		if offset != len(data) {
			return nil, &langerr.TypeError{Context: "Invalid size decoding Tuple"}
		}
		return Tuple{Elements: elems}, nil
	case langtype.MutPtr:
		if len(data) != 9 {
			return nil, &langerr.TypeError{Context: "Invalid size decoding MutPtr"}
		}
		var loc Location
		switch data[0] {
		case 1:
			loc = StackLoc(binary.LittleEndian.Uint32(data[5:9]))
		case 2:
			loc = HeapLoc(binary.LittleEndian.Uint32(data[5:9]))
		default:
			return nil, &langerr.TypeError{Context: "invalid tag decoding MutPtr"}
		}
		size := binary.LittleEndian.Uint32(data[1:5])
		return MutPtr{Location: loc, Pointee: *t.Elem, SizeBytes: size}, nil
	default:
		return nil, &langerr.TypeError{Context: fmt.Sprintf("cannot decode bytes as type %s", t)}
	}
}
