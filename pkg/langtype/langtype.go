// Package langtype defines the closed set of types available to the source
// language along with the byte size each one occupies when stored through a
// MutPtr. This mirrors the role pkg/jack/jack.go's DataType enum plays for
// the Jack language, generalized to a recursive structure (Tuple and
// MutPtr both nest another Type) because this language's type system, unlike
// Jack's, has composite types.
package langtype

import "fmt"

// Kind enumerates the base and composite type constructors.
type Kind string

const (
	Unit     Kind = "unit"
	Int      Kind = "int"
	Bool     Kind = "bool"
	String   Kind = "string"
	MutPtr   Kind = "mut_ptr"
	Tuple    Kind = "tuple"
	Function Kind = "function"
)

// Type is a tagged union over Kind. Elem is populated for MutPtr, Elems for
// Tuple, and Args/Ret for Function; all other fields are zero otherwise.
type Type struct {
	Kind  Kind
	Elem  *Type  // MutPtr pointee type
	Elems []Type // Tuple component types
	Args  []Type // Function argument types
	Ret   *Type  // Function return type
}

func NewUnit() Type   { return Type{Kind: Unit} }
func NewInt() Type    { return Type{Kind: Int} }
func NewBool() Type   { return Type{Kind: Bool} }
func NewString() Type { return Type{Kind: String} }

func NewMutPtr(pointee Type) Type { return Type{Kind: MutPtr, Elem: &pointee} }
func NewTuple(elems ...Type) Type { return Type{Kind: Tuple, Elems: elems} }
func NewFunction(args []Type, ret Type) Type {
	return Type{Kind: Function, Args: args, Ret: &ret}
}

// Size returns the number of bytes a value of this type occupies in the heap.
// String and Function have no in-memory representation (size 0); storing
// either through a pointer is rejected at the value-encoding layer, not here.
func (t Type) Size() int {
	switch t.Kind {
	case Unit:
		return 1
	case Int:
		return 4
	case Bool:
		return 1
	case Tuple:
		total := 0
		for _, elem := range t.Elems {
			total += elem.Size()
		}
		return total
	case MutPtr:
		return 9 // 1 tag byte + 4 size bytes + 4 offset bytes
	case String, Function:
		return 0
	default:
		return 0
	}
}

// Equal reports structural equality, used by the evaluator's dynamic type
// checks (argument/return/Print type matches).
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case MutPtr:
		return t.Elem.Equal(*other.Elem)
	case Tuple:
		if len(t.Elems) != len(other.Elems) {
			return false
		}
		for i := range t.Elems {
			if !t.Elems[i].Equal(other.Elems[i]) {
				return false
			}
		}
		return true
	case Function:
		if len(t.Args) != len(other.Args) || !t.Ret.Equal(*other.Ret) {
			return false
		}
		for i := range t.Args {
			if !t.Args[i].Equal(other.Args[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String renders a human-readable type signature, used in error messages.
func (t Type) String() string {
	switch t.Kind {
	case MutPtr:
		return fmt.Sprintf("MutPtr(%s)", t.Elem.String())
	case Tuple:
		return fmt.Sprintf("Tuple%v", t.Elems)
	case Function:
		return fmt.Sprintf("Function(%v) -> %s", t.Args, t.Ret.String())
	default:
		return string(t.Kind)
	}
}
