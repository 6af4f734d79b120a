// Package ast declares the tree-shaped surface term fed into the lowering
// pass. It is consumed as an already-built data structure — there is no
// parser in this repository, by design (see spec.md §1).
//
// The shape follows pkg/jack/jack.go's convention for the teacher's own
// surface language: a shared marker interface per syntactic category
// (here just one, Node, since the source language has no separate
// statement/expression split) and one doc-commented struct per variant.
package ast

import "github.com/hmny-dyro/anfvm/pkg/langtype"

// Node is the marker interface for every AST variant. Implementations are
// exhaustively handled by pkg/lower's type switch.
type Node interface{ isNode() }

// ----------------------------------------------------------------------------
// Literals

type UnitLit struct{}
type IntLit struct{ Value int32 }
type BoolLit struct{ Value bool }

// StringLit is a string literal; its usual use is the message argument of a
// Panic call. Strings have no byte encoding, so they cannot be stored on the heap.
type StringLit struct{ Value string }

func (UnitLit) isNode()   {}
func (IntLit) isNode()    {}
func (BoolLit) isNode()   {}
func (StringLit) isNode() {}

// ----------------------------------------------------------------------------
// References

// Var is a reference to a variable by its source name.
type Var struct{ Name string }

// PrimRef is a reference to one of the built-in primitives (alloc, dealloc, print, panic).
type PrimRef struct{ Name string }

func (Var) isNode()     {}
func (PrimRef) isNode() {}

// ----------------------------------------------------------------------------
// Binding forms

// Let binds the value of Value to Binding and continues with Body.
type Let struct {
	Binding string
	Value   Node
	Body    Node
}

// LetFn binds a (potentially recursive) named function: Name is visible
// inside Value's own body, enabling direct recursion.
type LetFn struct {
	Name   string
	Args   []Param
	Return langtype.Type
	Value  Node
	Body   Node
}

// Param is one function argument: a source name paired with its declared type.
type Param struct {
	Name string
	Type langtype.Type
}

func (Let) isNode()   {}
func (LetFn) isNode() {}

// ----------------------------------------------------------------------------
// Control flow

// If carries its own result type annotation (needed to type the generated
// branch-thunk functions during lowering, see spec.md §4.E).
type If struct {
	Cond Node
	Then Node
	Else Node
	Type langtype.Type
}

func (If) isNode() {}

// Call applies Fn (commonly a Var or PrimRef) to Args, with explicit type arguments.
type Call struct {
	Fn       Node
	TypeArgs []langtype.Type
	Args     []Node
}

func (Call) isNode() {}

// ----------------------------------------------------------------------------
// Aggregates

type TupleExpr struct{ Elements []Node }
type TupleAccess struct {
	Tuple Node
	Index int
}

func (TupleExpr) isNode()   {}
func (TupleAccess) isNode() {}

// ----------------------------------------------------------------------------
// Arrays (heap access through a MutPtr)

type ArrayRead struct {
	Array Node
	Index Node
}

type ArraySet struct {
	Array Node
	Index Node
	Value Node
}

func (ArrayRead) isNode() {}
func (ArraySet) isNode()  {}

// ----------------------------------------------------------------------------
// Sequencing and operators

// Sequence evaluates First for its side effects, discards the result, then
// evaluates Second. Equivalent to "let _ = First in Second"; it disappears
// during lowering (see spec.md §4.E).
type Sequence struct {
	First  Node
	Second Node
}

func (Sequence) isNode() {}

type UnaryOpKind string

const (
	Neg UnaryOpKind = "neg"
	Not UnaryOpKind = "not"
)

type UnaryOp struct {
	Op      UnaryOpKind
	Operand Node
}

type BinaryOpKind string

const (
	Add BinaryOpKind = "add"
	Sub BinaryOpKind = "sub"
	Mul BinaryOpKind = "mul"
	Div BinaryOpKind = "div"
	Eq  BinaryOpKind = "eq"
	Lt  BinaryOpKind = "lt"
	Gt  BinaryOpKind = "gt"
	Le  BinaryOpKind = "le"
	Ge  BinaryOpKind = "ge"
)

type BinaryOp struct {
	Op    BinaryOpKind
	Left  Node
	Right Node
}

func (UnaryOp) isNode()  {}
func (BinaryOp) isNode() {}
