// Package anf declares the A-Normal Form IR produced by pkg/lower and
// consumed by pkg/eval. Variables are dense numeric ids rather than source
// names; every non-trivial subterm has been hoisted into a Let/LetFn binding
// by the time a term reaches this package.
//
// The two-tier Node/SimpleExpr split mirrors pkg/vm/vm.go's Operation marker
// interface with its closed set of instruction structs: Node is the "can
// bind" layer, SimpleExpr is the "terminal, no further binding" layer.
package anf

import "github.com/hmny-dyro/anfvm/pkg/langtype"

// Var is a dense, monotonically-increasing variable id minted by the
// lowering pass. Zero is a valid id; there is no sentinel "no variable".
type Var uint32

// Node is the marker interface for an ANF term: Let, LetFn, or Simple.
type Node interface{ isNode() }

// Let binds the value of a simple expression to Binding and continues with Body.
type Let struct {
	Binding Var
	Value   SimpleExpr
	Body    Node
}

// LetFn binds a function value to Binding. Value is itself a full ANF term
// (the function body), not a SimpleExpr, since a function body may bind
// further locals. Binding is visible inside Value, which is what lets
// recursive calls resolve without a separate fixpoint construct.
type LetFn struct {
	Binding Var
	Args    []FnArg
	Ret     langtype.Type
	Value   Node
	Body    Node
}

// FnArg pairs a function parameter's id with its declared type.
type FnArg struct {
	ID   Var
	Type langtype.Type
}

// Simple terminates a term with no further binding: the tail value of a block.
type Simple struct{ Expr SimpleExpr }

func (Let) isNode()    {}
func (LetFn) isNode()  {}
func (Simple) isNode() {}

// SimpleExpr is the marker interface for an ANF simple expression: every
// field other than the If arms holds a literal or a Var id, never a nested
// expression (the ANF invariant, spec.md §3/§9).
type SimpleExpr interface{ isSimpleExpr() }

type UnitExpr struct{}
type IntExpr struct{ Value int32 }
type BoolExpr struct{ Value bool }
type StringExpr struct{ Value string }
type VarExpr struct{ ID Var }
type PrimRefExpr struct{ Name string }

func (UnitExpr) isSimpleExpr()    {}
func (IntExpr) isSimpleExpr()     {}
func (BoolExpr) isSimpleExpr()    {}
func (StringExpr) isSimpleExpr()  {}
func (VarExpr) isSimpleExpr()     {}
func (PrimRefExpr) isSimpleExpr() {}

// IfExpr is the one place a simple expression holds nested simple
// expressions instead of ids: Then/Else are the inlined calls to the two
// generated branch thunks (spec.md §9, "Branch-thunk lowering").
type IfExpr struct {
	Cond Var
	Then SimpleExpr
	Else SimpleExpr
}

// CallExpr applies the function bound to Fn to Args. TypeArgs carries any
// explicit type arguments through to the evaluator for primitive dispatch
// (e.g. Alloc's pointee type).
type CallExpr struct {
	Fn       Var
	TypeArgs []langtype.Type
	Args     []Var
}

type TupleExpr struct{ Elements []Var }
type TupleAccessExpr struct {
	Tuple Var
	Index int
}

type ArrayReadExpr struct {
	Array Var
	Index Var
}

type ArraySetExpr struct {
	Array Var
	Index Var
	Value Var
}

func (IfExpr) isSimpleExpr()          {}
func (CallExpr) isSimpleExpr()        {}
func (TupleExpr) isSimpleExpr()       {}
func (TupleAccessExpr) isSimpleExpr() {}
func (ArrayReadExpr) isSimpleExpr()   {}
func (ArraySetExpr) isSimpleExpr()    {}

// UnaryOpKind and BinaryOpKind reuse the same op vocabulary as pkg/ast; ANF
// only changes what the operands point to (an id instead of a subterm).
type UnaryOpKind string

const (
	Neg UnaryOpKind = "neg"
	Not UnaryOpKind = "not"
)

type UnaryOpExpr struct {
	Op      UnaryOpKind
	Operand Var
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

type BinaryOpExpr struct {
	Op    BinaryOpKind
	Left  Var
	Right Var
}

func (UnaryOpExpr) isSimpleExpr()  {}
func (BinaryOpExpr) isSimpleExpr() {}
