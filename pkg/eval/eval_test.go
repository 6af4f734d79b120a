package eval_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmny-dyro/anfvm/pkg/ast"
	"github.com/hmny-dyro/anfvm/pkg/eval"
	"github.com/hmny-dyro/anfvm/pkg/langerr"
	"github.com/hmny-dyro/anfvm/pkg/langtype"
	"github.com/hmny-dyro/anfvm/pkg/lower"
	"github.com/hmny-dyro/anfvm/pkg/value"
)

// run lowers and evaluates an AST in one step, the same two-pass pipeline
// cmd/anfrun's Handler drives end to end.
func run(t *testing.T, tree ast.Node) (value.Value, error) {
	t.Helper()
	term, err := lower.Lower(tree)
	require.NoError(t, err, "lowering should not fail for a well-formed program")
	return eval.Evaluate(term)
}

func intT() langtype.Type  { return langtype.NewInt() }
func boolT() langtype.Type { return langtype.NewBool() }

func TestLetBindingReturnsBoundValue(t *testing.T) {
	tree := ast.Let{Binding: "x", Value: ast.IntLit{Value: 42}, Body: ast.Var{Name: "x"}}
	result, err := run(t, tree)
	require.NoError(t, err)
	assert.Equal(t, value.Int{Value: 42}, result)
}

func TestLetFnCallAddsArguments(t *testing.T) {
	tree := ast.LetFn{
		Name: "add",
		Args: []ast.Param{{Name: "a", Type: intT()}, {Name: "b", Type: intT()}},
		Return: intT(),
		Value:  ast.BinaryOp{Op: ast.Add, Left: ast.Var{Name: "a"}, Right: ast.Var{Name: "b"}},
		Body: ast.Call{
			Fn:   ast.Var{Name: "add"},
			Args: []ast.Node{ast.IntLit{Value: 2}, ast.IntLit{Value: 3}},
		},
	}
	result, err := run(t, tree)
	require.NoError(t, err)
	assert.Equal(t, value.Int{Value: 5}, result)
}

func TestLetFnWrongReturnTypeFails(t *testing.T) {
	tree := ast.LetFn{
		Name:   "f",
		Args:   nil,
		Return: boolT(),
		Value:  ast.IntLit{Value: 1},
		Body:   ast.Call{Fn: ast.Var{Name: "f"}},
	}
	_, err := run(t, tree)
	require.Error(t, err)
	var typeErr *langerr.TypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestIfTakesTrueBranch(t *testing.T) {
	tree := ast.If{
		Cond: ast.BoolLit{Value: true},
		Then: ast.IntLit{Value: 1},
		Else: ast.IntLit{Value: 2},
		Type: intT(),
	}
	result, err := run(t, tree)
	require.NoError(t, err)
	assert.Equal(t, value.Int{Value: 1}, result)
}

func TestIfComparisonTakesFalseBranch(t *testing.T) {
	tree := ast.If{
		Cond: ast.BinaryOp{Op: ast.Lt, Left: ast.IntLit{Value: 5}, Right: ast.IntLit{Value: 3}},
		Then: ast.IntLit{Value: 1},
		Else: ast.IntLit{Value: 0},
		Type: intT(),
	}
	result, err := run(t, tree)
	require.NoError(t, err)
	assert.Equal(t, value.Int{Value: 0}, result)
}

func TestIfDoesNotEvaluateUnchosenBranch(t *testing.T) {
	tree := ast.If{
		Cond: ast.BoolLit{Value: true},
		Then: ast.IntLit{Value: 7},
		Else: ast.Call{Fn: ast.PrimRef{Name: "panic"}, Args: []ast.Node{ast.StringLit{Value: "unreachable"}}},
		Type: intT(),
	}
	result, err := run(t, tree)
	require.NoError(t, err)
	assert.Equal(t, value.Int{Value: 7}, result)
}

func TestAddition(t *testing.T) {
	tree := ast.BinaryOp{Op: ast.Add, Left: ast.IntLit{Value: 2}, Right: ast.IntLit{Value: 3}}
	result, err := run(t, tree)
	require.NoError(t, err)
	assert.Equal(t, value.Int{Value: 5}, result)
}

func TestLetChainAddition(t *testing.T) {
	tree := ast.Let{
		Binding: "x",
		Value:   ast.IntLit{Value: 2},
		Body: ast.Let{
			Binding: "y",
			Value:   ast.IntLit{Value: 3},
			Body:    ast.BinaryOp{Op: ast.Add, Left: ast.Var{Name: "x"}, Right: ast.Var{Name: "y"}},
		},
	}
	result, err := run(t, tree)
	require.NoError(t, err)
	assert.Equal(t, value.Int{Value: 5}, result)
}

func TestDivisionByZero(t *testing.T) {
	tree := ast.BinaryOp{Op: ast.Div, Left: ast.IntLit{Value: 1}, Right: ast.IntLit{Value: 0}}
	_, err := run(t, tree)
	require.Error(t, err)
	var arithErr *langerr.ArithmeticError
	assert.ErrorAs(t, err, &arithErr)
}

func TestTupleAccess(t *testing.T) {
	tree := ast.TupleAccess{
		Tuple: ast.TupleExpr{Elements: []ast.Node{ast.IntLit{Value: 1}, ast.BoolLit{Value: true}}},
		Index: 1,
	}
	result, err := run(t, tree)
	require.NoError(t, err)
	assert.Equal(t, value.Bool{Value: true}, result)
}

func TestTupleAccessOutOfRangeFails(t *testing.T) {
	tree := ast.TupleAccess{
		Tuple: ast.TupleExpr{Elements: []ast.Node{ast.IntLit{Value: 1}}},
		Index: 3,
	}
	_, err := run(t, tree)
	require.Error(t, err)
	var boundsErr *langerr.BoundsError
	assert.ErrorAs(t, err, &boundsErr)
}

func TestPanicPropagatesMessage(t *testing.T) {
	tree := ast.Call{Fn: ast.PrimRef{Name: "panic"}, Args: []ast.Node{ast.StringLit{Value: "boom"}}}
	_, err := run(t, tree)
	require.Error(t, err)
	var panicErr *langerr.PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "boom", panicErr.Message)
}

func TestPanicRequiresStringArgument(t *testing.T) {
	tree := ast.Call{Fn: ast.PrimRef{Name: "panic"}, Args: []ast.Node{ast.IntLit{Value: 1}}}
	_, err := run(t, tree)
	require.Error(t, err)
	var typeErr *langerr.TypeError
	assert.ErrorAs(t, err, &typeErr)
}

func allocCall(elemType langtype.Type, length int32) ast.Node {
	return ast.Call{
		Fn:       ast.PrimRef{Name: "alloc"},
		TypeArgs: []langtype.Type{elemType},
		Args:     []ast.Node{ast.IntLit{Value: length}},
	}
}

func TestAllocReadBeforeWriteIsPoison(t *testing.T) {
	tree := ast.Let{
		Binding: "arr",
		Value:   allocCall(intT(), 2),
		Body:    ast.ArrayRead{Array: ast.Var{Name: "arr"}, Index: ast.IntLit{Value: 0}},
	}
	_, err := run(t, tree)
	require.Error(t, err)
	var cellErr *langerr.InvalidHeapCellError
	require.ErrorAs(t, err, &cellErr)
	assert.Contains(t, cellErr.Context, "Poison")
}

func TestAllocWriteThenReadRoundtrips(t *testing.T) {
	tree := ast.Let{
		Binding: "arr",
		Value:   allocCall(intT(), 2),
		Body: ast.Sequence{
			First: ast.ArraySet{Array: ast.Var{Name: "arr"}, Index: ast.IntLit{Value: 1}, Value: ast.IntLit{Value: 99}},
			Second: ast.ArrayRead{
				Array: ast.Var{Name: "arr"},
				Index: ast.IntLit{Value: 1},
			},
		},
	}
	result, err := run(t, tree)
	require.NoError(t, err)
	assert.Equal(t, value.Int{Value: 99}, result)
}

func TestDeallocThenReadIsUndefined(t *testing.T) {
	tree := ast.Let{
		Binding: "arr",
		Value:   allocCall(intT(), 1),
		Body: ast.Sequence{
			First: ast.Call{
				Fn:       ast.PrimRef{Name: "dealloc"},
				TypeArgs: []langtype.Type{intT()},
				Args:     []ast.Node{ast.Var{Name: "arr"}, ast.IntLit{Value: 1}},
			},
			Second: ast.ArrayRead{Array: ast.Var{Name: "arr"}, Index: ast.IntLit{Value: 0}},
		},
	}
	_, err := run(t, tree)
	require.Error(t, err)
	var cellErr *langerr.InvalidHeapCellError
	require.ErrorAs(t, err, &cellErr)
	assert.Contains(t, cellErr.Context, "Undefined")
}

func TestDeallocWrongSizeFails(t *testing.T) {
	tree := ast.Let{
		Binding: "arr",
		Value:   allocCall(intT(), 1),
		Body: ast.Call{
			Fn:       ast.PrimRef{Name: "dealloc"},
			TypeArgs: []langtype.Type{intT()},
			Args:     []ast.Node{ast.Var{Name: "arr"}, ast.IntLit{Value: 2}},
		},
	}
	_, err := run(t, tree)
	require.Error(t, err)
	var typeErr *langerr.TypeError
	assert.ErrorAs(t, err, &typeErr)
}

// Dealloc checks byte size only, not pointee-type equality: a pointer
// allocated as Int can be deallocated under a differently-typed view as
// long as the total byte count matches (see DESIGN.md's Open Question note).
func TestDeallocAcceptsDifferentTypeWithMatchingSize(t *testing.T) {
	tree := ast.Let{
		Binding: "arr",
		Value:   allocCall(intT(), 10), // 40 bytes
		Body: ast.Call{
			Fn:       ast.PrimRef{Name: "dealloc"},
			TypeArgs: []langtype.Type{boolT()},
			Args:     []ast.Node{ast.Var{Name: "arr"}, ast.IntLit{Value: 40}}, // 40 bytes as Bool
		},
	}
	result, err := run(t, tree)
	require.NoError(t, err)
	assert.Equal(t, value.Unit{}, result)
}

func TestPrintBadTypeFails(t *testing.T) {
	tree := ast.Call{
		Fn:       ast.PrimRef{Name: "print"},
		TypeArgs: []langtype.Type{boolT()},
		Args:     []ast.Node{ast.IntLit{Value: 1}},
	}
	_, err := run(t, tree)
	require.Error(t, err)
	var typeErr *langerr.TypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestPrintWritesRenderedValue(t *testing.T) {
	tree := ast.Call{
		Fn:       ast.PrimRef{Name: "print"},
		TypeArgs: []langtype.Type{intT()},
		Args:     []ast.Node{ast.IntLit{Value: 42}},
	}
	term, err := lower.Lower(tree)
	require.NoError(t, err)

	var out bytes.Buffer
	result, err := eval.NewEvaluator(&out).Evaluate(term)
	require.NoError(t, err)
	assert.Equal(t, value.Unit{}, result)
	assert.Equal(t, "42\n", out.String())
}

func TestCallArityMismatchFails(t *testing.T) {
	tree := ast.LetFn{
		Name:   "id",
		Args:   []ast.Param{{Name: "a", Type: intT()}},
		Return: intT(),
		Value:  ast.Var{Name: "a"},
		Body:   ast.Call{Fn: ast.Var{Name: "id"}, Args: []ast.Node{ast.IntLit{Value: 1}, ast.IntLit{Value: 2}}},
	}
	_, err := run(t, tree)
	require.Error(t, err)
	var arityErr *langerr.ArityError
	assert.ErrorAs(t, err, &arityErr)
}

// pow2 recurses n times, doubling the result of each recursive call,
// exercising both recursive calls and nested frame lookups through the
// parent chain.
func TestRecursivePow2(t *testing.T) {
	tree := ast.LetFn{
		Name:   "pow2",
		Args:   []ast.Param{{Name: "n", Type: intT()}},
		Return: intT(),
		Value: ast.If{
			Cond: ast.BinaryOp{Op: ast.Eq, Left: ast.Var{Name: "n"}, Right: ast.IntLit{Value: 0}},
			Then: ast.IntLit{Value: 1},
			Else: ast.BinaryOp{
				Op:   ast.Mul,
				Left: ast.IntLit{Value: 2},
				Right: ast.Call{
					Fn: ast.Var{Name: "pow2"},
					Args: []ast.Node{ast.BinaryOp{
						Op: ast.Sub, Left: ast.Var{Name: "n"}, Right: ast.IntLit{Value: 1},
					}},
				},
			},
			Type: intT(),
		},
		Body: ast.Call{Fn: ast.Var{Name: "pow2"}, Args: []ast.Node{ast.IntLit{Value: 10}}},
	}
	result, err := run(t, tree)
	require.NoError(t, err)
	assert.Equal(t, value.Int{Value: 1024}, result)
}

func TestEqTupleAgainstIntIsFalse(t *testing.T) {
	tree := ast.Let{
		Binding: "original",
		Value:   ast.TupleExpr{Elements: []ast.Node{ast.IntLit{Value: 1}}},
		Body: ast.Let{
			Binding: "copy",
			Value:   ast.Var{Name: "original"},
			Body: ast.BinaryOp{
				Op:   ast.Eq,
				Left: ast.Var{Name: "original"},
				Right: ast.TupleAccess{Tuple: ast.Var{Name: "copy"}, Index: 0}, // deliberately mismatched shapes
			},
		},
	}
	// Eq across a Tuple and an Int is well-defined (false), confirming
	// structural comparison never panics on mismatched variants.
	result, err := run(t, tree)
	require.NoError(t, err)
	assert.Equal(t, value.Bool{Value: false}, result)
}
