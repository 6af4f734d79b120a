package lower_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmny-dyro/anfvm/pkg/anf"
	"github.com/hmny-dyro/anfvm/pkg/ast"
	"github.com/hmny-dyro/anfvm/pkg/langerr"
	"github.com/hmny-dyro/anfvm/pkg/langtype"
	"github.com/hmny-dyro/anfvm/pkg/lower"
)

func TestLowerUnknownNameFails(t *testing.T) {
	_, err := lower.Lower(ast.Var{Name: "nope"})
	require.Error(t, err)
	var unknown *langerr.UnknownNameError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Name)
}

func TestLowerShadowingResolvesInnermostBinding(t *testing.T) {
	tree := ast.Let{
		Binding: "x",
		Value:   ast.IntLit{Value: 1},
		Body: ast.Let{
			Binding: "x",
			Value:   ast.IntLit{Value: 2},
			Body:    ast.Var{Name: "x"},
		},
	}
	term, err := lower.Lower(tree)
	require.NoError(t, err)

	// Both literals are bound, outer first.
	ids := collectIntBindings(term)
	require.Len(t, ids, 2)
	assert.Equal(t, int32(1), ids[0])
	assert.Equal(t, int32(2), ids[1])

	// The reference to x must read the id bound to the inner literal 2,
	// not the id bound to the outer literal 1.
	var innerID, resolved anf.Var
	for cur := term; ; {
		let, ok := cur.(anf.Let)
		if !ok {
			break
		}
		switch v := let.Value.(type) {
		case anf.IntExpr:
			if v.Value == 2 {
				innerID = let.Binding
			}
		case anf.VarExpr:
			resolved = v.ID
		}
		cur = let.Body
	}
	assert.Equal(t, innerID, resolved)
}

// collectIntBindings walks a Let chain collecting every IntExpr literal
// value in binding order, used to assert on lowering output shape without
// depending on concrete id numbers.
func collectIntBindings(term anf.Node) []int32 {
	var out []int32
	for {
		let, ok := term.(anf.Let)
		if !ok {
			return out
		}
		if lit, ok := let.Value.(anf.IntExpr); ok {
			out = append(out, lit.Value)
		}
		term = let.Body
	}
}

func TestLowerIfHoistsBranchesIntoNullaryFunctions(t *testing.T) {
	tree := ast.If{
		Cond: ast.BoolLit{Value: true},
		Then: ast.IntLit{Value: 1},
		Else: ast.IntLit{Value: 2},
		Type: langtype.NewInt(),
	}
	term, err := lower.Lower(tree)
	require.NoError(t, err)

	thenFn, ok := term.(anf.LetFn)
	require.True(t, ok, "expected top-level term to be the then-branch thunk binding")
	assert.Empty(t, thenFn.Args)
	assert.Equal(t, langtype.NewInt(), thenFn.Ret)

	elseFn, ok := thenFn.Body.(anf.LetFn)
	require.True(t, ok, "expected the else-branch thunk binding to follow")
	assert.Empty(t, elseFn.Args)
}

func TestLowerCallEvaluatesCalleeBeforeArguments(t *testing.T) {
	tree := ast.Call{
		Fn:   ast.PrimRef{Name: "print"},
		Args: []ast.Node{ast.IntLit{Value: 1}, ast.IntLit{Value: 2}},
	}
	term, err := lower.Lower(tree)
	require.NoError(t, err)

	let, ok := term.(anf.Let)
	require.True(t, ok)
	primRef, ok := let.Value.(anf.PrimRefExpr)
	require.True(t, ok, "callee should be bound before any argument")
	assert.Equal(t, "print", primRef.Name)
}
