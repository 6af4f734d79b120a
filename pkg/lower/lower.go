// Package lower implements the ANF lowering pass: it converts a pkg/ast.Node
// tree into a pkg/anf.Node term. It is grounded on ast_to_anf.rs's
// bind(ctx, target, ast, body) recursion and on pkg/jack/lowering.go's
// HandleXxx-per-node-kind dispatch style, including the fmt.Errorf("...: %w",
// err) wrapping idiom used to thread failures back up through recursive
// calls without losing the originating node's context.
package lower

import (
	"fmt"

	"github.com/hmny-dyro/anfvm/pkg/anf"
	"github.com/hmny-dyro/anfvm/pkg/ast"
	"github.com/hmny-dyro/anfvm/pkg/langerr"
	"github.com/hmny-dyro/anfvm/pkg/langutil"
)

// ctx maps source names to the ANF ids they currently resolve to. It is
// langutil.Scope, the persistent stand-in for the reference pass's
// copy-on-write context map: every recursive call receives its own `ctx`
// value and can extend it locally without affecting a sibling call.
type ctx = *langutil.Scope[anf.Var]

// Lowerer holds the single monotonic id counter shared across one call to
// Lower; fresh ids are unique for the lifetime of one Lowerer, matching the
// reference pass's "fresh ids come from a monotonically increasing counter".
type Lowerer struct {
	nextVar anf.Var
}

func (l *Lowerer) fresh() anf.Var {
	id := l.nextVar
	l.nextVar++
	return id
}

// Lower converts a complete AST into its ANF term, binding the whole
// program's value into one final variable and returning it.
func Lower(root ast.Node) (anf.Node, error) {
	l := &Lowerer{}
	target := l.fresh()
	return l.bindInto(nil, target, root, anf.Simple{Expr: anf.VarExpr{ID: target}})
}

// lowerTerm lowers node as a standalone ANF term in its own fresh target,
// used anywhere a nested term (not just a simple expression) is needed: a
// LetFn's function body, or an If arm's branch-thunk body.
func (l *Lowerer) lowerTerm(c ctx, node ast.Node) (anf.Node, error) {
	target := l.fresh()
	return l.bindInto(c, target, node, anf.Simple{Expr: anf.VarExpr{ID: target}})
}

// bindInto emits a term that binds the value of node to target under ctx c,
// then continues with body. This is the pass's one recursive workhorse;
// every AST variant is handled exactly once below.
func (l *Lowerer) bindInto(c ctx, target anf.Var, node ast.Node, body anf.Node) (anf.Node, error) {
	switch n := node.(type) {

	case ast.UnitLit:
		return anf.Let{Binding: target, Value: anf.UnitExpr{}, Body: body}, nil

	case ast.IntLit:
		return anf.Let{Binding: target, Value: anf.IntExpr{Value: n.Value}, Body: body}, nil

	case ast.BoolLit:
		return anf.Let{Binding: target, Value: anf.BoolExpr{Value: n.Value}, Body: body}, nil

	case ast.StringLit:
		return anf.Let{Binding: target, Value: anf.StringExpr{Value: n.Value}, Body: body}, nil

	case ast.Var:
		id, ok := langutil.Lookup(c, n.Name)
		if !ok {
			return nil, &langerr.UnknownNameError{Name: n.Name}
		}
		return anf.Let{Binding: target, Value: anf.VarExpr{ID: id}, Body: body}, nil

	case ast.PrimRef:
		return anf.Let{Binding: target, Value: anf.PrimRefExpr{Name: n.Name}, Body: body}, nil

	case ast.Let:
		valueID := l.fresh()
		innerCtx := langutil.With(c, n.Binding, valueID)
		continuation, err := l.bindInto(innerCtx, target, n.Body, body)
		if err != nil {
			return nil, fmt.Errorf("lowering let body for %q: %w", n.Binding, err)
		}
		result, err := l.bindInto(c, valueID, n.Value, continuation)
		if err != nil {
			return nil, fmt.Errorf("lowering let value for %q: %w", n.Binding, err)
		}
		return result, nil

	case ast.LetFn:
		return l.bindLetFn(c, target, n, body)

	case ast.If:
		return l.bindIf(c, target, n, body)

	case ast.Call:
		return l.bindCall(c, target, n, body)

	case ast.TupleExpr:
		return l.bindTuple(c, target, n, body)

	case ast.TupleAccess:
		tupleID := l.fresh()
		access := anf.Let{Binding: target, Value: anf.TupleAccessExpr{Tuple: tupleID, Index: n.Index}, Body: body}
		result, err := l.bindInto(c, tupleID, n.Tuple, access)
		if err != nil {
			return nil, fmt.Errorf("lowering tuple access: %w", err)
		}
		return result, nil

	case ast.ArrayRead:
		return l.bindArrayRead(c, target, n, body)

	case ast.ArraySet:
		return l.bindArraySet(c, target, n, body)

	case ast.Sequence:
		return l.bindSequence(c, target, n, body)

	case ast.UnaryOp:
		operandID := l.fresh()
		op := anf.Let{Binding: target, Value: anf.UnaryOpExpr{Op: anf.UnaryOpKind(n.Op), Operand: operandID}, Body: body}
		result, err := l.bindInto(c, operandID, n.Operand, op)
		if err != nil {
			return nil, fmt.Errorf("lowering unary op operand: %w", err)
		}
		return result, nil

	case ast.BinaryOp:
		return l.bindBinaryOp(c, target, n, body)

	default:
		return nil, fmt.Errorf("lowering: unrecognized AST node %T", node)
	}
}

func (l *Lowerer) bindLetFn(c ctx, target anf.Var, n ast.LetFn, body anf.Node) (anf.Node, error) {
	fnID := l.fresh()
	innerCtx := langutil.With(c, n.Name, fnID)

	argIDs := make([]anf.Var, len(n.Args))
	fnArgs := make([]anf.FnArg, len(n.Args))
	valueCtx := innerCtx
	for i, param := range n.Args {
		argIDs[i] = l.fresh()
		fnArgs[i] = anf.FnArg{ID: argIDs[i], Type: param.Type}
		valueCtx = langutil.With(valueCtx, param.Name, argIDs[i])
	}

	valueTerm, err := l.lowerTerm(valueCtx, n.Value)
	if err != nil {
		return nil, fmt.Errorf("lowering function body for %q: %w", n.Name, err)
	}

	bodyTerm, err := l.bindInto(innerCtx, target, n.Body, body)
	if err != nil {
		return nil, fmt.Errorf("lowering continuation after %q: %w", n.Name, err)
	}

	return anf.LetFn{Binding: fnID, Args: fnArgs, Ret: n.Return, Value: valueTerm, Body: bodyTerm}, nil
}

// bindIf hoists each arm into a generated nullary function so the unchosen
// arm's side effects never run, per spec.md §9 "Branch-thunk lowering".
func (l *Lowerer) bindIf(c ctx, target anf.Var, n ast.If, body anf.Node) (anf.Node, error) {
	thenFnID := l.fresh()
	elseFnID := l.fresh()
	condID := l.fresh()

	thenTerm, err := l.lowerTerm(c, n.Then)
	if err != nil {
		return nil, fmt.Errorf("lowering if-then arm: %w", err)
	}
	elseTerm, err := l.lowerTerm(c, n.Else)
	if err != nil {
		return nil, fmt.Errorf("lowering if-else arm: %w", err)
	}

	ifBinding := anf.Let{
		Binding: target,
		Value: anf.IfExpr{
			Cond: condID,
			Then: anf.CallExpr{Fn: thenFnID},
			Else: anf.CallExpr{Fn: elseFnID},
		},
		Body: body,
	}

	condBound, err := l.bindInto(c, condID, n.Cond, ifBinding)
	if err != nil {
		return nil, fmt.Errorf("lowering if condition: %w", err)
	}

	elseFn := anf.LetFn{Binding: elseFnID, Ret: n.Type, Value: elseTerm, Body: condBound}
	thenFn := anf.LetFn{Binding: thenFnID, Ret: n.Type, Value: thenTerm, Body: elseFn}
	return thenFn, nil
}

// bindCall lowers the callee first, then arguments left to right: the
// callee's Let must end up outermost (evaluated first), so arguments are
// folded right-to-left around the call site before the callee wraps them all.
func (l *Lowerer) bindCall(c ctx, target anf.Var, n ast.Call, body anf.Node) (anf.Node, error) {
	argIDs := make([]anf.Var, len(n.Args))
	for i := range n.Args {
		argIDs[i] = l.fresh()
	}
	fnID := l.fresh()

	current := anf.Node(anf.Let{
		Binding: target,
		Value:   anf.CallExpr{Fn: fnID, TypeArgs: n.TypeArgs, Args: argIDs},
		Body:    body,
	})

	for i := len(n.Args) - 1; i >= 0; i-- {
		wrapped, err := l.bindInto(c, argIDs[i], n.Args[i], current)
		if err != nil {
			return nil, fmt.Errorf("lowering call argument %d: %w", i, err)
		}
		current = wrapped
	}

	result, err := l.bindInto(c, fnID, n.Fn, current)
	if err != nil {
		return nil, fmt.Errorf("lowering call callee: %w", err)
	}
	return result, nil
}

func (l *Lowerer) bindTuple(c ctx, target anf.Var, n ast.TupleExpr, body anf.Node) (anf.Node, error) {
	elemIDs := make([]anf.Var, len(n.Elements))
	for i := range n.Elements {
		elemIDs[i] = l.fresh()
	}

	current := anf.Node(anf.Let{Binding: target, Value: anf.TupleExpr{Elements: elemIDs}, Body: body})
	for i := len(n.Elements) - 1; i >= 0; i-- {
		wrapped, err := l.bindInto(c, elemIDs[i], n.Elements[i], current)
		if err != nil {
			return nil, fmt.Errorf("lowering tuple element %d: %w", i, err)
		}
		current = wrapped
	}
	return current, nil
}

func (l *Lowerer) bindArrayRead(c ctx, target anf.Var, n ast.ArrayRead, body anf.Node) (anf.Node, error) {
	arrayID := l.fresh()
	indexID := l.fresh()

	read := anf.Let{Binding: target, Value: anf.ArrayReadExpr{Array: arrayID, Index: indexID}, Body: body}
	withIndex, err := l.bindInto(c, indexID, n.Index, read)
	if err != nil {
		return nil, fmt.Errorf("lowering array read index: %w", err)
	}
	withArray, err := l.bindInto(c, arrayID, n.Array, withIndex)
	if err != nil {
		return nil, fmt.Errorf("lowering array read target: %w", err)
	}
	return withArray, nil
}

func (l *Lowerer) bindArraySet(c ctx, target anf.Var, n ast.ArraySet, body anf.Node) (anf.Node, error) {
	arrayID := l.fresh()
	indexID := l.fresh()
	valueID := l.fresh()

	set := anf.Let{Binding: target, Value: anf.ArraySetExpr{Array: arrayID, Index: indexID, Value: valueID}, Body: body}
	withValue, err := l.bindInto(c, valueID, n.Value, set)
	if err != nil {
		return nil, fmt.Errorf("lowering array set value: %w", err)
	}
	withIndex, err := l.bindInto(c, indexID, n.Index, withValue)
	if err != nil {
		return nil, fmt.Errorf("lowering array set index: %w", err)
	}
	withArray, err := l.bindInto(c, arrayID, n.Array, withIndex)
	if err != nil {
		return nil, fmt.Errorf("lowering array set target: %w", err)
	}
	return withArray, nil
}

// bindSequence lowers First into a throwaway id purely for its side
// effects, then lowers Second directly into target so the whole sequence's
// value is Second's value.
func (l *Lowerer) bindSequence(c ctx, target anf.Var, n ast.Sequence, body anf.Node) (anf.Node, error) {
	secondBound, err := l.bindInto(c, target, n.Second, body)
	if err != nil {
		return nil, fmt.Errorf("lowering sequence second operand: %w", err)
	}
	discardID := l.fresh()
	result, err := l.bindInto(c, discardID, n.First, secondBound)
	if err != nil {
		return nil, fmt.Errorf("lowering sequence first operand: %w", err)
	}
	return result, nil
}

func (l *Lowerer) bindBinaryOp(c ctx, target anf.Var, n ast.BinaryOp, body anf.Node) (anf.Node, error) {
	leftID := l.fresh()
	rightID := l.fresh()

	op := anf.Let{Binding: target, Value: anf.BinaryOpExpr{Op: anf.BinaryOpKind(n.Op), Left: leftID, Right: rightID}, Body: body}
	withRight, err := l.bindInto(c, rightID, n.Right, op)
	if err != nil {
		return nil, fmt.Errorf("lowering binary op right operand: %w", err)
	}
	withLeft, err := l.bindInto(c, leftID, n.Left, withRight)
	if err != nil {
		return nil, fmt.Errorf("lowering binary op left operand: %w", err)
	}
	return withLeft, nil
}
