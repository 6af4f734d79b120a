// Package eval implements the tree-walking evaluator over ANF terms: call
// frame lifecycle, dynamic type checking of arguments/returns, and
// primitive dispatch. It is grounded on interpreter.rs's eval_term/
// eval_simple_expression/call_special_function methods, restructured as a
// type-switch dispatcher in the style of pkg/vm/codegen.go's
// CodeGenerator.Generate/GenerateMemoryOp family.
package eval

import (
	"fmt"
	"io"
	"os"

	"github.com/hmny-dyro/anfvm/pkg/anf"
	"github.com/hmny-dyro/anfvm/pkg/langerr"
	"github.com/hmny-dyro/anfvm/pkg/langtype"
	"github.com/hmny-dyro/anfvm/pkg/langutil"
	"github.com/hmny-dyro/anfvm/pkg/primitive"
	"github.com/hmny-dyro/anfvm/pkg/runtime"
	"github.com/hmny-dyro/anfvm/pkg/value"
)

// Evaluator runs one program to completion. Stdout is where Print writes its
// rendering; it is a field (not the bare os.Stdout) so tests can capture it.
// callTrace records the callee id of every activation currently on the Go
// call stack; evaluation itself never reads it. The chain of function ids in
// an error from a deep recursive call comes from each callFunction wrapping
// the error with its own callee id.
type Evaluator struct {
	Stdout    io.Writer
	callTrace langutil.Stack[anf.Var]
}

// NewEvaluator builds an Evaluator that writes Print output to stdout.
func NewEvaluator(stdout io.Writer) *Evaluator {
	return &Evaluator{Stdout: stdout}
}

// Evaluate runs term to completion against a fresh root frame and heap.
func Evaluate(term anf.Node) (value.Value, error) {
	return NewEvaluator(os.Stdout).Evaluate(term)
}

// Evaluate runs term to completion against a fresh root frame and heap,
// using ev's configured Stdout.
func (ev *Evaluator) Evaluate(term anf.Node) (value.Value, error) {
	root := runtime.NewRoot()
	return ev.evalNode(root, term)
}

func lookupVar(frame *runtime.Frame, id anf.Var) (value.Value, error) {
	v, ok := frame.Lookup(id)
	if !ok {
		return nil, &langerr.UnboundVarError{ID: uint32(id)}
	}
	return v, nil
}

func (ev *Evaluator) evalNode(frame *runtime.Frame, node anf.Node) (value.Value, error) {
	switch n := node.(type) {
	case anf.Let:
		v, err := ev.evalSimple(frame, n.Value)
		if err != nil {
			return nil, fmt.Errorf("evaluating binding for var %d: %w", n.Binding, err)
		}
		frame.Set(n.Binding, v)
		return ev.evalNode(frame, n.Body)

	case anf.LetFn:
		frame.Set(n.Binding, value.Function{Args: n.Args, Ret: n.Ret, Body: n.Value})
		return ev.evalNode(frame, n.Body)

	case anf.Simple:
		return ev.evalSimple(frame, n.Expr)

	default:
		return nil, fmt.Errorf("evaluating: unrecognized ANF node %T", node)
	}
}

func (ev *Evaluator) evalSimple(frame *runtime.Frame, expr anf.SimpleExpr) (value.Value, error) {
	switch e := expr.(type) {
	case anf.UnitExpr:
		return value.Unit{}, nil
	case anf.IntExpr:
		return value.Int{Value: e.Value}, nil
	case anf.BoolExpr:
		return value.Bool{Value: e.Value}, nil
	case anf.StringExpr:
		return value.String{Value: e.Value}, nil
	case anf.VarExpr:
		return lookupVar(frame, e.ID)
	case anf.PrimRefExpr:
		return value.PrimRef{Name: e.Name}, nil
	case anf.IfExpr:
		return ev.evalIf(frame, e)
	case anf.CallExpr:
		return ev.evalCall(frame, e)
	case anf.TupleExpr:
		return ev.evalTuple(frame, e)
	case anf.TupleAccessExpr:
		return ev.evalTupleAccess(frame, e)
	case anf.ArrayReadExpr:
		return ev.evalArrayRead(frame, e)
	case anf.ArraySetExpr:
		return ev.evalArraySet(frame, e)
	case anf.UnaryOpExpr:
		return ev.evalUnaryOp(frame, e)
	case anf.BinaryOpExpr:
		return ev.evalBinaryOp(frame, e)
	default:
		return nil, fmt.Errorf("evaluating: unrecognized ANF simple expression %T", expr)
	}
}

func (ev *Evaluator) evalIf(frame *runtime.Frame, e anf.IfExpr) (value.Value, error) {
	condVal, err := lookupVar(frame, e.Cond)
	if err != nil {
		return nil, err
	}
	cond, ok := condVal.(value.Bool)
	if !ok {
		return nil, &langerr.TypeError{Context: fmt.Sprintf("if condition must be Bool, got %s", condVal.Type())}
	}
	if cond.Value {
		return ev.evalSimple(frame, e.Then)
	}
	return ev.evalSimple(frame, e.Else)
}

func (ev *Evaluator) evalCall(frame *runtime.Frame, e anf.CallExpr) (value.Value, error) {
	fnVal, err := lookupVar(frame, e.Fn)
	if err != nil {
		return nil, err
	}
	switch fn := fnVal.(type) {
	case value.PrimRef:
		prim, ok := primitive.Parse(fn.Name)
		if !ok {
			return nil, &langerr.BadPrimitiveError{Context: fmt.Sprintf("unknown primitive %q", fn.Name)}
		}
		return ev.callPrimitive(frame, prim, e.TypeArgs, e.Args)
	case value.Function:
		return ev.callFunction(frame, e.Fn, fn, e.Args)
	default:
		return nil, &langerr.TypeError{Context: fmt.Sprintf("cannot call value of type %s", fnVal.Type())}
	}
}

// callFunction runs one activation of fn, identified in the call trace by
// calleeID (the ANF id it was looked up through), so a failure nested many
// calls deep can be reported with the chain of callees that led to it.
func (ev *Evaluator) callFunction(frame *runtime.Frame, calleeID anf.Var, fn value.Function, argIDs []anf.Var) (value.Value, error) {
	if len(fn.Args) != len(argIDs) {
		return nil, &langerr.ArityError{Expected: len(fn.Args), Got: len(argIDs)}
	}

	argVals := make([]value.Value, len(argIDs))
	for i, id := range argIDs {
		v, err := lookupVar(frame, id)
		if err != nil {
			return nil, fmt.Errorf("evaluating call argument %d: %w", i, err)
		}
		argVals[i] = v
	}

	callFrame := frame.NewChild()
	for i, param := range fn.Args {
		if !argVals[i].Type().Equal(param.Type) {
			return nil, &langerr.TypeError{Context: fmt.Sprintf(
				"argument %d: expected %s, got %s", i, param.Type, argVals[i].Type())}
		}
		callFrame.Set(param.ID, argVals[i])
	}

	ev.callTrace.Push(calleeID)
	result, err := ev.evalNode(callFrame, fn.Body)
	ev.callTrace.Pop() //nolint:errcheck // just pushed, cannot be empty

	if err != nil {
		return nil, fmt.Errorf("in call to var %d: %w", calleeID, err)
	}
	if !result.Type().Equal(fn.Ret) {
		return nil, &langerr.TypeError{Context: fmt.Sprintf(
			"return value: expected %s, got %s", fn.Ret, result.Type())}
	}
	return result, nil
}

func (ev *Evaluator) evalTuple(frame *runtime.Frame, e anf.TupleExpr) (value.Value, error) {
	elems := make([]value.Value, len(e.Elements))
	for i, id := range e.Elements {
		v, err := lookupVar(frame, id)
		if err != nil {
			return nil, fmt.Errorf("evaluating tuple element %d: %w", i, err)
		}
		elems[i] = v
	}
	return value.Tuple{Elements: elems}, nil
}

func (ev *Evaluator) evalTupleAccess(frame *runtime.Frame, e anf.TupleAccessExpr) (value.Value, error) {
	tupleVal, err := lookupVar(frame, e.Tuple)
	if err != nil {
		return nil, err
	}
	tuple, ok := tupleVal.(value.Tuple)
	if !ok {
		return nil, &langerr.TypeError{Context: fmt.Sprintf("tuple access on non-tuple value of type %s", tupleVal.Type())}
	}
	if e.Index < 0 || e.Index >= len(tuple.Elements) {
		return nil, &langerr.BoundsError{Context: fmt.Sprintf("tuple index %d out of range (len %d)", e.Index, len(tuple.Elements))}
	}
	return tuple.Elements[e.Index], nil
}

func (ev *Evaluator) evalArrayRead(frame *runtime.Frame, e anf.ArrayReadExpr) (value.Value, error) {
	ptr, idx, err := ev.resolveArrayAccess(frame, e.Array, e.Index)
	if err != nil {
		return nil, err
	}

	size := ptr.Pointee.Size()
	start := idx * size
	bytes := make([]byte, size)
	for i := 0; i < size; i++ {
		relOff := uint32(start + i)
		if relOff >= ptr.SizeBytes {
			return nil, &langerr.BoundsError{Context: fmt.Sprintf("array read index %d out of bounds", idx)}
		}
		b, err := frame.ReadByte(ptr.Location.Offset + relOff)
		if err != nil {
			return nil, err
		}
		bytes[i] = b
	}
	return value.FromBytes(bytes, ptr.Pointee)
}

func (ev *Evaluator) evalArraySet(frame *runtime.Frame, e anf.ArraySetExpr) (value.Value, error) {
	ptr, idx, err := ev.resolveArrayAccess(frame, e.Array, e.Index)
	if err != nil {
		return nil, err
	}

	val, err := lookupVar(frame, e.Value)
	if err != nil {
		return nil, err
	}
	bytes, err := value.Bytes(val)
	if err != nil {
		return nil, err
	}
	size := ptr.Pointee.Size()
	if len(bytes) != size {
		return nil, &langerr.TypeError{Context: fmt.Sprintf(
			"array set value encodes to %d bytes, pointee type needs %d", len(bytes), size)}
	}

	start := idx * size
	for i, b := range bytes {
		relOff := uint32(start + i)
		if relOff >= ptr.SizeBytes {
			return nil, &langerr.BoundsError{Context: fmt.Sprintf("array set index %d out of bounds", idx)}
		}
		if err := frame.WriteByte(ptr.Location.Offset+relOff, runtime.Cell{Kind: runtime.CellByte, Byte: b}); err != nil {
			return nil, err
		}
	}
	return value.Unit{}, nil
}

func (ev *Evaluator) resolveArrayAccess(frame *runtime.Frame, arrayID, indexID anf.Var) (value.MutPtr, int, error) {
	arrVal, err := lookupVar(frame, arrayID)
	if err != nil {
		return value.MutPtr{}, 0, err
	}
	ptr, ok := arrVal.(value.MutPtr)
	if !ok {
		return value.MutPtr{}, 0, &langerr.TypeError{Context: fmt.Sprintf("array access on non-pointer value of type %s", arrVal.Type())}
	}
	if !ptr.Location.IsHeap {
		return value.MutPtr{}, 0, &langerr.UnimplementedError{Feature: "stack-located pointer access"}
	}

	idxVal, err := lookupVar(frame, indexID)
	if err != nil {
		return value.MutPtr{}, 0, err
	}
	idx, ok := idxVal.(value.Int)
	if !ok {
		return value.MutPtr{}, 0, &langerr.TypeError{Context: fmt.Sprintf("array index must be Int, got %s", idxVal.Type())}
	}
	if idx.Value < 0 {
		return value.MutPtr{}, 0, &langerr.BoundsError{Context: fmt.Sprintf("negative array index %d", idx.Value)}
	}
	return ptr, int(idx.Value), nil
}

func (ev *Evaluator) evalUnaryOp(frame *runtime.Frame, e anf.UnaryOpExpr) (value.Value, error) {
	operand, err := lookupVar(frame, e.Operand)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case anf.Neg:
		i, ok := operand.(value.Int)
		if !ok {
			return nil, &langerr.TypeError{Context: fmt.Sprintf("neg requires Int, got %s", operand.Type())}
		}
		return value.Int{Value: -i.Value}, nil
	case anf.Not:
		b, ok := operand.(value.Bool)
		if !ok {
			return nil, &langerr.TypeError{Context: fmt.Sprintf("not requires Bool, got %s", operand.Type())}
		}
		return value.Bool{Value: !b.Value}, nil
	default:
		return nil, fmt.Errorf("evaluating: unrecognized unary op %q", e.Op)
	}
}

func (ev *Evaluator) evalBinaryOp(frame *runtime.Frame, e anf.BinaryOpExpr) (value.Value, error) {
	left, err := lookupVar(frame, e.Left)
	if err != nil {
		return nil, err
	}
	right, err := lookupVar(frame, e.Right)
	if err != nil {
		return nil, err
	}

	if e.Op == anf.Eq {
		return value.Bool{Value: valuesEqual(left, right)}, nil
	}

	li, lok := left.(value.Int)
	ri, rok := right.(value.Int)
	if !lok || !rok {
		return nil, &langerr.TypeError{Context: fmt.Sprintf(
			"binary op %q requires (Int, Int), got (%s, %s)", e.Op, left.Type(), right.Type())}
	}

	switch e.Op {
	case anf.Add:
		return value.Int{Value: li.Value + ri.Value}, nil
	case anf.Sub:
		return value.Int{Value: li.Value - ri.Value}, nil
	case anf.Mul:
		return value.Int{Value: li.Value * ri.Value}, nil
	case anf.Div:
		if ri.Value == 0 {
			return nil, &langerr.ArithmeticError{Context: "division by zero"}
		}
		return value.Int{Value: li.Value / ri.Value}, nil
	case anf.Lt:
		return value.Bool{Value: li.Value < ri.Value}, nil
	case anf.Gt:
		return value.Bool{Value: li.Value > ri.Value}, nil
	case anf.Le:
		return value.Bool{Value: li.Value <= ri.Value}, nil
	case anf.Ge:
		return value.Bool{Value: li.Value >= ri.Value}, nil
	default:
		return nil, fmt.Errorf("evaluating: unrecognized binary op %q", e.Op)
	}
}

// valuesEqual compares two values structurally, as Eq requires. Function
// and PrimRef are compared by their rendered form since they carry no other
// identity in this model.
func valuesEqual(a, b value.Value) bool {
	switch av := a.(type) {
	case value.Unit:
		_, ok := b.(value.Unit)
		return ok
	case value.Int:
		bv, ok := b.(value.Int)
		return ok && av.Value == bv.Value
	case value.Bool:
		bv, ok := b.(value.Bool)
		return ok && av.Value == bv.Value
	case value.String:
		bv, ok := b.(value.String)
		return ok && av.Value == bv.Value
	case value.Tuple:
		bv, ok := b.(value.Tuple)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !valuesEqual(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case value.MutPtr:
		bv, ok := b.(value.MutPtr)
		return ok && av.Location == bv.Location && av.SizeBytes == bv.SizeBytes && av.Pointee.Equal(bv.Pointee)
	default:
		return a.String() == b.String()
	}
}

// callPrimitive dispatches one of the four built-in functions, per spec.md's
// "Primitive dispatch" table.
func (ev *Evaluator) callPrimitive(frame *runtime.Frame, prim primitive.Primitive, typeArgs []langtype.Type, argIDs []anf.Var) (value.Value, error) {
	switch prim {
	case primitive.Alloc:
		return ev.primAlloc(frame, typeArgs, argIDs)
	case primitive.Dealloc:
		return ev.primDealloc(frame, typeArgs, argIDs)
	case primitive.Print:
		return ev.primPrint(frame, typeArgs, argIDs)
	case primitive.Panic:
		return ev.primPanic(frame, argIDs)
	default:
		return nil, &langerr.BadPrimitiveError{Context: fmt.Sprintf("unhandled primitive %q", prim)}
	}
}

func (ev *Evaluator) primAlloc(frame *runtime.Frame, typeArgs []langtype.Type, argIDs []anf.Var) (value.Value, error) {
	if len(typeArgs) != 1 || len(argIDs) != 1 {
		return nil, &langerr.BadPrimitiveError{Context: "alloc requires one type argument and one length argument"}
	}
	lenVal, err := lookupVar(frame, argIDs[0])
	if err != nil {
		return nil, err
	}
	lenInt, ok := lenVal.(value.Int)
	if !ok {
		return nil, &langerr.TypeError{Context: fmt.Sprintf("alloc length must be Int, got %s", lenVal.Type())}
	}
	if lenInt.Value < 0 {
		return nil, &langerr.ArithmeticError{Context: "alloc length must be non-negative"}
	}

	pointee := typeArgs[0]
	size := uint32(pointee.Size()) * uint32(lenInt.Value)
	offset := frame.AllocBytes(size)
	return value.MutPtr{Location: value.HeapLoc(offset), Pointee: pointee, SizeBytes: size}, nil
}

func (ev *Evaluator) primDealloc(frame *runtime.Frame, typeArgs []langtype.Type, argIDs []anf.Var) (value.Value, error) {
	if len(typeArgs) != 1 || len(argIDs) != 2 {
		return nil, &langerr.BadPrimitiveError{Context: "dealloc requires one type argument and (ptr, length) arguments"}
	}
	ptrVal, err := lookupVar(frame, argIDs[0])
	if err != nil {
		return nil, err
	}
	ptr, ok := ptrVal.(value.MutPtr)
	if !ok {
		return nil, &langerr.TypeError{Context: fmt.Sprintf("dealloc target must be MutPtr, got %s", ptrVal.Type())}
	}
	if !ptr.Location.IsHeap {
		return nil, &langerr.UnimplementedError{Feature: "stack-located pointer access"}
	}

	lenVal, err := lookupVar(frame, argIDs[1])
	if err != nil {
		return nil, err
	}
	lenInt, ok := lenVal.(value.Int)
	if !ok {
		return nil, &langerr.TypeError{Context: fmt.Sprintf("dealloc length must be Int, got %s", lenVal.Type())}
	}

	expected := uint32(typeArgs[0].Size()) * uint32(lenInt.Value)
	if expected != ptr.SizeBytes {
		return nil, &langerr.TypeError{Context: fmt.Sprintf(
			"Invalid size for dealloc: expected %d bytes, pointer covers %d", expected, ptr.SizeBytes)}
	}

	if err := frame.MarkUndefined(ptr.Location.Offset, ptr.SizeBytes); err != nil {
		return nil, err
	}
	return value.Unit{}, nil
}

func (ev *Evaluator) primPrint(frame *runtime.Frame, typeArgs []langtype.Type, argIDs []anf.Var) (value.Value, error) {
	if len(typeArgs) != 1 || len(argIDs) != 1 {
		return nil, &langerr.BadPrimitiveError{Context: "print requires one type argument and one value argument"}
	}
	val, err := lookupVar(frame, argIDs[0])
	if err != nil {
		return nil, err
	}
	if !val.Type().Equal(typeArgs[0]) {
		return nil, &langerr.TypeError{Context: fmt.Sprintf(
			"print type argument %s does not match value type %s", typeArgs[0], val.Type())}
	}
	fmt.Fprintln(ev.Stdout, val.String())
	return value.Unit{}, nil
}

func (ev *Evaluator) primPanic(frame *runtime.Frame, argIDs []anf.Var) (value.Value, error) {
	if len(argIDs) != 1 {
		return nil, &langerr.BadPrimitiveError{Context: "panic requires exactly one argument"}
	}
	msgVal, err := lookupVar(frame, argIDs[0])
	if err != nil {
		return nil, err
	}
	msg, ok := msgVal.(value.String)
	if !ok {
		return nil, &langerr.TypeError{Context: fmt.Sprintf("panic message must be String, got %s", msgVal.Type())}
	}
	return nil, &langerr.PanicError{Message: msg.Value}
}
