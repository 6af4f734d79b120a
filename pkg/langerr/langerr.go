// Package langerr declares the flat error-kind vocabulary from the spec: one
// exported type per kind, each carrying a short message, so callers can use
// errors.As to branch on kind while fmt.Errorf("...: %w", err) still chains
// context the way pkg/jack/lowering.go wraps every nested HandleXxx failure.
package langerr

import "fmt"

// UnknownNameError: a variable reference has no binding during lowering.
type UnknownNameError struct{ Name string }

func (e *UnknownNameError) Error() string { return fmt.Sprintf("unknown name %q", e.Name) }

// UnboundVarError: an ANF id has no binding in any frame at evaluation time.
type UnboundVarError struct{ ID uint32 }

func (e *UnboundVarError) Error() string { return fmt.Sprintf("variable %d not found", e.ID) }

// TypeError: operand/argument/return type mismatch, bad byte decoding, wrong
// write size, non-string Panic argument, non-bool If condition, and so on.
type TypeError struct{ Context string }

func (e *TypeError) Error() string { return e.Context }

// ArithmeticError: divide-by-zero (integer overflow wraps, per spec.md §9).
type ArithmeticError struct{ Context string }

func (e *ArithmeticError) Error() string { return e.Context }

// BoundsError: tuple-index or heap access out of range.
type BoundsError struct{ Context string }

func (e *BoundsError) Error() string { return e.Context }

// InvalidHeapCellError: read of a Poison or Undefined heap cell.
type InvalidHeapCellError struct{ Context string }

func (e *InvalidHeapCellError) Error() string { return e.Context }

// ArityError: wrong number of call arguments.
type ArityError struct{ Expected, Got int }

func (e *ArityError) Error() string {
	return fmt.Sprintf("invalid number of arguments: expected %d, got %d", e.Expected, e.Got)
}

// BadPrimitiveError: a primitive invoked with the wrong shape of type/value arguments.
type BadPrimitiveError struct{ Context string }

func (e *BadPrimitiveError) Error() string { return e.Context }

// PanicError: a user-invoked panic, carrying the panic message.
type PanicError struct{ Message string }

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %s", e.Message) }

// UnimplementedError: a deliberately-unimplemented feature was reached (e.g.
// stack-located pointer access).
type UnimplementedError struct{ Feature string }

func (e *UnimplementedError) Error() string { return fmt.Sprintf("not implemented: %s", e.Feature) }
