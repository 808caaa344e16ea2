// Package support defines the contracts shared by every state module:
// the numeric capabilities a concrete instantiation must provide, the
// uniform dispatch contract, and the block shape consumed by the executor.
//
// Modules are generic over these constraints so the same module logic can
// be reused with different concrete account, counter and balance types.
package support

import (
	"errors"
	"fmt"
)

// ErrUnknownCall is returned by a Dispatcher given a call it does not own.
var ErrUnknownCall = errors.New("unknown call")

// UnknownCallError wraps ErrUnknownCall with the module name and call type.
func UnknownCallError(module string, call any) error {
	return fmt.Errorf("%s: %w %T", module, ErrUnknownCall, call)
}

// Numeric is the capability set required of balances and counters.
//
// The zero value of T is the zero identity. Arithmetic is checked: on
// overflow or underflow the boolean result is false and the returned value
// must be ignored. Implementations never wrap or saturate.
type Numeric[T any] interface {
	comparable

	// One returns the multiplicative identity. It is called on the zero
	// value, so it must not depend on the receiver.
	One() T
	CheckedAdd(T) (T, bool)
	CheckedSub(T) (T, bool)
	// Cmp returns -1, 0 or +1 when the receiver is less than, equal to or
	// greater than the argument.
	Cmp(T) int
	IsZero() bool
}

// Counter is a Numeric that fits in 64 bits. Block numbers and nonces are
// counters so they can be reported on the engine boundary.
type Counter[T any] interface {
	Numeric[T]
	Uint64() uint64
}

// Zero returns the zero identity of T.
func Zero[T Numeric[T]]() T {
	var z T
	return z
}

// One returns the unit of T.
func One[T Numeric[T]]() T {
	var z T
	return z.One()
}

// Dispatcher routes a call made by caller to the operation it names.
//
// A nil error means the call succeeded. Failures are returned unchanged to
// the layer above; a Dispatcher never recovers from another module's error.
type Dispatcher[Caller, Call any] interface {
	Dispatch(caller Caller, call Call) error
}

// DispatchFunc adapts a function to the Dispatcher interface.
type DispatchFunc[Caller, Call any] func(caller Caller, call Call) error

// Dispatch calls f(caller, call).
func (f DispatchFunc[Caller, Call]) Dispatch(caller Caller, call Call) error {
	return f(caller, call)
}
