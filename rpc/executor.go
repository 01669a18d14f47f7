// Package rpc implements spec §4.9-4.11: the message schema's consumer
// layer — typed method executors, the server dispatcher (lookup, invoke,
// respond), the client correlator (msgid → promise table), and the typed
// future both sides build on.
package rpc

import (
	"fmt"
	"reflect"

	"github.com/nishisan-dev/mprpc/wire"
)

// MethodExecutor is spec §4.9's "uniform executor map" value: given encoded
// params bytes, it returns encoded result and error payloads ready to embed
// in a wire.EncodeResponse call. On failure the result is wire-nil; on
// success the error is wire-nil, and for a void method both are.
type MethodExecutor interface {
	Invoke(params []byte) (result []byte, errVal []byte)
}

// funcExecutor adapts an arbitrary Go function to MethodExecutor via
// reflection, the generalization of
// original_source/include/mprpc/execution/function_method_executor.h's
// FunctionMethodServer: applications hand RegisterFunc a plain function
// instead of hand-writing an executor that unpacks params itself.
type funcExecutor struct {
	fn       reflect.Value
	fnType   reflect.Type
	hasValue bool // true if fn returns (R, error); false if fn returns only error
}

// RegisterFunc wraps fn as a MethodExecutor. fn must have one of these
// shapes:
//
//	func(P1, ..., Pn) (R, error)
//	func(P1, ..., Pn) error
//
// matching spec §4.9's "(P1,...,Pn) -> R" contract, with R's void case
// expressed the idiomatic Go way (error-only return) rather than a literal
// void/nil result.
func RegisterFunc(fn interface{}) (MethodExecutor, error) {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, fmt.Errorf("rpc: RegisterFunc requires a function, got %T", fn)
	}

	errType := reflect.TypeOf((*error)(nil)).Elem()
	switch t.NumOut() {
	case 1:
		if !t.Out(0).Implements(errType) {
			return nil, fmt.Errorf("rpc: single-return function must return error, got %s", t.Out(0))
		}
		return &funcExecutor{fn: v, fnType: t, hasValue: false}, nil
	case 2:
		if !t.Out(1).Implements(errType) {
			return nil, fmt.Errorf("rpc: second return value must be error, got %s", t.Out(1))
		}
		return &funcExecutor{fn: v, fnType: t, hasValue: true}, nil
	default:
		return nil, fmt.Errorf("rpc: function must return (R, error) or (error), got %d return values", t.NumOut())
	}
}

// Invoke decodes params, calls the wrapped function by reflection, and
// encodes either the result or the error as wire-ready bytes.
func (e *funcExecutor) Invoke(params []byte) (result []byte, errVal []byte) {
	args, err := wire.DecodeParams(params)
	if err != nil {
		return wire.Nil(), encodeErrString(fmt.Sprintf("invalid params: %v", err))
	}
	if len(args) != e.fnType.NumIn() {
		return wire.Nil(), encodeErrString(fmt.Sprintf("expected %d params, got %d", e.fnType.NumIn(), len(args)))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		pt := e.fnType.In(i)
		av := reflect.ValueOf(a)
		if !av.IsValid() {
			// nil argument against a non-pointer/interface param type.
			in[i] = reflect.Zero(pt)
			continue
		}
		if av.Type() == pt {
			in[i] = av
		} else if av.Type().ConvertibleTo(pt) {
			in[i] = av.Convert(pt)
		} else {
			return wire.Nil(), encodeErrString(fmt.Sprintf("param %d: cannot use %s as %s", i, av.Type(), pt))
		}
	}

	out := callRecovering(e.fn, in)
	if out.panicked {
		return wire.Nil(), encodeErrString(out.panicMsg)
	}

	var errOut reflect.Value
	var valueOut reflect.Value
	if e.hasValue {
		valueOut, errOut = out.values[0], out.values[1]
	} else {
		errOut = out.values[0]
	}

	if !errOut.IsNil() {
		return wire.Nil(), encodeErrString(errOut.Interface().(error).Error())
	}

	if !e.hasValue {
		return wire.Nil(), wire.Nil()
	}
	resultBytes, err := wire.EncodeValue(valueOut.Interface())
	if err != nil {
		return wire.Nil(), encodeErrString(fmt.Sprintf("encoding result: %v", err))
	}
	return resultBytes, wire.Nil()
}

type callResult struct {
	values   []reflect.Value
	panicked bool
	panicMsg string
}

// callRecovering invokes fn.Call(in), converting a panic (spec §4.9's
// "thrown exception") into an error response rather than tearing down the
// worker that's running it.
func callRecovering(fn reflect.Value, in []reflect.Value) (res callResult) {
	defer func() {
		if r := recover(); r != nil {
			res = callResult{panicked: true, panicMsg: fmt.Sprintf("%v", r)}
		}
	}()
	return callResult{values: fn.Call(in)}
}

func encodeErrString(msg string) []byte {
	b, err := wire.EncodeValue(msg)
	if err != nil {
		// wire.EncodeValue on a string cannot fail; this is unreachable in
		// practice but avoids ever returning an invalid wire.nil() pair.
		return wire.Nil()
	}
	return b
}
