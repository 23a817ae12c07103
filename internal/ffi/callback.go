package ffi

import (
	"fmt"
	"reflect"
)

// ScriptCaller is implemented by the VM: invoking a script function (or a
// lambda's closure) from host code, synchronously, on the calling thread —
// the VM is single-threaded and cooperative, so host FFI calls execute
// synchronously on its one thread.
type ScriptCaller interface {
	CallScript(functionID uint32, dataPtr uintptr, args []any) (any, error)
}

// CallScript invokes a script-side function or closure from host code and
// converts any script-side runtime error into a Go error, recovering from
// a VM panic rather than propagating it into host code.
func CallScript(vm ScriptCaller, functionID uint32, dataPtr uintptr, args []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ffi: panic calling back into script function %d: %v", functionID, r)
		}
	}()
	return vm.CallScript(functionID, dataPtr, args)
}

// WrapAsGoFunc produces a Go function value of goType that, when called,
// marshals its arguments and calls back into the script function/closure
// described by functionID and dataPtr. This lets host code pass a script
// lambda wherever a Go func value is expected.
func WrapAsGoFunc(vm ScriptCaller, functionID uint32, dataPtr uintptr, goType reflect.Type) (any, error) {
	if goType.Kind() != reflect.Func {
		return nil, fmt.Errorf("ffi: WrapAsGoFunc: target type must be a function, got %s", goType.Kind())
	}

	fn := reflect.MakeFunc(goType, func(in []reflect.Value) []reflect.Value {
		args := make([]any, len(in))
		for i, v := range in {
			args[i] = v.Interface()
		}

		result, err := CallScript(vm, functionID, dataPtr, args)

		numOut := goType.NumOut()
		if numOut == 0 {
			return nil
		}

		errType := reflect.TypeOf((*error)(nil)).Elem()
		lastIsError := goType.Out(numOut-1).Implements(errType)

		if err != nil {
			out := make([]reflect.Value, numOut)
			for i := 0; i < numOut; i++ {
				out[i] = reflect.Zero(goType.Out(i))
			}
			if lastIsError {
				out[numOut-1] = reflect.ValueOf(err)
			} else {
				panic(fmt.Sprintf("ffi: script callback error: %v", err))
			}
			return out
		}

		out := make([]reflect.Value, numOut)
		if result != nil {
			out[0] = reflect.ValueOf(result)
		} else {
			out[0] = reflect.Zero(goType.Out(0))
		}
		if lastIsError {
			out[numOut-1] = reflect.Zero(goType.Out(numOut - 1))
		}
		return out
	})

	return fn.Interface(), nil
}
